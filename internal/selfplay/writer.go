package selfplay

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"popit/internal/game"
	"popit/internal/rules"
)

// Columns per CSV row: run_id, instance, turn, player, outcome, value,
// 36 policy probabilities, then the encoded features.
const Columns = 6 + game.Actions + rules.InputChannels*game.Cells

// Writer appends samples to a CSV file, one row per sample.
type Writer struct {
	f    *os.File
	w    *csv.Writer
	rows int
}

// OpenWriter opens path for appending. A trailing partial row left by an
// interrupted run is cut off first.
func OpenWriter(path string) (*Writer, error) {
	rows, err := repairCSV(path, Columns)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	return &Writer{f: f, w: csv.NewWriter(f), rows: rows}, nil
}

// Write appends every sample of res and flushes.
func (w *Writer) Write(res Result) error {
	for _, s := range res.Samples {
		row := make([]string, 0, Columns)
		row = append(row,
			s.RunID,
			strconv.Itoa(s.Instance),
			strconv.Itoa(s.Turn),
			strconv.Itoa(s.Player),
			strconv.Itoa(s.Outcome),
			formatFloat(s.Value),
		)
		for _, p := range s.Policy {
			row = append(row, formatFloat(p))
		}
		for _, v := range s.Features {
			row = append(row, formatFloat(v))
		}
		if len(row) != Columns {
			return fmt.Errorf("sample of run %s has %d columns, want %d", s.RunID, len(row), Columns)
		}
		if err := w.w.Write(row); err != nil {
			return fmt.Errorf("write sample row: %w", err)
		}
		w.rows++
	}
	w.w.Flush()
	return w.w.Error()
}

// Rows returns the number of complete rows in the file.
func (w *Writer) Rows() int { return w.rows }

func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

func formatFloat(v float32) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(v), 'g', 6, 32)
}

// repairCSV counts the complete rows of path and truncates the file after
// the last one. A missing file counts as empty.
func repairCSV(path string, expectCols int) (int, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, fmt.Errorf("repair open: %w", err)
	}
	defer f.Close()

	var offset int64
	rows := 0
	rdr := bufio.NewReader(f)
	for {
		line, err := rdr.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("read csv: %w", err)
		}
		complete := err == nil && bytes.Count(line, []byte{','})+1 == expectCols
		if !complete {
			if len(line) > 0 {
				if err := f.Truncate(offset); err != nil {
					return 0, fmt.Errorf("truncate: %w", err)
				}
				log.Warn().Msgf("found a partial row, truncated %s to %d bytes (%d complete rows)", path, offset, rows)
			}
			return rows, nil
		}
		offset += int64(len(line))
		rows++
	}
}

// ReadSamples parses rows written by Writer.
func ReadSamples(r io.Reader) ([]Sample, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = Columns
	rdr.ReuseRecord = true

	var out []Sample
	for line := 1; ; line++ {
		rec, err := rdr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
}

func parseRow(rec []string) (Sample, error) {
	s := Sample{RunID: rec[0]}
	ints := []*int{&s.Instance, &s.Turn, &s.Player, &s.Outcome}
	for i, dst := range ints {
		v, err := strconv.Atoi(rec[1+i])
		if err != nil {
			return s, err
		}
		*dst = v
	}
	floats := make([]float32, Columns-5)
	for i := range floats {
		v, err := strconv.ParseFloat(rec[5+i], 32)
		if err != nil {
			return s, err
		}
		floats[i] = float32(v)
	}
	s.Value = floats[0]
	s.Policy = floats[1 : 1+game.Actions]
	s.Features = floats[1+game.Actions:]
	return s, nil
}
