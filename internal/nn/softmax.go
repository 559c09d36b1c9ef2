package nn

import "math"

// MaskedSoftmax turns one row of logits into a probability distribution in
// place. Entries whose illegal bit is set get exactly 0. The caller must
// guarantee that at least one entry is legal.
func MaskedSoftmax(logits []float32, illegal []bool) {
	maxLogit := math.Inf(-1)
	for i, l := range logits {
		if illegal[i] {
			continue
		}
		if v := float64(l); v > maxLogit {
			maxLogit = v
		}
	}

	var sum float64
	exps := make([]float64, len(logits))
	for i, l := range logits {
		if illegal[i] {
			continue
		}
		exps[i] = math.Exp(float64(l) - maxLogit)
		sum += exps[i]
	}

	// Non-finite logits leave nothing to normalize by; fall back to a
	// uniform distribution over the legal actions.
	if !(sum > 0) || math.IsInf(sum, 0) {
		legal := 0
		for _, bad := range illegal {
			if !bad {
				legal++
			}
		}
		for i := range logits {
			if illegal[i] {
				logits[i] = 0
			} else {
				logits[i] = float32(1 / float64(legal))
			}
		}
		return
	}

	for i := range logits {
		logits[i] = float32(exps[i] / sum)
	}
}

// checkMask returns an InvalidMaskError for the first all-illegal row.
func checkMask(mask [][]bool) error {
	for n, row := range mask {
		legal := false
		for _, bad := range row {
			if !bad {
				legal = true
				break
			}
		}
		if !legal {
			return &InvalidMaskError{Instance: n}
		}
	}
	return nil
}

// ValidateMask checks that mask holds one row of Actions flags for each
// of batch instances and that no row marks every action illegal.
func ValidateMask(mask [][]bool, batch int) error {
	if err := checkMaskShape(mask, batch); err != nil {
		return err
	}
	return checkMask(mask)
}
