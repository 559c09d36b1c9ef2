package nn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// File layout, little endian:
//
//	int32 magic, int32 version, int32 inChannels, int32 distinct tower blocks
//	float32 parameters in params() order
const (
	weightsMagic   = 0x504f5031 // "POP1"
	weightsVersion = 1
)

var ErrBadWeights = errors.New("nn: malformed weights file")

// Save writes the parameters of n to w.
func (n *Network) Save(w io.Writer) error {
	hdr := [4]int32{weightsMagic, weightsVersion, int32(n.inChannels), int32(len(n.blocks()))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range n.params() {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("write params: %w", err)
		}
	}
	return nil
}

// Load reads parameters written by Save into n. The header must match the
// shape n was built with. On error n is left unchanged.
func (n *Network) Load(r io.Reader) error {
	var hdr [4]int32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: header: %v", ErrBadWeights, err)
	}
	if hdr[0] != weightsMagic || hdr[1] != weightsVersion {
		return fmt.Errorf("%w: magic %#x version %d", ErrBadWeights, hdr[0], hdr[1])
	}
	if int(hdr[2]) != n.inChannels || int(hdr[3]) != len(n.blocks()) {
		return fmt.Errorf("%w: file has %d input channels and %d tower blocks, network has %d and %d",
			ErrBadWeights, hdr[2], hdr[3], n.inChannels, len(n.blocks()))
	}
	params := n.params()
	scratch := make([][]float32, len(params))
	for i, p := range params {
		scratch[i] = make([]float32, len(p))
		if err := binary.Read(r, binary.LittleEndian, scratch[i]); err != nil {
			return fmt.Errorf("%w: params: %v", ErrBadWeights, err)
		}
	}
	for i, p := range params {
		copy(p, scratch[i])
	}
	return nil
}

// LoadFile builds a network for inChannels planes and fills it from path.
func LoadFile(path string, inChannels int, options ...Option) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := New(inChannels, options...)
	if err := n.Load(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return n, nil
}

// SaveFile writes the parameters of n to path.
func (n *Network) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := n.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
