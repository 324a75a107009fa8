// Package formats reads and writes the files of the baking pipeline:
// transfer coefficient caches, angular-map light probes and exported light
// coefficients.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"path/filepath"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// Transfer cache errors.
var (
	ErrTruncatedTransfer = errors.New("truncated transfer cache")
	ErrCountMismatch     = errors.New("transfer cache count mismatch")
)

// transferByteOrder is the host byte order; caches are not portable across
// architectures.
var transferByteOrder = binary.NativeEndian

const (
	coeffSize = 12 // one RGB float32 triple

	// maxTransferCoeffs bounds the coefficient count a header may announce.
	maxTransferCoeffs = stdmath.MaxInt32
	readChunk         = 1 << 16
)

// TransferHeader precedes the coefficients of a cache file.
type TransferHeader struct {
	VertexCount uint32
	CoeffCount  uint32
}

// TransferCache is a parsed transfer coefficient file. Coeffs holds
// VertexCount*CoeffCount RGB triples, vertex-major.
type TransferCache struct {
	TransferHeader
	Coeffs []math.Vec3
}

// NewTransferCache wraps coefficients for writing.
func NewTransferCache(vertexCount, coeffCount int, coeffs []math.Vec3) *TransferCache {
	return &TransferCache{
		TransferHeader: TransferHeader{VertexCount: uint32(vertexCount), CoeffCount: uint32(coeffCount)},
		Coeffs:         coeffs,
	}
}

// Len returns the number of coefficient triples the header announces.
func (h TransferHeader) Len() int {
	return int(h.VertexCount) * int(h.CoeffCount)
}

// ParseTransfer parses a transfer cache from raw bytes.
func ParseTransfer(data []byte) (*TransferCache, error) {
	r := bytes.NewReader(data)
	var h TransferHeader
	if err := binary.Read(r, transferByteOrder, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTransfer)
	}
	if size := uint64(h.VertexCount) * uint64(h.CoeffCount) * coeffSize; size > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: header announces %d coefficient bytes, have %d", ErrTruncatedTransfer, size, r.Len())
	}
	return readCoeffs(r, h)
}

// ReadTransfer reads a transfer cache from r.
func ReadTransfer(r io.Reader) (*TransferCache, error) {
	var h TransferHeader
	if err := binary.Read(r, transferByteOrder, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTransfer)
	}
	return readCoeffs(r, h)
}

// readCoeffs reads the coefficients announced by h in chunks, so a corrupt
// header fails on the missing data instead of allocating its claimed size.
func readCoeffs(r io.Reader, h TransferHeader) (*TransferCache, error) {
	n := uint64(h.VertexCount) * uint64(h.CoeffCount)
	if n > maxTransferCoeffs {
		return nil, fmt.Errorf("%w: header announces %d coefficients", ErrTruncatedTransfer, n)
	}

	coeffs := make([]math.Vec3, 0, min(n, readChunk))
	chunk := make([]math.Vec3, min(n, readChunk))
	for remaining := n; remaining > 0; {
		part := chunk[:min(remaining, readChunk)]
		if err := binary.Read(r, transferByteOrder, part); err != nil {
			return nil, fmt.Errorf("%w: read %d of %d coefficients", ErrTruncatedTransfer, len(coeffs), n)
		}
		coeffs = append(coeffs, part...)
		remaining -= uint64(len(part))
	}
	return &TransferCache{TransferHeader: h, Coeffs: coeffs}, nil
}

// LoadTransferFile reads a cache from disk and checks that it was written
// for the given vertex and coefficient counts. A count mismatch returns
// ErrCountMismatch without reading the coefficients.
func LoadTransferFile(path string, vertexCount, coeffCount int) (*TransferCache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transfer cache: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var h TransferHeader
	if err := binary.Read(r, transferByteOrder, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedTransfer)
	}
	if int(h.VertexCount) != vertexCount || int(h.CoeffCount) != coeffCount {
		return nil, fmt.Errorf("%w: file has %d vertices x %d coefficients, want %d x %d",
			ErrCountMismatch, h.VertexCount, h.CoeffCount, vertexCount, coeffCount)
	}
	return readCoeffs(r, h)
}

// ReadTransferHeader reads only the header of a cache file.
func ReadTransferHeader(path string) (TransferHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return TransferHeader{}, fmt.Errorf("opening transfer cache: %w", err)
	}
	defer f.Close()

	var h TransferHeader
	if err := binary.Read(f, transferByteOrder, &h); err != nil {
		return TransferHeader{}, fmt.Errorf("%w: reading header", ErrTruncatedTransfer)
	}
	return h, nil
}

// Write encodes the cache to w.
func (c *TransferCache) Write(w io.Writer) error {
	if len(c.Coeffs) != c.Len() {
		return fmt.Errorf("%w: header announces %d coefficients, have %d", ErrCountMismatch, c.Len(), len(c.Coeffs))
	}
	if err := binary.Write(w, transferByteOrder, c.TransferHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(w, transferByteOrder, c.Coeffs); err != nil {
		return fmt.Errorf("writing coefficients: %w", err)
	}
	return nil
}

// SaveFile writes the cache to path, creating parent directories. The file
// is written to a temporary name and renamed into place.
func (c *TransferCache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating transfer cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := c.Write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing transfer cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing transfer cache: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
