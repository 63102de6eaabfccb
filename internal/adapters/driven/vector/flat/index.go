// Package flat provides an exact nearest-neighbour index over unit-length
// vectors. Similarity is the inner product, which equals cosine similarity
// for normalised vectors. Search is a full scan.
package flat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Binary layout: magic, version, dim, count (uint32 little endian each),
// then count*dim float32 values in insertion order.
const (
	magic      = "KVEC"
	version    = 1
	headerSize = 16
)

// ErrDimension indicates a vector of the wrong size.
var ErrDimension = errors.New("flat: vector dimension mismatch")

// Index is a flat inner-product index. It is safe for concurrent reads
// once building is finished; Add must not race with Search.
type Index struct {
	dim  int
	data []float32
}

// New creates an empty index for vectors of the given size.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Add appends a vector and returns its position.
func (i *Index) Add(vector []float32) (int, error) {
	if len(vector) != i.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(vector), i.dim)
	}
	i.data = append(i.data, vector...)
	return i.Len() - 1, nil
}

// Search returns up to k positions by descending inner product.
// Ties keep insertion order. A k of zero or less returns nothing.
func (i *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimension, len(query), i.dim)
	}
	n := i.Len()
	if k <= 0 || n == 0 {
		return []driven.VectorHit{}, nil
	}

	hits := make([]driven.VectorHit, 0, n)
	for pos := 0; pos < n; pos++ {
		s := dot(query, i.Vector(pos))
		if math.IsNaN(s) {
			continue
		}
		hits = append(hits, driven.VectorHit{Position: pos, Similarity: s})
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Similarity > hits[b].Similarity })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	if i.dim == 0 {
		return 0
	}
	return len(i.data) / i.dim
}

// Dimensions returns the vector size.
func (i *Index) Dimensions() int {
	return i.dim
}

// Vector returns the stored vector at a position. The slice aliases the
// index and must not be modified.
func (i *Index) Vector(position int) []float32 {
	return i.data[position*i.dim : (position+1)*i.dim : (position+1)*i.dim]
}

// MarshalBinary serialises the index.
func (i *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, headerSize+4*len(i.data))
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], version)
	binary.LittleEndian.PutUint32(out[8:12], uint32(i.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(i.Len()))

	off := headerSize
	for _, v := range i.data {
		binary.LittleEndian.PutUint32(out[off:off+4], math.Float32bits(v))
		off += 4
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes produced by MarshalBinary.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || string(data[0:4]) != magic {
		return errors.New("flat: not an index file")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != version {
		return fmt.Errorf("flat: unsupported version %d", v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	if want := headerSize + 4*dim*n; len(data) != want {
		return fmt.Errorf("flat: truncated index: %d bytes, want %d", len(data), want)
	}

	values := make([]float32, dim*n)
	off := headerSize
	for j := range values {
		values[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}
	i.dim = dim
	i.data = values
	return nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
