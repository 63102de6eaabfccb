package flat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, vectors ...[]float32) *Index {
	t.Helper()
	idx := New(len(vectors[0]))
	for i, v := range vectors {
		pos, err := idx.Add(v)
		require.NoError(t, err)
		require.Equal(t, i, pos)
	}
	return idx
}

func TestIndex_Search(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1, 0, 0},
		[]float32{0, 1, 0},
		[]float32{0.6, 0.8, 0},
		[]float32{-1, 0, 0},
	)

	hits, err := idx.Search([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, 2, hits[1].Position)
	assert.InDelta(t, 0.6, hits[1].Similarity, 1e-6)
	assert.Equal(t, 1, hits[2].Position)
}

func TestIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	idx := buildIndex(t,
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 0},
		[]float32{1, 0},
	)

	hits, err := idx.Search([]float32{1, 0}, 4)
	require.NoError(t, err)

	positions := []int{hits[0].Position, hits[1].Position, hits[2].Position, hits[3].Position}
	assert.Equal(t, []int{1, 2, 3, 0}, positions)
}

func TestIndex_Search_Bounds(t *testing.T) {
	idx := buildIndex(t, []float32{1, 0}, []float32{0, 1})

	hits, err := idx.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	empty := New(2)
	hits, err = empty.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := New(3)

	_, err := idx.Add([]float32{1, 0})
	assert.True(t, errors.Is(err, ErrDimension))

	_, err = idx.Search([]float32{1, 0}, 1)
	assert.True(t, errors.Is(err, ErrDimension))
}

func TestIndex_BinaryRoundTrip(t *testing.T) {
	idx := buildIndex(t,
		[]float32{0.1, 0.2, 0.3},
		[]float32{-0.5, 0.25, 0.125},
	)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := &Index{}
	require.NoError(t, restored.UnmarshalBinary(data))

	assert.Equal(t, 3, restored.Dimensions())
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, idx.Vector(1), restored.Vector(1))

	query := []float32{0.3, 0.2, 0.1}
	before, err := idx.Search(query, 2)
	require.NoError(t, err)
	after, err := restored.Search(query, 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIndex_UnmarshalBinary_Invalid(t *testing.T) {
	idx := buildIndex(t, []float32{1, 0})
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("XXXX"), data[4:]...)},
		{name: "truncated", data: data[:len(data)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, (&Index{}).UnmarshalBinary(tt.data))
		})
	}
}
