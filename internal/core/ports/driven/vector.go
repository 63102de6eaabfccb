package driven

// VectorIndex is the nearest-neighbour structure over unit-length vectors.
// Positions are assigned in insertion order and align with the passage
// records persisted beside the index.
type VectorIndex interface {
	// Add appends a vector and returns its position.
	Add(vector []float32) (int, error)

	// Search returns up to k positions by descending inner product.
	// Equal scores keep insertion order.
	Search(query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size.
	Dimensions() int

	// Vector returns the stored vector at a position.
	Vector(position int) []float32

	// MarshalBinary serialises the index.
	MarshalBinary() ([]byte, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the insertion position of the matched vector.
	Position int

	// Similarity is the inner product with the query, in [-1, 1].
	Similarity float64
}
