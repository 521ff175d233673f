package db

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// toVector narrows an embedding to the float32 pgvector representation
func toVector(values []float64) pgvector.Vector {
	f32 := make([]float32, len(values))
	for i, v := range values {
		f32[i] = float32(v)
	}
	return pgvector.NewVector(f32)
}

// fromVectorText decodes the text form of a vector column. NULL decodes to nil.
func fromVectorText(text *string) ([]float64, error) {
	if text == nil || *text == "" {
		return nil, nil
	}

	var vec pgvector.Vector
	if err := vec.Scan(*text); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}

	f32 := vec.Slice()
	out := make([]float64, len(f32))
	for i, v := range f32 {
		out[i] = float64(v)
	}
	return out, nil
}
