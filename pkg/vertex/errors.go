package vertex

import (
	"errors"
	"fmt"
)

// Vertex attribute errors.
var (
	ErrShapeMismatch   = errors.New("vertex shape mismatch")
	ErrIndexOutOfRange = errors.New("vertex slot index out of range")
	ErrNullSource      = errors.New("vertex source is nil")
)

func colorIndexError(i, max int) error {
	return fmt.Errorf("%w: color %d, have %d", ErrIndexOutOfRange, i, max)
}

func texCoordIndexError(i, max int) error {
	return fmt.Errorf("%w: texcoord %d, have %d", ErrIndexOutOfRange, i, max)
}

func shapeError(a, b Material) error {
	return fmt.Errorf("%w: %d colors/%d texcoords vs %d colors/%d texcoords",
		ErrShapeMismatch, a.MaxColors(), a.MaxTexCoords(), b.MaxColors(), b.MaxTexCoords())
}
