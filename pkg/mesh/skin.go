package mesh

import (
	"errors"
	"fmt"
	gomath "math"
)

// Skinning attribute names, packed after the material attributes of
// skinned meshes.
const (
	JointsAttribute  = "JOINTS_0"
	WeightsAttribute = "WEIGHTS_0"
)

// ErrInvalidWeights is returned for skin weights that are negative, not
// finite or sum to zero.
var ErrInvalidWeights = errors.New("invalid skin weights")

// Skin binds a vertex to up to four joints. Joint indices refer to the
// joint list of the skin the mesh is drawn with. Weights are normalized
// to sum to 1 when the vertex is added.
type Skin struct {
	Joints  [4]uint16
	Weights [4]float32
}

// normalized returns a copy of s whose weights sum to 1. Joints with zero
// weight are reset to 0.
func (s Skin) normalized() (Skin, error) {
	var sum float32
	for _, w := range s.Weights {
		if w < 0 || gomath.IsNaN(float64(w)) || gomath.IsInf(float64(w), 0) {
			return Skin{}, fmt.Errorf("%w: %v", ErrInvalidWeights, s.Weights)
		}
		sum += w
	}
	if sum == 0 {
		return Skin{}, fmt.Errorf("%w: all zero", ErrInvalidWeights)
	}
	for i := range s.Weights {
		s.Weights[i] /= sum
		if s.Weights[i] == 0 {
			s.Joints[i] = 0
		}
	}
	return s, nil
}
