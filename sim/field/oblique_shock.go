package field

import (
	"fmt"
	"math"
)

// ObliqueShockField models the magnetic field across an oblique shock front
// at x = 0: the normal component decays smoothly from its upstream value BxUp
// (x < 0) to BxUp/compression downstream (x > 0) over the shock width, while
// the tangential component By is constant.
type ObliqueShockField struct {
	bxUp        float64
	by          float64
	compression float64
	width       float64
}

var _ Field = (*ObliqueShockField)(nil)

// NewObliqueShockField validates the shock parameters. compression is the
// shock compression ratio (> 1 for a compressive shock, but any positive
// value is accepted); width sets the tanh transition scale.
func NewObliqueShockField(bxUp, by, compression, width float64) (*ObliqueShockField, error) {
	if compression <= 0 {
		return nil, fmt.Errorf("%w: compression ratio must be positive, got %g", ErrConfig, compression)
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: shock width must be positive, got %g", ErrConfig, width)
	}
	return &ObliqueShockField{
		bxUp:        bxUp,
		by:          by,
		compression: compression,
		width:       width,
	}, nil
}

// At returns the field at pos. Only the X coordinate matters; the profile is
// uniform in the shock plane.
func (f *ObliqueShockField) At(pos Vector3) Vector3 {
	bxDown := f.bxUp / f.compression
	a := (f.bxUp + bxDown) / 2
	b := (f.bxUp - bxDown) / 2
	return Vector3{
		X: a - b*math.Tanh(pos.X/f.width),
		Y: f.by,
	}
}

// Upstream returns the normal field component far upstream of the shock.
func (f *ObliqueShockField) Upstream() float64 {
	return f.bxUp
}

// Downstream returns the normal field component far downstream of the shock.
func (f *ObliqueShockField) Downstream() float64 {
	return f.bxUp / f.compression
}

// Width returns the tanh transition scale of the shock front.
func (f *ObliqueShockField) Width() float64 {
	return f.width
}
