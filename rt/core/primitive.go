package core

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// PrimitiveKind selects the intersection routine in the shader. The numeric
// values are read by the shader and must not be renumbered.
type PrimitiveKind uint32

const (
	PrimitiveNone     PrimitiveKind = 0 // empty slot
	PrimitiveSphere   PrimitiveKind = 1 // unit sphere at the origin
	PrimitivePlaneXZ  PrimitiveKind = 2 // infinite plane y = 0
	primitiveKindLast               = PrimitivePlaneXZ
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveNone:
		return "none"
	case PrimitiveSphere:
		return "sphere"
	case PrimitivePlaneXZ:
		return "plane_xz"
	}
	return "unknown"
}

// Known reports whether the shader has an intersection routine for k.
func (k PrimitiveKind) Known() bool {
	return k > PrimitiveNone && k <= primitiveKindLast
}

// PatternType selects a procedural surface pattern.
type PatternType uint32

const (
	PatternNone       PatternType = 0
	PatternStripeDots PatternType = 1
)

var (
	ErrSingularTransform = errors.New("primitive transform is singular")
	ErrNotAffine         = errors.New("primitive transform is not affine")
)

// Primitive is one object in the scene. Kind-specific data lives in the shared
// Pattern/PatternParams fields; there is no per-kind type.
type Primitive struct {
	ID            uuid.UUID
	Kind          PrimitiveKind
	Transform     mgl32.Mat4 // object to world, column-major
	MaterialIndex int
	Pattern       PatternType
	PatternParams mgl32.Vec4
}

// NewSphere returns a sphere primitive of the given radius centred at center.
func NewSphere(center mgl32.Vec3, radius float32, material int) Primitive {
	tr := NewTransformTRS(center, mgl32.QuatIdent(), radius)
	return Primitive{
		Kind:          PrimitiveSphere,
		Transform:     tr.ObjectToWorld(),
		MaterialIndex: material,
	}
}

// NewPlaneXZ returns an infinite horizontal plane at the given height.
func NewPlaneXZ(height float32, material int) Primitive {
	return Primitive{
		Kind:          PrimitivePlaneXZ,
		Transform:     mgl32.Translate3D(0, height, 0),
		MaterialIndex: material,
	}
}

// WithPattern returns a copy of p using the given pattern.
func (p Primitive) WithPattern(pattern PatternType, params mgl32.Vec4) Primitive {
	p.Pattern = pattern
	p.PatternParams = params
	return p
}

// Validate checks that the transform can be inverted by the shader. The
// material index is deliberately not checked here.
func (p Primitive) Validate() error {
	m := p.Transform
	if m.At(3, 0) != 0 || m.At(3, 1) != 0 || m.At(3, 2) != 0 || m.At(3, 3) != 1 {
		return ErrNotAffine
	}
	det := float64(m.Det())
	if math.IsNaN(det) || math.IsInf(det, 0) || mgl32.FloatEqualThreshold(m.Det(), 0, 1e-12) {
		return ErrSingularTransform
	}
	return nil
}
