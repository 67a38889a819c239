package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Light is a point light. Position.W is 1 for point lights; w = 0 is
// reserved for directional lights, which the shader does not handle yet.
type Light struct {
	ID           uuid.UUID
	Intensity    mgl32.Vec4 // rgb, w reserved
	Position     mgl32.Vec4
	CastsShadows bool
}

func NewPointLight(position mgl32.Vec3, intensity mgl32.Vec3) Light {
	return Light{
		Intensity: intensity.Vec4(1.0),
		Position:  position.Vec4(1.0),
	}
}

// WithShadows returns a copy of l with shadow casting enabled.
func (l Light) WithShadows() Light {
	l.CastsShadows = true
	return l
}

func (l Light) Directional() bool {
	return l.Position[3] == 0
}
