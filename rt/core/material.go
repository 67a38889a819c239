package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is a Phong material with reflection and refraction terms.
// Primitives reference materials by index into Scene.Materials.
type Material struct {
	Name            string     // host side only
	Ambient         mgl32.Vec4 // rgb, w reserved
	Diffuse         mgl32.Vec4 // rgb, w reserved
	Specular        mgl32.Vec4 // rgb, w = shininess
	Reflectivity    float32
	Transparency    float32
	RefractiveIndex float32
}

func DefaultMaterial() Material {
	return Material{
		Ambient:         mgl32.Vec4{0.1, 0.1, 0.1, 1.0},
		Diffuse:         mgl32.Vec4{0.8, 0.8, 0.8, 1.0},
		Specular:        mgl32.Vec4{0.9, 0.9, 0.9, 32.0},
		Reflectivity:    0.0,
		Transparency:    0.0,
		RefractiveIndex: 1.0,
	}
}

// NewMaterial returns the default material tinted with the given diffuse colour.
func NewMaterial(name string, diffuse mgl32.Vec3) Material {
	m := DefaultMaterial()
	m.Name = name
	m.Diffuse = diffuse.Vec4(1.0)
	m.Ambient = diffuse.Mul(0.1).Vec4(1.0)
	return m
}

func (m Material) Shininess() float32 {
	return m.Specular[3]
}

func (m Material) Validate() error {
	if m.Specular[3] <= 0 {
		return fmt.Errorf("material %q: shininess must be positive, got %g", m.Name, m.Specular[3])
	}
	if m.Reflectivity < 0 || m.Reflectivity > 1 {
		return fmt.Errorf("material %q: reflectivity %g outside [0,1]", m.Name, m.Reflectivity)
	}
	if m.Transparency < 0 || m.Transparency > 1 {
		return fmt.Errorf("material %q: transparency %g outside [0,1]", m.Name, m.Transparency)
	}
	if m.RefractiveIndex <= 0 {
		return fmt.Errorf("material %q: refractive index must be positive, got %g", m.Name, m.RefractiveIndex)
	}
	return nil
}
