package gpu

import (
	"errors"
	"fmt"
)

// LayoutVersion identifies the scene block layout. Bump it whenever the
// record encodings below change; the shader declarations carry it too.
const LayoutVersion = 1

// Minimum floats needed by each record encoding. Slots may be larger; the
// remainder is zero padding.
const (
	LightRecordFloats     = 12 // intensity, position, shadow flag vec4
	MaterialRecordFloats  = 16 // ambient, diffuse, specular, phys
	PrimitiveRecordFloats = 24 // transform, info, pattern params
)

// Float offsets of each field inside its slot.
const (
	lightIntensityOffset = 0
	lightPositionOffset  = 4
	lightShadowOffset    = 8

	materialAmbientOffset  = 0
	materialDiffuseOffset  = 4
	materialSpecularOffset = 8
	materialPhysOffset     = 12

	primitiveTransformOffset = 0
	primitiveInfoOffset      = 16
	primitivePatternOffset   = 20
)

const (
	floatSize = 4
	// Minimum maxUniformBufferBindingSize guaranteed by WebGPU.
	maxUniformBlockBytes = 64 * 1024
	// Integers above this are not exactly representable as float32.
	maxExactInt = 1 << 24
)

var ErrInvalidLayout = errors.New("invalid scene layout")

// Layout is the scene block contract shared with the shader: slot sizes in
// floats, capacities in records. Regions are packed lights, materials,
// primitives, each sized for its full capacity.
type Layout struct {
	Version           uint32 `yaml:"version"`
	LightSlotSize     int    `yaml:"light_slot_size"`
	MaterialSlotSize  int    `yaml:"material_slot_size"`
	PrimitiveSlotSize int    `yaml:"primitive_slot_size"`
	MaxLights         int    `yaml:"max_lights"`
	MaxMaterials      int    `yaml:"max_materials"`
	MaxPrimitives     int    `yaml:"max_primitives"`
}

func DefaultLayout() Layout {
	return Layout{
		Version:           LayoutVersion,
		LightSlotSize:     16,
		MaterialSlotSize:  16,
		PrimitiveSlotSize: 32,
		MaxLights:         4,
		MaxMaterials:      8,
		MaxPrimitives:     20,
	}
}

func (l Layout) Validate() error {
	if l.Version != LayoutVersion {
		return fmt.Errorf("%w: version %d, this build packs version %d", ErrInvalidLayout, l.Version, LayoutVersion)
	}

	slots := []struct {
		name string
		size int
		min  int
	}{
		{"light", l.LightSlotSize, LightRecordFloats},
		{"material", l.MaterialSlotSize, MaterialRecordFloats},
		{"primitive", l.PrimitiveSlotSize, PrimitiveRecordFloats},
	}
	for _, s := range slots {
		if s.size < s.min {
			return fmt.Errorf("%w: %s slot of %d floats cannot hold a %d float record", ErrInvalidLayout, s.name, s.size, s.min)
		}
		if s.size%4 != 0 {
			return fmt.Errorf("%w: %s slot of %d floats is not 16 byte aligned", ErrInvalidLayout, s.name, s.size)
		}
	}

	caps := []struct {
		name string
		n    int
	}{
		{"lights", l.MaxLights},
		{"materials", l.MaxMaterials},
		{"primitives", l.MaxPrimitives},
	}
	for _, c := range caps {
		if c.n < 1 || c.n >= maxExactInt {
			return fmt.Errorf("%w: max %s must be in [1, %d), got %d", ErrInvalidLayout, c.name, maxExactInt, c.n)
		}
	}

	if l.SizeBytes() > maxUniformBlockBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte uniform block limit", ErrInvalidLayout, l.SizeBytes(), maxUniformBlockBytes)
	}
	return nil
}

func (l Layout) LightsOffset() int {
	return 0
}

func (l Layout) MaterialsOffset() int {
	return l.MaxLights * l.LightSlotSize
}

func (l Layout) PrimitivesOffset() int {
	return l.MaterialsOffset() + l.MaxMaterials*l.MaterialSlotSize
}

// Floats is the total block length in floats, independent of scene size.
func (l Layout) Floats() int {
	return l.PrimitivesOffset() + l.MaxPrimitives*l.PrimitiveSlotSize
}

func (l Layout) SizeBytes() int {
	return l.Floats() * floatSize
}

func (l Layout) String() string {
	return fmt.Sprintf("v%d lights=%dx%d materials=%dx%d primitives=%dx%d (%d bytes)",
		l.Version,
		l.MaxLights, l.LightSlotSize,
		l.MaxMaterials, l.MaterialSlotSize,
		l.MaxPrimitives, l.PrimitiveSlotSize,
		l.SizeBytes())
}
