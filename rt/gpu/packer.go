package gpu

import (
	"fmt"

	"github.com/gekko3d/quadrt/rt/core"
)

// Overflow counts records dropped because the scene exceeds the layout.
type Overflow struct {
	Lights     int
	Materials  int
	Primitives int
}

func (o Overflow) Any() bool {
	return o.Lights > 0 || o.Materials > 0 || o.Primitives > 0
}

func (o Overflow) String() string {
	return fmt.Sprintf("%d lights, %d materials, %d primitives", o.Lights, o.Materials, o.Primitives)
}

// PackResult is the packed scene block.
type PackResult struct {
	Data     []float32   // always Layout.Floats() long
	Counts   core.Counts // records actually packed
	Overflow Overflow
}

// Pack serialises scene into a freshly allocated block. Scenes larger than
// the layout are clamped, never rejected: the first MaxN records of each
// kind are packed and the rest reported in Overflow. The only error is an
// invalid layout.
func Pack(scene *core.Scene, layout Layout) (PackResult, error) {
	return PackInto(nil, scene, layout)
}

// PackInto is Pack reusing dst when it has enough capacity.
func PackInto(dst []float32, scene *core.Scene, layout Layout) (PackResult, error) {
	if err := layout.Validate(); err != nil {
		return PackResult{}, err
	}

	n := layout.Floats()
	if cap(dst) < n {
		dst = make([]float32, n)
	} else {
		dst = dst[:n]
		clear(dst)
	}

	res := PackResult{Data: dst}
	if scene == nil {
		return res, nil
	}

	lights := scene.Lights()
	res.Counts.Lights, res.Overflow.Lights = clampCount(len(lights), layout.MaxLights)
	for i, l := range lights[:res.Counts.Lights] {
		off := layout.LightsOffset() + i*layout.LightSlotSize
		packLight(dst[off:off+layout.LightSlotSize], l)
	}

	materials := scene.Materials()
	res.Counts.Materials, res.Overflow.Materials = clampCount(len(materials), layout.MaxMaterials)
	for i, m := range materials[:res.Counts.Materials] {
		off := layout.MaterialsOffset() + i*layout.MaterialSlotSize
		packMaterial(dst[off:off+layout.MaterialSlotSize], m)
	}

	prims := scene.Primitives()
	res.Counts.Primitives, res.Overflow.Primitives = clampCount(len(prims), layout.MaxPrimitives)
	for i, p := range prims[:res.Counts.Primitives] {
		off := layout.PrimitivesOffset() + i*layout.PrimitiveSlotSize
		packPrimitive(dst[off:off+layout.PrimitiveSlotSize], p)
	}

	return res, nil
}

func clampCount(n, limit int) (kept, dropped int) {
	if n > limit {
		return limit, n - limit
	}
	return n, 0
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func packLight(slot []float32, l core.Light) {
	copy(slot[lightIntensityOffset:], l.Intensity[:])
	copy(slot[lightPositionOffset:], l.Position[:])
	slot[lightShadowOffset] = boolToFloat(l.CastsShadows)
}

func packMaterial(slot []float32, m core.Material) {
	copy(slot[materialAmbientOffset:], m.Ambient[:])
	copy(slot[materialDiffuseOffset:], m.Diffuse[:])
	copy(slot[materialSpecularOffset:], m.Specular[:])
	slot[materialPhysOffset+0] = m.Reflectivity
	slot[materialPhysOffset+1] = m.Transparency
	slot[materialPhysOffset+2] = m.RefractiveIndex
}

func packPrimitive(slot []float32, p core.Primitive) {
	// mgl32 matrices are column-major, as the shader expects
	copy(slot[primitiveTransformOffset:], p.Transform[:])
	slot[primitiveInfoOffset+0] = float32(p.Kind)
	slot[primitiveInfoOffset+1] = float32(p.MaterialIndex)
	slot[primitiveInfoOffset+2] = float32(p.Pattern)
	copy(slot[primitivePatternOffset:], p.PatternParams[:])
}

// Records are the decoded contents of a scene block.
type Records struct {
	Lights     []core.Light
	Materials  []core.Material
	Primitives []core.Primitive
}

// Unpack decodes the first counts records of each region. IDs and material
// names are host-only and come back empty.
func Unpack(data []float32, layout Layout, counts core.Counts) (Records, error) {
	if err := layout.Validate(); err != nil {
		return Records{}, err
	}
	if len(data) != layout.Floats() {
		return Records{}, fmt.Errorf("scene block has %d floats, layout needs %d", len(data), layout.Floats())
	}
	if counts.Lights > layout.MaxLights || counts.Materials > layout.MaxMaterials || counts.Primitives > layout.MaxPrimitives {
		return Records{}, fmt.Errorf("counts %+v exceed layout capacity", counts)
	}

	var rec Records
	for i := 0; i < counts.Lights; i++ {
		off := layout.LightsOffset() + i*layout.LightSlotSize
		rec.Lights = append(rec.Lights, unpackLight(data[off:off+layout.LightSlotSize]))
	}
	for i := 0; i < counts.Materials; i++ {
		off := layout.MaterialsOffset() + i*layout.MaterialSlotSize
		rec.Materials = append(rec.Materials, unpackMaterial(data[off:off+layout.MaterialSlotSize]))
	}
	for i := 0; i < counts.Primitives; i++ {
		off := layout.PrimitivesOffset() + i*layout.PrimitiveSlotSize
		rec.Primitives = append(rec.Primitives, unpackPrimitive(data[off:off+layout.PrimitiveSlotSize]))
	}
	return rec, nil
}

func unpackLight(slot []float32) core.Light {
	var l core.Light
	copy(l.Intensity[:], slot[lightIntensityOffset:])
	copy(l.Position[:], slot[lightPositionOffset:])
	l.CastsShadows = slot[lightShadowOffset] != 0
	return l
}

func unpackMaterial(slot []float32) core.Material {
	var m core.Material
	copy(m.Ambient[:], slot[materialAmbientOffset:])
	copy(m.Diffuse[:], slot[materialDiffuseOffset:])
	copy(m.Specular[:], slot[materialSpecularOffset:])
	m.Reflectivity = slot[materialPhysOffset+0]
	m.Transparency = slot[materialPhysOffset+1]
	m.RefractiveIndex = slot[materialPhysOffset+2]
	return m
}

func unpackPrimitive(slot []float32) core.Primitive {
	var p core.Primitive
	copy(p.Transform[:], slot[primitiveTransformOffset:])
	p.Kind = core.PrimitiveKind(slot[primitiveInfoOffset+0])
	p.MaterialIndex = int(slot[primitiveInfoOffset+1])
	p.Pattern = core.PatternType(slot[primitiveInfoOffset+2])
	copy(p.PatternParams[:], slot[primitivePatternOffset:])
	return p
}
