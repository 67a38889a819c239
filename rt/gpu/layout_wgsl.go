package gpu

import (
	"fmt"
	"strings"
)

// WGSLDeclarations renders the scene and frame block declarations for this
// layout. Shaders include this text instead of hard-coding capacities, so the
// host and the shader always agree on slot sizes and offsets.
func (l Layout) WGSLDeclarations() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// scene layout v%d: %s\n", l.Version, l)
	fmt.Fprintf(&sb, "const LAYOUT_VERSION: u32 = %du;\n", l.Version)
	fmt.Fprintf(&sb, "const MAX_LIGHTS: u32 = %du;\n", l.MaxLights)
	fmt.Fprintf(&sb, "const MAX_MATERIALS: u32 = %du;\n", l.MaxMaterials)
	fmt.Fprintf(&sb, "const MAX_PRIMITIVES: u32 = %du;\n\n", l.MaxPrimitives)

	writeStruct(&sb, "Light", l.LightSlotSize, LightRecordFloats, []string{
		"intensity: vec4<f32>,",
		"position: vec4<f32>,",
		"shadow: vec4<f32>, // x != 0 casts shadows",
	})
	writeStruct(&sb, "Material", l.MaterialSlotSize, MaterialRecordFloats, []string{
		"ambient: vec4<f32>,",
		"diffuse: vec4<f32>,",
		"specular: vec4<f32>, // rgb, shininess",
		"phys: vec4<f32>, // reflectivity, transparency, refractive index",
	})
	writeStruct(&sb, "Primitive", l.PrimitiveSlotSize, PrimitiveRecordFloats, []string{
		"model: mat4x4<f32>,",
		"info: vec4<f32>, // kind, material, pattern, reserved",
		"pattern: vec4<f32>,",
	})

	sb.WriteString("struct SceneData {\n")
	sb.WriteString("    lights: array<Light, MAX_LIGHTS>,\n")
	sb.WriteString("    materials: array<Material, MAX_MATERIALS>,\n")
	sb.WriteString("    primitives: array<Primitive, MAX_PRIMITIVES>,\n")
	sb.WriteString("};\n\n")

	sb.WriteString("struct FrameData {\n")
	sb.WriteString("    resolution: vec4<f32>, // width, height, aspect, time\n")
	sb.WriteString("    camera: mat4x4<f32>,\n")
	sb.WriteString("    eye: vec4<f32>, // xyz, focal scale\n")
	sb.WriteString("    counts: vec4<f32>, // lights, materials, primitives\n")
	sb.WriteString("};\n\n")

	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> scene: SceneData;\n", SceneBinding)
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> frame: FrameData;\n", FrameBinding)

	return sb.String()
}

func writeStruct(sb *strings.Builder, name string, slot, used int, fields []string) {
	fmt.Fprintf(sb, "struct %s {\n", name)
	for _, f := range fields {
		sb.WriteString("    ")
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	if pad := (slot - used) / 4; pad > 0 {
		fmt.Fprintf(sb, "    reserved: array<vec4<f32>, %d>,\n", pad)
	}
	sb.WriteString("};\n\n")
}
