package gpu

import (
	"github.com/gekko3d/quadrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameUniformsSize is the byte size of the FrameData block.
const FrameUniformsSize = 112

// FrameUniforms are the per-frame values the shader reads besides the scene
// block. Counts must already be clamped to the layout.
type FrameUniforms struct {
	Width         float32
	Height        float32
	Time          float32
	CameraToWorld mgl32.Mat4
	Eye           mgl32.Vec3
	FocalScale    float32
	Counts        core.Counts
}

func (u FrameUniforms) Aspect() float32 {
	if u.Height == 0 {
		return 1
	}
	return u.Width / u.Height
}

// Marshal encodes the uniforms as the FrameData block:
//
//	resolution: vec4<f32>       -- 0   (width, height, aspect, time)
//	camera:     mat4x4<f32>     -- 16
//	eye:        vec4<f32>       -- 80  (xyz, focal scale)
//	counts:     vec4<f32>       -- 96  (lights, materials, primitives, 0)
//	                            -> 112 bytes
func (u FrameUniforms) Marshal() []byte {
	buf := make([]byte, FrameUniformsSize)

	putVec4(buf, 0, mgl32.Vec4{u.Width, u.Height, u.Aspect(), u.Time})
	putMat4(buf, 16, u.CameraToWorld)
	putVec4(buf, 80, u.Eye.Vec4(u.FocalScale))
	putVec4(buf, 96, mgl32.Vec4{
		float32(u.Counts.Lights),
		float32(u.Counts.Materials),
		float32(u.Counts.Primitives),
		0,
	})

	return buf
}
