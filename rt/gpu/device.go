package gpu

import (
	"errors"
	"image"

	"github.com/gekko3d/quadrt/rt/core"
)

type ProgramHandle uint32
type BufferHandle uint32

// Uniform block names and binding indices shared by the host and the
// generated shader declarations.
const (
	SceneBlockName = "SceneData"
	FrameBlockName = "FrameData"
	SceneBinding   = 0
	FrameBinding   = 1
)

var (
	ErrCompile      = errors.New("shader compile failed")
	ErrUnknown      = errors.New("unknown device handle")
	ErrUnboundBlock = errors.New("uniform block has no buffer bound")
)

// Device is the slice of a graphics device the renderer needs.
//
// A uniform block is connected to a buffer in two steps: BindUniformBlock
// assigns the program's block a binding index, BindBuffer attaches a buffer to
// that index. Both must use the same index or the draw reads the wrong data.
type Device interface {
	CompileProgram(vertexSrc, fragmentSrc string) (ProgramHandle, error)
	CreateBuffer(label string, size int) (BufferHandle, error)
	// Upload replaces the buffer contents starting at offset 0.
	Upload(buf BufferHandle, data []byte) error
	BindUniformBlock(prog ProgramHandle, name string, index uint32) error
	BindBuffer(index uint32, buf BufferHandle) error
	SetUniforms(prog ProgramHandle, u FrameUniforms) error
	DrawFullscreenQuad(prog ProgramHandle) error
	// Configure resizes the render target.
	Configure(width, height int)
}

// OverlayDevice is implemented by devices that can draw the debug text
// overlay on top of the fullscreen quad.
type OverlayDevice interface {
	SetOverlayAtlas(atlas *image.Alpha) error
	SetOverlay(vertices []core.TextVertex) error
}
