// Package gputest provides an in-memory gpu.Device that records every call,
// for tests that need to observe what reaches the device and in what order.
package gputest

import (
	"fmt"
	"image"
	"sync"

	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/gpu"
)

// Call is one recorded device call.
type Call struct {
	Op      string
	Program gpu.ProgramHandle
	Buffer  gpu.BufferHandle
	Name    string
	Index   uint32
	Bytes   int
}

type Program struct {
	Vertex   string
	Fragment string
	Blocks   map[string]uint32
	Uniforms gpu.FrameUniforms
}

// Device is a fake gpu.Device. Set the Fail* fields to inject errors.
type Device struct {
	mu sync.Mutex

	Calls    []Call
	Programs map[gpu.ProgramHandle]*Program
	Buffers  map[gpu.BufferHandle][]byte
	Labels   map[gpu.BufferHandle]string
	Bindings map[uint32]gpu.BufferHandle

	Width, Height int

	Atlas   *image.Alpha
	Overlay []core.TextVertex

	FailCompile error
	FailUpload  error
	FailDraw    error

	nextProg gpu.ProgramHandle
	nextBuf  gpu.BufferHandle
}

func NewDevice() *Device {
	return &Device{
		Programs: make(map[gpu.ProgramHandle]*Program),
		Buffers:  make(map[gpu.BufferHandle][]byte),
		Labels:   make(map[gpu.BufferHandle]string),
		Bindings: make(map[uint32]gpu.BufferHandle),
	}
}

func (d *Device) record(c Call) {
	d.Calls = append(d.Calls, c)
}

func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (gpu.ProgramHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "CompileProgram"})
	if d.FailCompile != nil {
		return 0, fmt.Errorf("%w: %v", gpu.ErrCompile, d.FailCompile)
	}
	d.nextProg++
	d.Programs[d.nextProg] = &Program{
		Vertex:   vertexSrc,
		Fragment: fragmentSrc,
		Blocks:   make(map[string]uint32),
	}
	return d.nextProg, nil
}

func (d *Device) CreateBuffer(label string, size int) (gpu.BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuf++
	d.Buffers[d.nextBuf] = make([]byte, size)
	d.Labels[d.nextBuf] = label
	d.record(Call{Op: "CreateBuffer", Buffer: d.nextBuf, Name: label, Bytes: size})
	return d.nextBuf, nil
}

func (d *Device) Upload(buf gpu.BufferHandle, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "Upload", Buffer: buf, Bytes: len(data)})
	if d.FailUpload != nil {
		return d.FailUpload
	}
	dst, ok := d.Buffers[buf]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknown, buf)
	}
	if len(data) > len(dst) {
		return fmt.Errorf("upload of %d bytes overruns %d byte buffer", len(data), len(dst))
	}
	copy(dst, data)
	return nil
}

func (d *Device) BindUniformBlock(prog gpu.ProgramHandle, name string, index uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "BindUniformBlock", Program: prog, Name: name, Index: index})
	p, ok := d.Programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrUnknown, prog)
	}
	p.Blocks[name] = index
	return nil
}

func (d *Device) BindBuffer(index uint32, buf gpu.BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "BindBuffer", Buffer: buf, Index: index})
	if _, ok := d.Buffers[buf]; !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknown, buf)
	}
	d.Bindings[index] = buf
	return nil
}

func (d *Device) SetUniforms(prog gpu.ProgramHandle, u gpu.FrameUniforms) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetUniforms", Program: prog})
	p, ok := d.Programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrUnknown, prog)
	}
	p.Uniforms = u
	return nil
}

// DrawFullscreenQuad fails like the real device when a non-frame block of
// prog has no buffer at its index.
func (d *Device) DrawFullscreenQuad(prog gpu.ProgramHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "Draw", Program: prog})
	if d.FailDraw != nil {
		return d.FailDraw
	}
	p, ok := d.Programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", gpu.ErrUnknown, prog)
	}
	for name, index := range p.Blocks {
		if name == gpu.FrameBlockName {
			continue
		}
		if _, ok := d.Bindings[index]; !ok {
			return fmt.Errorf("%w: %s at index %d", gpu.ErrUnboundBlock, name, index)
		}
	}
	return nil
}

func (d *Device) Configure(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "Configure"})
	d.Width, d.Height = width, height
}

func (d *Device) SetOverlayAtlas(atlas *image.Alpha) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetOverlayAtlas"})
	d.Atlas = atlas
	return nil
}

func (d *Device) SetOverlay(vertices []core.TextVertex) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(Call{Op: "SetOverlay", Bytes: len(vertices)})
	d.Overlay = append(d.Overlay[:0], vertices...)
	return nil
}

// Ops returns the recorded operation names in call order.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (d *Device) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Floats decodes the current contents of buf.
func (d *Device) Floats(buf gpu.BufferHandle) []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gpu.Floats(d.Buffers[buf])
}

func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = nil
}

var (
	_ gpu.Device        = (*Device)(nil)
	_ gpu.OverlayDevice = (*Device)(nil)
)
