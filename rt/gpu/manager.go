package gpu

import (
	"fmt"

	"github.com/gekko3d/quadrt/rt/core"
)

// UploadStats counts scene uploads since the manager was created.
type UploadStats struct {
	Uploads   int
	Skipped   int
	LastBytes int
}

// GpuBufferManager owns the device-side scene uniform buffer and keeps it in
// sync with a Scene. Every UpdateScene re-packs and replaces the whole
// buffer; the scene is small enough that partial updates are not worth it.
type GpuBufferManager struct {
	Device   Device
	Layout   Layout
	Logger   core.Logger
	SceneBuf BufferHandle

	// SkipUnchanged skips the upload when the scene version has not moved
	// since the last upload.
	SkipUnchanged bool

	Stats UploadStats

	packed []float32
	bytes  []byte

	uploaded     bool
	lastScene    *core.Scene
	lastVersion  uint64
	lastResult   PackResult
	lastOverflow Overflow
}

func NewGpuBufferManager(device Device, layout Layout, logger core.Logger) (*GpuBufferManager, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	buf, err := device.CreateBuffer("SceneUB", layout.SizeBytes())
	if err != nil {
		return nil, fmt.Errorf("create scene buffer: %w", err)
	}

	m := &GpuBufferManager{
		Device:   device,
		Layout:   layout,
		Logger:   core.LoggerOrNop(logger),
		SceneBuf: buf,
		packed:   make([]float32, layout.Floats()),
		bytes:    make([]byte, layout.SizeBytes()),
	}
	m.Logger.Debugf("scene buffer created: %s", layout)
	return m, nil
}

// Bind attaches the scene buffer to prog's scene block. The same binding
// constant is used for both halves of the association.
func (m *GpuBufferManager) Bind(prog ProgramHandle) error {
	if err := m.Device.BindUniformBlock(prog, SceneBlockName, SceneBinding); err != nil {
		return fmt.Errorf("bind %s block: %w", SceneBlockName, err)
	}
	if err := m.Device.BindBuffer(SceneBinding, m.SceneBuf); err != nil {
		return fmt.Errorf("bind scene buffer: %w", err)
	}
	return nil
}

// UpdateScene packs scene and replaces the buffer contents. It must run
// before the draw that reads the buffer.
func (m *GpuBufferManager) UpdateScene(scene *core.Scene) (PackResult, error) {
	if m.SkipUnchanged && m.uploaded && scene == m.lastScene && scene != nil && scene.Version() == m.lastVersion {
		m.Stats.Skipped++
		return m.lastResult, nil
	}

	res, err := PackInto(m.packed, scene, m.Layout)
	if err != nil {
		return PackResult{}, err
	}
	m.packed = res.Data
	m.reportOverflow(res.Overflow)

	m.bytes = Bytes(res.Data, m.bytes)
	if err := m.Device.Upload(m.SceneBuf, m.bytes); err != nil {
		return res, fmt.Errorf("upload scene: %w", err)
	}

	m.uploaded = true
	m.lastScene = scene
	if scene != nil {
		m.lastVersion = scene.Version()
	}
	m.lastResult = res
	m.Stats.Uploads++
	m.Stats.LastBytes = len(m.bytes)
	return res, nil
}

// reportOverflow logs when the overflow state changes rather than every frame.
func (m *GpuBufferManager) reportOverflow(o Overflow) {
	if o == m.lastOverflow {
		return
	}
	if o.Any() {
		m.Logger.Warnf("scene exceeds layout capacity (%s), dropping %s", m.Layout, o)
	} else {
		m.Logger.Infof("scene fits layout capacity again")
	}
	m.lastOverflow = o
}
