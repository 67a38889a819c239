package gpu_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/gpu"
	"github.com/gekko3d/quadrt/rt/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger records warnings and infos for assertions.
type captureLogger struct {
	core.Logger
	warns []string
	infos []string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{Logger: core.NewNopLogger()}
}

func (l *captureLogger) Warnf(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func sphereScene(t *testing.T, n int) *core.Scene {
	t.Helper()
	scene := core.NewScene()
	scene.AddMaterial(core.DefaultMaterial())
	scene.AddLight(core.NewPointLight(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1}))
	for i := 0; i < n; i++ {
		_, err := scene.AddPrimitive(core.NewSphere(mgl32.Vec3{float32(i), 0, 0}, 0.5, 0))
		require.NoError(t, err)
	}
	return scene
}

func TestManagerCreatesSceneBuffer(t *testing.T) {
	dev := gputest.NewDevice()
	layout := gpu.DefaultLayout()

	m, err := gpu.NewGpuBufferManager(dev, layout, nil)
	require.NoError(t, err)

	assert.Equal(t, "SceneUB", dev.Labels[m.SceneBuf])
	assert.Len(t, dev.Buffers[m.SceneBuf], layout.SizeBytes())
}

func TestManagerRejectsInvalidLayout(t *testing.T) {
	layout := gpu.DefaultLayout()
	layout.MaxLights = 0
	_, err := gpu.NewGpuBufferManager(gputest.NewDevice(), layout, nil)
	assert.ErrorIs(t, err, gpu.ErrInvalidLayout)
}

func TestManagerUploadsEveryCall(t *testing.T) {
	dev := gputest.NewDevice()
	layout := gpu.DefaultLayout()
	m, err := gpu.NewGpuBufferManager(dev, layout, nil)
	require.NoError(t, err)

	scene := sphereScene(t, 3)
	for i := 0; i < 3; i++ {
		_, err := m.UpdateScene(scene)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, dev.Count("Upload"))
	assert.Equal(t, 3, m.Stats.Uploads)
	assert.Equal(t, 0, m.Stats.Skipped)
	assert.Equal(t, layout.SizeBytes(), m.Stats.LastBytes)

	want, err := gpu.Pack(scene, layout)
	require.NoError(t, err)
	assert.Equal(t, want.Data, dev.Floats(m.SceneBuf))
}

func TestManagerSkipUnchanged(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := gpu.NewGpuBufferManager(dev, gpu.DefaultLayout(), nil)
	require.NoError(t, err)
	m.SkipUnchanged = true

	scene := sphereScene(t, 2)
	first, err := m.UpdateScene(scene)
	require.NoError(t, err)
	second, err := m.UpdateScene(scene)
	require.NoError(t, err)

	assert.Equal(t, 1, dev.Count("Upload"))
	assert.Equal(t, 1, m.Stats.Skipped)
	assert.Equal(t, first.Counts, second.Counts)

	_, err = scene.AddPrimitive(core.NewPlaneXZ(0, 0))
	require.NoError(t, err)
	res, err := m.UpdateScene(scene)
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Count("Upload"))
	assert.Equal(t, 3, res.Counts.Primitives)

	// a different scene object always uploads
	_, err = m.UpdateScene(sphereScene(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, dev.Count("Upload"))
}

func TestManagerLogsOverflowOnce(t *testing.T) {
	dev := gputest.NewDevice()
	layout := gpu.DefaultLayout()
	logger := newCaptureLogger()
	m, err := gpu.NewGpuBufferManager(dev, layout, logger)
	require.NoError(t, err)

	big := sphereScene(t, layout.MaxPrimitives+3)
	for i := 0; i < 5; i++ {
		res, err := m.UpdateScene(big)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Overflow.Primitives)
		assert.Equal(t, layout.MaxPrimitives, res.Counts.Primitives)
	}
	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "3 primitives")

	_, err = m.UpdateScene(sphereScene(t, 1))
	require.NoError(t, err)
	assert.Len(t, logger.infos, 1)
	assert.Len(t, logger.warns, 1)
}

func TestManagerUploadError(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := gpu.NewGpuBufferManager(dev, gpu.DefaultLayout(), nil)
	require.NoError(t, err)

	boom := errors.New("device lost")
	dev.FailUpload = boom
	_, err = m.UpdateScene(sphereScene(t, 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Stats.Uploads)
}

func TestManagerRetriesFailedUpload(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := gpu.NewGpuBufferManager(dev, gpu.DefaultLayout(), nil)
	require.NoError(t, err)
	m.SkipUnchanged = true

	scene := sphereScene(t, 1)
	dev.FailUpload = errors.New("write buffer: device lost")
	_, err = m.UpdateScene(scene)
	require.Error(t, err)

	// The same version is uploaded again once the device recovers
	dev.FailUpload = nil
	_, err = m.UpdateScene(scene)
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Count("Upload"))
	assert.Equal(t, 1, m.Stats.Uploads)
	assert.Zero(t, m.Stats.Skipped)
}

func TestManagerBindUsesOneIndex(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := gpu.NewGpuBufferManager(dev, gpu.DefaultLayout(), nil)
	require.NoError(t, err)

	prog, err := dev.CompileProgram("vs", "fs")
	require.NoError(t, err)
	require.NoError(t, m.Bind(prog))

	blockIndex := dev.Programs[prog].Blocks[gpu.SceneBlockName]
	assert.Equal(t, uint32(gpu.SceneBinding), blockIndex)
	assert.Equal(t, m.SceneBuf, dev.Bindings[blockIndex])
	assert.NoError(t, dev.DrawFullscreenQuad(prog))
}

func TestDrawWithoutBufferFails(t *testing.T) {
	dev := gputest.NewDevice()
	prog, err := dev.CompileProgram("vs", "fs")
	require.NoError(t, err)
	require.NoError(t, dev.BindUniformBlock(prog, gpu.SceneBlockName, 3))

	assert.ErrorIs(t, dev.DrawFullscreenQuad(prog), gpu.ErrUnboundBlock)
}
