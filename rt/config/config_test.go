package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/quadrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quadrt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gpu.DefaultLayout(), cfg.Layout)
	assert.Equal(t, float32(2), cfg.Window.ResolutionFactor)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  width: 640
  resolution_factor: 1
layout:
  max_primitives: 32
camera:
  eye: [0, 3, 10]
  fov_degrees: 45
debug: true
skip_unchanged_uploads: true
shader_dir: ./shaders
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, float32(1), cfg.Window.ResolutionFactor)
	assert.Equal(t, 32, cfg.Layout.MaxPrimitives)
	assert.Equal(t, 4, cfg.Layout.MaxLights)
	assert.Equal(t, uint32(gpu.LayoutVersion), cfg.Layout.Version)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.SkipUnchangedUploads)
	assert.Equal(t, "./shaders", cfg.ShaderDir)

	cam := cfg.CameraState()
	assert.Equal(t, mgl32.Vec3{0, 3, 10}, cam.BaseEye)
	assert.InDelta(t, mgl32.DegToRad(45), cam.FovY, 1e-6)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero width", "window:\n  width: 0\n"},
		{"resolution factor below one", "window:\n  resolution_factor: 0.5\n"},
		{"fov too wide", "camera:\n  fov_degrees: 180\n"},
		{"eye on target", "camera:\n  eye: [0, 1, 0]\n"},
		{"layout version", "layout:\n  version: 7\n"},
		{"layout too large", "layout:\n  max_primitives: 4096\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLayoutErrorsKeepCause(t *testing.T) {
	_, err := Load(writeConfig(t, "layout:\n  light_slot_size: 8\n"))
	assert.ErrorIs(t, err, gpu.ErrInvalidLayout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "window: [not, a, map]\n"))
	assert.Error(t, err)
}
