// Package config loads renderer settings from YAML. Fields missing from the
// file keep their Default values.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	// ResolutionFactor divides the window size to get the render size.
	ResolutionFactor float32 `yaml:"resolution_factor"`
}

type Camera struct {
	Eye        [3]float32 `yaml:"eye"`
	Target     [3]float32 `yaml:"target"`
	FovDegrees float32    `yaml:"fov_degrees"`
	OrbitSpeed float32    `yaml:"orbit_speed"` // radians per second
	Paused     bool       `yaml:"paused"`
}

type Config struct {
	Window               Window     `yaml:"window"`
	Layout               gpu.Layout `yaml:"layout"`
	Camera               Camera     `yaml:"camera"`
	Scene                string     `yaml:"scene"`
	Debug                bool       `yaml:"debug"`
	SkipUnchangedUploads bool       `yaml:"skip_unchanged_uploads"`
	// ShaderDir, when set, loads shaders from disk instead of the embedded copies.
	ShaderDir string `yaml:"shader_dir"`
}

func Default() Config {
	cam := core.NewCameraState()
	return Config{
		Window: Window{
			Width:            1280,
			Height:           720,
			Title:            "QuadRT",
			ResolutionFactor: 2,
		},
		Layout: gpu.DefaultLayout(),
		Camera: Camera{
			Eye:        cam.BaseEye,
			Target:     cam.Target,
			FovDegrees: mgl32.RadToDeg(cam.FovY),
			OrbitSpeed: cam.OrbitSpeed,
		},
		Scene: "default",
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Window.ResolutionFactor < 1 {
		return fmt.Errorf("%w: resolution factor %v must be at least 1", ErrInvalid, c.Window.ResolutionFactor)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return fmt.Errorf("%w: field of view %v degrees", ErrInvalid, c.Camera.FovDegrees)
	}
	if mgl32.Vec3(c.Camera.Eye).Sub(c.Camera.Target).Len() == 0 {
		return fmt.Errorf("%w: camera eye and target coincide", ErrInvalid)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// CameraState builds the orbit camera described by the config.
func (c Config) CameraState() *core.CameraState {
	cam := core.NewCameraState()
	cam.BaseEye = c.Camera.Eye
	cam.Target = c.Camera.Target
	cam.FovY = mgl32.DegToRad(c.Camera.FovDegrees)
	cam.OrbitSpeed = c.Camera.OrbitSpeed
	cam.Paused = c.Camera.Paused
	return cam
}
