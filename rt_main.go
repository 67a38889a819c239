package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/quadrt/rt/app"
	"github.com/gekko3d/quadrt/rt/config"
	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/gpu"
	"github.com/gekko3d/quadrt/rt/scenes"
	"github.com/gekko3d/quadrt/rt/shaders"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

type glfwWindow struct {
	*glfw.Window
}

func (w glfwWindow) FramebufferSize() (int, int) {
	return w.GetFramebufferSize()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging and the stats overlay")
	shaderDir := flag.String("shaders", "", "Load shaders from this directory instead of the embedded copies")
	sceneName := flag.String("scene", "", fmt.Sprintf("Scene to render %v", scenes.Names()))
	flag.Parse()

	if err := run(*configPath, *debug, *shaderDir, *sceneName); err != nil {
		fmt.Fprintf(os.Stderr, "quadrt: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool, shaderDir, sceneName string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if debug {
		cfg.Debug = true
	}
	if shaderDir != "" {
		cfg.ShaderDir = shaderDir
	}
	if sceneName != "" {
		cfg.Scene = sceneName
	}

	logger := core.NewDefaultLogger("quadrt", cfg.Debug)

	scene, err := scenes.ByName(cfg.Scene)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	device, err := gpu.NewWGPUDevice(window, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", app.ErrNoDevice, err)
	}
	defer device.Release()

	application := app.NewApp(device, glfwWindow{window}, scene)
	application.Logger = logger
	application.Layout = cfg.Layout
	application.Camera = cfg.CameraState()
	application.DebugMode = cfg.Debug
	application.SkipUnchanged = cfg.SkipUnchangedUploads
	application.ResolutionFactor = cfg.Window.ResolutionFactor
	if cfg.ShaderDir != "" {
		application.Shaders = shaders.Dir{Path: cfg.ShaderDir}
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press {
			switch key {
			case glfw.KeySpace:
				application.TogglePause()
			case glfw.KeyTab:
				application.ToggleDebug()
			case glfw.KeyEscape:
				w.SetShouldClose(true)
			}
		}
		if key == glfw.KeyRight && (action == glfw.Press || action == glfw.Repeat) {
			application.StepOrbit()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := application.Begin(ctx); err != nil {
		return err
	}

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Frame(glfw.GetTime())
		if application.State() == app.StateFailed {
			return application.Err
		}
	}
	return nil
}
