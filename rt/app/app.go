package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/gpu"
	"github.com/gekko3d/quadrt/rt/shaders"

	"github.com/chewxy/math32"
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateRendering
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoDevice       = errors.New("no graphics device")
	ErrAlreadyStarted = errors.New("renderer already started")
)

// OrbitStep is the angle one StepOrbit call rotates the camera by.
const OrbitStep = math32.Pi / 36

// Window reports the drawable size in pixels.
type Window interface {
	FramebufferSize() (width, height int)
}

type loadResult struct {
	src shaders.Sources
	err error
}

// App drives the renderer: it owns the scene, the camera and the device
// side scene buffer, and renders one frame per Frame call.
type App struct {
	Device  gpu.Device
	Window  Window
	Scene   *core.Scene
	Camera  *core.CameraState
	Layout  gpu.Layout
	Shaders shaders.Loader
	Logger  core.Logger

	BufferManager *gpu.GpuBufferManager
	Program       gpu.ProgramHandle
	Profiler      *Profiler

	TextRenderer *core.TextRenderer
	TextItems    []core.TextItem

	DebugMode        bool
	SkipUnchanged    bool
	ResolutionFactor float32

	// Render target size after the resolution factor.
	Width  int
	Height int

	LastResult gpu.PackResult
	Err        error

	StartTime  float64
	LastTime   float64
	FrameCount int
	FPS        float64
	FPSTime    float64

	state       State
	loading     chan loadResult
	overlay     gpu.OverlayDevice
	overlayShow bool
}

func NewApp(device gpu.Device, window Window, scene *core.Scene) *App {
	if scene == nil {
		scene = core.NewScene()
	}
	return &App{
		Device:           device,
		Window:           window,
		Scene:            scene,
		Camera:           core.NewCameraState(),
		Layout:           gpu.DefaultLayout(),
		Shaders:          shaders.Embedded{},
		Logger:           core.NewNopLogger(),
		Profiler:         NewProfiler(),
		ResolutionFactor: 1,
	}
}

func (a *App) State() State {
	return a.state
}

// Begin starts loading shader sources in the background. Frame finishes
// initialisation on the calling thread once they arrive.
func (a *App) Begin(ctx context.Context) error {
	if a.state != StateUninitialized {
		return ErrAlreadyStarted
	}
	a.Logger = core.LoggerOrNop(a.Logger)
	if a.Device == nil {
		a.fail(ErrNoDevice)
		return ErrNoDevice
	}
	if a.Shaders == nil {
		a.Shaders = shaders.Embedded{}
	}

	a.state = StateInitializing
	ch := make(chan loadResult, 1)
	a.loading = ch
	loader := a.Shaders
	go func() {
		src, err := loader.Load(ctx)
		ch <- loadResult{src: src, err: err}
	}()
	a.Logger.Debugf("loading shaders")
	return nil
}

// Init is Begin followed by a blocking wait for the shaders.
func (a *App) Init(ctx context.Context) error {
	if err := a.Begin(ctx); err != nil {
		return err
	}
	select {
	case res := <-a.loading:
		a.finishInit(res, 0)
	case <-ctx.Done():
		a.fail(fmt.Errorf("load shaders: %w", ctx.Err()))
	}
	return a.Err
}

func (a *App) fail(err error) {
	a.state = StateFailed
	a.Err = err
	core.LoggerOrNop(a.Logger).Errorf("renderer init failed: %v", err)
}

func (a *App) finishInit(res loadResult, now float64) {
	a.loading = nil
	if res.err != nil {
		a.fail(fmt.Errorf("load shaders: %w", res.err))
		return
	}

	if err := a.Layout.Validate(); err != nil {
		a.fail(err)
		return
	}
	fragment := a.Layout.WGSLDeclarations() + "\n" + res.src.Fragment
	prog, err := a.Device.CompileProgram(res.src.Vertex, fragment)
	if err != nil {
		a.fail(fmt.Errorf("compile program: %w", err))
		return
	}
	a.Program = prog

	a.BufferManager, err = gpu.NewGpuBufferManager(a.Device, a.Layout, a.Logger)
	if err != nil {
		a.fail(err)
		return
	}
	a.BufferManager.SkipUnchanged = a.SkipUnchanged

	if err := a.BufferManager.Bind(prog); err != nil {
		a.fail(err)
		return
	}
	if err := a.Device.BindUniformBlock(prog, gpu.FrameBlockName, gpu.FrameBinding); err != nil {
		a.fail(fmt.Errorf("bind %s block: %w", gpu.FrameBlockName, err))
		return
	}

	a.LastResult, err = a.BufferManager.UpdateScene(a.Scene)
	if err != nil {
		a.fail(err)
		return
	}

	a.setupOverlay()

	if a.Window != nil {
		a.Resize(a.Window.FramebufferSize())
	}

	a.StartTime = now
	a.LastTime = now
	a.state = StateReady
	a.Logger.Infof("renderer ready: %s, %d primitives", a.Layout, a.LastResult.Counts.Primitives)
}

func (a *App) setupOverlay() {
	od, ok := a.Device.(gpu.OverlayDevice)
	if !ok {
		return
	}
	if a.TextRenderer == nil {
		tr, err := core.NewDefaultTextRenderer(16)
		if err != nil {
			a.Logger.Warnf("text overlay disabled: %v", err)
			return
		}
		a.TextRenderer = tr
	}
	if err := od.SetOverlayAtlas(a.TextRenderer.AtlasImage); err != nil {
		a.Logger.Warnf("text overlay disabled: %v", err)
		return
	}
	a.overlay = od
}

// Frame runs one tick at time now (seconds). While initialising it only
// polls the shader load; once ready every call renders.
func (a *App) Frame(now float64) {
	switch a.state {
	case StateInitializing:
		select {
		case res := <-a.loading:
			a.finishInit(res, now)
		default:
		}
		return
	case StateReady:
		a.state = StateRendering
	case StateRendering:
	default:
		return
	}
	a.render(now)
}

func (a *App) render(now float64) {
	defer a.ClearText()

	dt := now - a.LastTime
	if dt < 0 {
		dt = 0
	}
	a.LastTime = now
	a.updateFPS(dt)

	a.Camera.Advance(float32(dt))

	a.Profiler.BeginScope("Upload")
	res, err := a.BufferManager.UpdateScene(a.Scene)
	a.Profiler.EndScope("Upload")
	if err != nil {
		a.Logger.Errorf("scene upload failed: %v", err)
		return
	}
	a.LastResult = res
	a.Profiler.SetCount("Lights", res.Counts.Lights)
	a.Profiler.SetCount("Materials", res.Counts.Materials)
	a.Profiler.SetCount("Primitives", res.Counts.Primitives)

	u := gpu.FrameUniforms{
		Width:         float32(a.Width),
		Height:        float32(a.Height),
		Time:          float32(now - a.StartTime),
		CameraToWorld: a.Camera.CameraToWorld(),
		Eye:           a.Camera.Eye(),
		FocalScale:    a.Camera.FocalScale(),
		Counts:        res.Counts,
	}

	a.updateOverlay()

	a.Profiler.BeginScope("Draw")
	if err := a.Device.SetUniforms(a.Program, u); err != nil {
		a.Logger.Errorf("set uniforms failed: %v", err)
	} else if err := a.Device.DrawFullscreenQuad(a.Program); err != nil {
		a.Logger.Errorf("draw failed: %v", err)
	}
	a.Profiler.EndScope("Draw")
}

func (a *App) updateFPS(dt float64) {
	if dt <= 0 {
		return
	}
	a.FrameCount++
	a.FPSTime += dt
	if a.FPSTime >= 1.0 {
		a.FPS = float64(a.FrameCount) / a.FPSTime
		a.FrameCount = 0
		a.FPSTime = 0
	}
}

// Resize sets the render target from a framebuffer size, scaled down by
// ResolutionFactor.
func (a *App) Resize(width, height int) {
	factor := a.ResolutionFactor
	if factor <= 0 {
		factor = 1
	}
	a.Width = max(int(float32(width)/factor), 1)
	a.Height = max(int(float32(height)/factor), 1)
	if a.Device != nil {
		a.Device.Configure(a.Width, a.Height)
	}
}

func (a *App) TogglePause() {
	a.Camera.Paused = !a.Camera.Paused
}

func (a *App) StepOrbit() {
	a.Camera.Step(OrbitStep)
}

func (a *App) ToggleDebug() {
	a.DebugMode = !a.DebugMode
	a.Logger.SetDebug(a.DebugMode)
}

func (a *App) ClearText() {
	a.TextItems = a.TextItems[:0]
}

// DrawText queues text for the overlay of the next frame.
func (a *App) DrawText(text string, x, y float32, scale float32, color [4]float32) {
	a.TextItems = append(a.TextItems, core.TextItem{
		Text:     text,
		Position: [2]float32{x, y},
		Scale:    scale,
		Color:    color,
	})
}

func (a *App) updateOverlay() {
	if a.overlay == nil {
		return
	}
	if a.DebugMode {
		a.DrawText(a.debugText(), 10, 10, 1, [4]float32{1, 1, 1, 1})
	}
	if len(a.TextItems) == 0 {
		if a.overlayShow {
			if err := a.overlay.SetOverlay(nil); err != nil {
				a.Logger.Warnf("clear overlay: %v", err)
			}
			a.overlayShow = false
		}
		return
	}

	vertices := a.TextRenderer.BuildVertices(a.TextItems, a.Width, a.Height)
	if err := a.overlay.SetOverlay(vertices); err != nil {
		a.Logger.Warnf("update overlay: %v", err)
		return
	}
	a.overlayShow = len(vertices) > 0
}

func (a *App) debugText() string {
	c := a.LastResult.Counts
	text := fmt.Sprintf("FPS: %.1f\nLights %d/%d  Materials %d/%d  Primitives %d/%d\n",
		a.FPS,
		c.Lights, a.Layout.MaxLights,
		c.Materials, a.Layout.MaxMaterials,
		c.Primitives, a.Layout.MaxPrimitives)
	if a.LastResult.Overflow.Any() {
		text += fmt.Sprintf("Dropped: %s\n", a.LastResult.Overflow)
	}
	if a.Camera.Paused {
		text += "Orbit paused\n"
	}
	return text + "\n" + a.Profiler.GetStatsString()
}
