package gpu

import (
	"fmt"
	"image"
	"sort"
	"unsafe"

	"github.com/gekko3d/quadrt/rt/core"
	"github.com/gekko3d/quadrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type program struct {
	pipeline  *wgpu.RenderPipeline
	blocks    map[string]uint32
	frameBuf  *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	bindGen   uint64
}

// WGPUDevice implements Device on top of a WebGPU surface owned by a GLFW
// window. Uniform block bindings live in bind group 0.
type WGPUDevice struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration
	Sampler  *wgpu.Sampler

	Logger core.Logger

	programs map[ProgramHandle]*program
	buffers  map[BufferHandle]*wgpu.Buffer
	bindings map[uint32]BufferHandle
	nextProg ProgramHandle
	nextBuf  BufferHandle
	// bumped whenever a binding changes so cached bind groups get rebuilt
	bindGen uint64

	TextPipeline     *wgpu.RenderPipeline
	TextAtlasView    *wgpu.TextureView
	TextBindGroup    *wgpu.BindGroup
	TextVertexBuffer *wgpu.Buffer
	TextVertexCount  uint32
}

func NewWGPUDevice(window *glfw.Window, logger core.Logger) (*WGPUDevice, error) {
	d := &WGPUDevice{
		Logger:   core.LoggerOrNop(logger),
		programs: make(map[ProgramHandle]*program),
		buffers:  make(map[BufferHandle]*wgpu.Buffer),
		bindings: make(map[uint32]BufferHandle),
	}

	d.Instance = wgpu.CreateInstance(nil)
	d.Surface = d.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := d.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	d.Adapter = adapter

	d.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.Queue = d.Device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := d.Surface.GetCapabilities(adapter)
	d.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	d.Surface.Configure(adapter, d.Device, d.Config)

	d.Sampler, err = d.Device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	return d, nil
}

func (d *WGPUDevice) Configure(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.Config.Width = uint32(width)
	d.Config.Height = uint32(height)
	d.Surface.Configure(d.Adapter, d.Device, d.Config)
}

func (d *WGPUDevice) CompileProgram(vertexSrc, fragmentSrc string) (ProgramHandle, error) {
	vsModule, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen Quad VS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexSrc},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: vertex: %v", ErrCompile, err)
	}
	defer vsModule.Release()

	fsModule, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Raytrace FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentSrc},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: fragment: %v", ErrCompile, err)
	}
	defer fsModule.Release()

	pipeline, err := d.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Raytrace Pipeline",
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    d.Config.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: pipeline: %v", ErrCompile, err)
	}

	frameBuf, err := d.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "FrameUB",
		Size:  FrameUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pipeline.Release()
		return 0, fmt.Errorf("create frame buffer: %w", err)
	}

	d.nextProg++
	d.programs[d.nextProg] = &program{
		pipeline: pipeline,
		blocks:   make(map[string]uint32),
		frameBuf: frameBuf,
	}
	return d.nextProg, nil
}

func (d *WGPUDevice) CreateBuffer(label string, size int) (BufferHandle, error) {
	buf, err := d.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, err
	}
	d.nextBuf++
	d.buffers[d.nextBuf] = buf
	return d.nextBuf, nil
}

func (d *WGPUDevice) Upload(handle BufferHandle, data []byte) error {
	buf, ok := d.buffers[handle]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknown, handle)
	}
	if uint64(len(data)) > buf.GetSize() {
		return fmt.Errorf("upload of %d bytes overruns %d byte buffer", len(data), buf.GetSize())
	}
	if err := d.Queue.WriteBuffer(buf, 0, data); err != nil {
		return fmt.Errorf("write buffer %d: %w", handle, err)
	}
	return nil
}

func (d *WGPUDevice) BindUniformBlock(prog ProgramHandle, name string, index uint32) error {
	p, ok := d.programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknown, prog)
	}
	p.blocks[name] = index
	d.bindGen++
	return nil
}

func (d *WGPUDevice) BindBuffer(index uint32, buf BufferHandle) error {
	if _, ok := d.buffers[buf]; !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknown, buf)
	}
	d.bindings[index] = buf
	d.bindGen++
	return nil
}

// SetUniforms writes the frame block of prog. The frame buffer is owned by
// the program, so FrameData needs no BindBuffer call.
func (d *WGPUDevice) SetUniforms(prog ProgramHandle, u FrameUniforms) error {
	p, ok := d.programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknown, prog)
	}
	if err := d.Queue.WriteBuffer(p.frameBuf, 0, u.Marshal()); err != nil {
		return fmt.Errorf("write %s block: %w", FrameBlockName, err)
	}
	return nil
}

func (d *WGPUDevice) bindGroupFor(p *program) (*wgpu.BindGroup, error) {
	if p.bindGroup != nil && p.bindGen == d.bindGen {
		return p.bindGroup, nil
	}

	names := make([]string, 0, len(p.blocks))
	for name := range p.blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]wgpu.BindGroupEntry, 0, len(names))
	for _, name := range names {
		index := p.blocks[name]
		buf := p.frameBuf
		if name != FrameBlockName {
			handle, ok := d.bindings[index]
			if !ok {
				return nil, fmt.Errorf("%w: %s at index %d", ErrUnboundBlock, name, index)
			}
			buf = d.buffers[handle]
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: index,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	bg, err := d.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Scene Bind Group",
		Layout:  p.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.bindGen = d.bindGen
	return bg, nil
}

func (d *WGPUDevice) DrawFullscreenQuad(prog ProgramHandle) error {
	p, ok := d.programs[prog]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknown, prog)
	}
	bg, err := d.bindGroupFor(p)
	if err != nil {
		return err
	}

	nextTexture, err := d.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	defer view.Release()

	encoder, err := d.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})
	rPass.SetPipeline(p.pipeline)
	rPass.SetBindGroup(0, bg, nil)
	rPass.Draw(6, 1, 0, 0)

	if d.TextVertexCount > 0 && d.TextVertexBuffer != nil && d.TextPipeline != nil {
		rPass.SetPipeline(d.TextPipeline)
		rPass.SetBindGroup(0, d.TextBindGroup, nil)
		rPass.SetVertexBuffer(0, d.TextVertexBuffer, 0, d.TextVertexBuffer.GetSize())
		rPass.Draw(d.TextVertexCount, 1, 0, 0)
	}

	if err := rPass.End(); err != nil {
		return fmt.Errorf("render pass end: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder finish: %w", err)
	}
	d.Queue.Submit(cmd)
	d.Surface.Present()
	return nil
}

// SetOverlayAtlas uploads the glyph atlas and builds the text pipeline.
func (d *WGPUDevice) SetOverlayAtlas(atlas *image.Alpha) error {
	w, h := atlas.Bounds().Dx(), atlas.Bounds().Dy()
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("create atlas texture: %w", err)
	}
	err = d.Queue.WriteTexture(tex.AsImageCopy(), atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(atlas.Stride),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})
	if err != nil {
		tex.Release()
		return fmt.Errorf("write atlas texture: %w", err)
	}

	d.TextAtlasView, err = tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create atlas view: %w", err)
	}

	textMod, err := d.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("%w: text: %v", ErrCompile, err)
	}
	defer textMod.Release()

	d.TextPipeline, err = d.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     textMod,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(core.TextVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     textMod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: d.Config.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline: %w", err)
	}

	d.TextBindGroup, err = d.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: d.TextPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: d.TextAtlasView},
			{Binding: 1, Sampler: d.Sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create text bind group: %w", err)
	}
	return nil
}

// SetOverlay replaces the overlay geometry drawn after the next quad. An
// empty slice hides the overlay.
func (d *WGPUDevice) SetOverlay(vertices []core.TextVertex) error {
	if len(vertices) == 0 {
		d.TextVertexCount = 0
		return nil
	}

	vSize := uint64(len(vertices) * int(unsafe.Sizeof(core.TextVertex{})))
	if d.TextVertexBuffer == nil || d.TextVertexBuffer.GetSize() < vSize {
		if d.TextVertexBuffer != nil {
			d.TextVertexBuffer.Release()
		}
		buf, err := d.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Text VB",
			Size:  vSize,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			d.TextVertexBuffer = nil
			d.TextVertexCount = 0
			return fmt.Errorf("create text vertex buffer: %w", err)
		}
		d.TextVertexBuffer = buf
	}
	if err := d.Queue.WriteBuffer(d.TextVertexBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), vSize)); err != nil {
		d.TextVertexCount = 0
		return fmt.Errorf("write text vertices: %w", err)
	}
	d.TextVertexCount = uint32(len(vertices))
	return nil
}

func (d *WGPUDevice) Release() {
	for _, p := range d.programs {
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		p.frameBuf.Release()
		p.pipeline.Release()
	}
	for _, b := range d.buffers {
		b.Release()
	}
	if d.TextVertexBuffer != nil {
		d.TextVertexBuffer.Release()
	}
	if d.Sampler != nil {
		d.Sampler.Release()
	}
	if d.Surface != nil {
		d.Surface.Release()
	}
	if d.Device != nil {
		d.Device.Release()
	}
	if d.Adapter != nil {
		d.Adapter.Release()
	}
	if d.Instance != nil {
		d.Instance.Release()
	}
}
