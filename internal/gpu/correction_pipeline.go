//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/colorpass"
)

// vertexStride is the byte stride of one full-screen vertex (vec2<f32>).
const vertexStride = 8

// targetFormat is the format of the frame, render target and readback.
// Frames stay float32 end to end, as on the CPU executor.
const targetFormat = gputypes.TextureFormatRGBA32Float

const (
	// defaultWaitTimeout bounds the wait for one frame.
	defaultWaitTimeout = 5 * time.Second
	pollInterval       = 100 * time.Microsecond
)

// errGPUTimeout is returned when a submitted frame does not complete in time.
var errGPUTimeout = errors.New("gpu: frame did not complete in time")

// CorrectionPipeline owns every GPU object of the correction pass: the
// render pipeline, the frame/target textures, the LUT array and the uniform
// and vertex buffers.
//
// Not safe for concurrent use; the accelerator serializes frames.
type CorrectionPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	vertexBuf  hal.Buffer
	uniformBuf hal.Buffer

	frame  frameTextures
	lut    lutTexture
	staged []byte

	waitTimeout time.Duration

	// bindGroup references the current frame and LUT views; rebuilt when
	// either is recreated.
	bindGroup hal.BindGroup
}

// frameTextures are the size-dependent resources.
type frameTextures struct {
	width, height uint32

	inputTex  hal.Texture
	inputView hal.TextureView

	targetTex  hal.Texture
	targetView hal.TextureView
}

// lutTexture is the 3-layer LUT array and the LUT it was uploaded from.
type lutTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	source *colorpass.LUT
	format colorpass.LUTFormat
	width  uint32
	height uint32
}

// NewCorrectionPipeline creates the pipeline objects on device. Textures are
// created lazily by the first frame.
func NewCorrectionPipeline(device hal.Device, queue hal.Queue) (*CorrectionPipeline, error) {
	p := &CorrectionPipeline{device: device, queue: queue, waitTimeout: defaultWaitTimeout}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createBuffers(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *CorrectionPipeline) createPipeline() error {
	if _, err := CompileSPIRV(correctShaderSource); err != nil {
		return fmt.Errorf("validate correct shader: %w", err)
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "correct_shader",
		Source: hal.ShaderSource{WGSL: correctShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile correct shader: %w", err)
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: frame texture (texture_2d, fragment)
	//   Binding 1: CorrectionParams (uniform buffer, fragment)
	//   Binding 2: LUT array (texture_2d_array, fragment)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "correct_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create correct bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "correct_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create correct pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// No blending: the pass replaces the target.
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "correct_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    fullscreenVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create correct pipeline: %w", err)
	}
	p.pipeline = pipeline

	slogger().Debug("correct pipeline created")
	return nil
}

func (p *CorrectionPipeline) createBuffers() error {
	verts := vertexData()
	vertexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "correct_vertices",
		Size:  uint64(len(verts)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	p.vertexBuf = vertexBuf
	if err := p.queue.WriteBuffer(vertexBuf, 0, verts); err != nil {
		return fmt.Errorf("write vertex buffer: %w", err)
	}

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "correct_params",
		Size:  colorpass.ParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	p.uniformBuf = uniformBuf
	return nil
}

// fullscreenVertexLayout returns the vertex buffer layout: one vec2<f32>
// position at location 0.
func fullscreenVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// EnsureFrameTextures creates or recreates the input and target textures if
// the requested dimensions differ from the current ones.
func (p *CorrectionPipeline) EnsureFrameTextures(w, h uint32) error {
	ft := &p.frame
	if ft.width == w && ft.height == h && ft.inputTex != nil {
		return nil
	}
	p.destroyFrameTextures()
	p.destroyBindGroup()

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	inputTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "correct_input",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create input texture: %w", err)
	}
	ft.inputTex = inputTex

	inputView, err := p.device.CreateTextureView(inputTex, &hal.TextureViewDescriptor{
		Label: "correct_input_view",
	})
	if err != nil {
		p.destroyFrameTextures()
		return fmt.Errorf("create input view: %w", err)
	}
	ft.inputView = inputView

	targetTex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "correct_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		p.destroyFrameTextures()
		return fmt.Errorf("create target texture: %w", err)
	}
	ft.targetTex = targetTex

	targetView, err := p.device.CreateTextureView(targetTex, &hal.TextureViewDescriptor{
		Label: "correct_target_view",
	})
	if err != nil {
		p.destroyFrameTextures()
		return fmt.Errorf("create target view: %w", err)
	}
	ft.targetView = targetView

	ft.width = w
	ft.height = h
	slogger().Debug("correct frame textures created", "width", w, "height", h)
	return nil
}

// EnsureLUT uploads lut as a 3-layer array texture in the given format.
// Nothing happens if the same LUT is already resident. A new LUT always
// replaces the whole array.
func (p *CorrectionPipeline) EnsureLUT(lut *colorpass.LUT, format colorpass.LUTFormat) error {
	if lut == nil {
		// Non-LUT modes never read the array but the binding must be valid.
		if p.lut.tex != nil {
			return nil
		}
		placeholder, err := colorpass.NewIdentityLUT(2, 1)
		if err != nil {
			return err
		}
		lut = placeholder
	}
	if p.lut.source == lut && p.lut.format == format && p.lut.tex != nil {
		return nil
	}
	p.destroyLUT()
	p.destroyBindGroup()

	//nolint:gosec // G115: LUT dimensions are positive ints validated at construction
	w, h := uint32(lut.Width()), uint32(lut.Height())
	texFormat := gputypes.TextureFormatR8Unorm
	if format == colorpass.LUTFormatR16F {
		texFormat = gputypes.TextureFormatR16Float
	}

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "correct_lut",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: colorpass.NumChannels},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        texFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create LUT texture: %w", err)
	}
	p.lut.tex = tex

	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "correct_lut_view",
		Format:          texFormat,
		Dimension:       gputypes.TextureViewDimension2DArray,
		ArrayLayerCount: colorpass.NumChannels,
	})
	if err != nil {
		p.destroyLUT()
		return fmt.Errorf("create LUT view: %w", err)
	}
	p.lut.view = view

	data := format.Pack(lut)
	//nolint:gosec // G115: texel size is 1 or 2
	bytesPerRow := w * uint32(format.TexelSize())
	err = p.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: colorpass.NumChannels},
	)
	if err != nil {
		p.destroyLUT()
		return fmt.Errorf("upload LUT: %w", err)
	}

	p.lut.source = lut
	p.lut.format = format
	p.lut.width = w
	p.lut.height = h
	slogger().Debug("correct LUT uploaded", "width", w, "height", h, "format", format, "bytes", len(data))
	return nil
}

func (p *CorrectionPipeline) ensureBindGroup() error {
	if p.bindGroup != nil {
		return nil
	}
	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "correct_bind_group",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: p.frame.inputView.NativeHandle()}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: colorpass.ParamsSize,
			}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: p.lut.view.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create correct bind group: %w", err)
	}
	p.bindGroup = bindGroup
	return nil
}

// Render runs the pass for one frame: src is uploaded, drawn with params,
// and the result is read back into dst. dst and src must have equal size.
func (p *CorrectionPipeline) Render(dst, src *colorpass.Frame, params colorpass.Params) error {
	//nolint:gosec // G115: frame dimensions are non-negative
	w, h := uint32(src.Width), uint32(src.Height)
	if w == 0 || h == 0 {
		return nil
	}
	if err := p.EnsureFrameTextures(w, h); err != nil {
		return err
	}
	if err := p.ensureBindGroup(); err != nil {
		return err
	}

	p.staged = packFrame(src, p.staged)
	err := p.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: p.frame.inputTex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		p.staged,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * frameTexelSize, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	if err := p.queue.WriteBuffer(p.uniformBuf, 0, params.Bytes()); err != nil {
		return fmt.Errorf("write params: %w", err)
	}

	readback, bytesPerRow, err := p.encodeSubmitReadback(w, h)
	if err != nil {
		return err
	}
	unpackFrame(readback, bytesPerRow, dst)
	return nil
}

// encodeSubmitReadback records the correction render pass and the copy of
// the target into a staging buffer, submits, waits and returns the
// row-padded texels.
func (p *CorrectionPipeline) encodeSubmitReadback(w, h uint32) ([]byte, uint32, error) {
	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "correct_encoder",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("correct_frame"); err != nil {
		return nil, 0, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "correct_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       p.frame.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	p.recordDraw(rp)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.frame.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := alignedBytesPerRow(w)
	stagingSize := uint64(bytesPerRow) * uint64(h)
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "correct_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, 0, fmt.Errorf("create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(p.frame.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: p.frame.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	// Back to RenderAttachment so the next frame's pass starts from the
	// usage it expects.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.frame.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, 0, fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	submission, err := p.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, 0, fmt.Errorf("submit: %w", err)
	}
	if err := p.waitSubmission(submission); err != nil {
		return nil, 0, err
	}

	mapping, err := p.device.MapBuffer(stagingBuf, 0, stagingSize)
	if err != nil {
		return nil, 0, fmt.Errorf("map staging buffer: %w", err)
	}
	readback := make([]byte, stagingSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), stagingSize))
	if err := p.device.UnmapBuffer(stagingBuf); err != nil {
		return nil, 0, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return readback, bytesPerRow, nil
}

// waitSubmission polls the queue until submission has completed or the
// wait timeout expires.
func (p *CorrectionPipeline) waitSubmission(submission uint64) error {
	deadline := time.Now().Add(p.waitTimeout)
	for p.queue.PollCompleted() < submission {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w (submission %d, %v)", errGPUTimeout, submission, p.waitTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// recordDraw records the full-screen draw into rp.
func (p *CorrectionPipeline) recordDraw(rp hal.RenderPassEncoder) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertexBuf, 0)
	rp.Draw(uint32(colorpass.FullscreenVertexCount), 1, 0, 0)
}

// Destroy releases all GPU resources. Safe to call multiple times.
func (p *CorrectionPipeline) Destroy() {
	if p.device == nil {
		return
	}
	p.destroyBindGroup()
	p.destroyLUT()
	p.destroyFrameTextures()
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.vertexBuf != nil {
		p.device.DestroyBuffer(p.vertexBuf)
		p.vertexBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

func (p *CorrectionPipeline) destroyBindGroup() {
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
}

func (p *CorrectionPipeline) destroyLUT() {
	if p.lut.view != nil {
		p.device.DestroyTextureView(p.lut.view)
	}
	if p.lut.tex != nil {
		p.device.DestroyTexture(p.lut.tex)
	}
	p.lut = lutTexture{}
}

func (p *CorrectionPipeline) destroyFrameTextures() {
	ft := &p.frame
	if ft.targetView != nil {
		p.device.DestroyTextureView(ft.targetView)
	}
	if ft.targetTex != nil {
		p.device.DestroyTexture(ft.targetTex)
	}
	if ft.inputView != nil {
		p.device.DestroyTextureView(ft.inputView)
	}
	if ft.inputTex != nil {
		p.device.DestroyTexture(ft.inputTex)
	}
	*ft = frameTextures{}
}
