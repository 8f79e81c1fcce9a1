//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/colorpass"
)

// createNoopDevice creates a noop device for tests that need a real
// hal.Device without GPU hardware.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func TestCorrectShaderCompiles(t *testing.T) {
	words, err := CompileSPIRV(CorrectShaderSource())
	if err != nil {
		t.Fatalf("CompileSPIRV: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("empty SPIR-V")
	}
	// SPIR-V magic number.
	if words[0] != 0x07230203 {
		t.Errorf("magic = %#x, want 0x07230203", words[0])
	}
}

func TestCompileSPIRVEmpty(t *testing.T) {
	if _, err := CompileSPIRV(""); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestCorrectionPipelineCreation(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatalf("NewCorrectionPipeline: %v", err)
	}
	defer p.Destroy()

	if p.shader == nil || p.bindLayout == nil || p.pipeLayout == nil || p.pipeline == nil {
		t.Error("pipeline objects not created")
	}
	if p.vertexBuf == nil || p.uniformBuf == nil {
		t.Error("buffers not created")
	}
	if p.frame.width != 0 || p.frame.height != 0 {
		t.Errorf("frame size before first frame = %dx%d, want 0x0", p.frame.width, p.frame.height)
	}
}

func TestCorrectionPipelineFrameTextures(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	if err := p.EnsureFrameTextures(640, 480); err != nil {
		t.Fatalf("EnsureFrameTextures: %v", err)
	}
	input, target := p.frame.inputTex, p.frame.targetTex
	if input == nil || target == nil || p.frame.inputView == nil || p.frame.targetView == nil {
		t.Fatal("frame textures not created")
	}

	// Same size: no recreation.
	if err := p.EnsureFrameTextures(640, 480); err != nil {
		t.Fatal(err)
	}
	if p.frame.inputTex != input || p.frame.targetTex != target {
		t.Error("textures recreated for unchanged size")
	}

	if err := p.EnsureFrameTextures(1920, 1080); err != nil {
		t.Fatal(err)
	}
	if p.frame.width != 1920 || p.frame.height != 1080 {
		t.Errorf("frame size after resize = %dx%d, want 1920x1080", p.frame.width, p.frame.height)
	}
}

func TestCorrectionPipelineLUTUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	lut, err := colorpass.NewSRGBLUT(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureLUT(lut, colorpass.LUTFormatR8); err != nil {
		t.Fatalf("EnsureLUT: %v", err)
	}
	tex := p.lut.tex
	if tex == nil || p.lut.view == nil {
		t.Fatal("LUT texture not created")
	}
	if p.lut.width != 64 || p.lut.height != 64 {
		t.Errorf("LUT texture %dx%d, want 64x64", p.lut.width, p.lut.height)
	}

	// Same LUT and format: kept.
	if err := p.EnsureLUT(lut, colorpass.LUTFormatR8); err != nil {
		t.Fatal(err)
	}
	if p.lut.tex != tex {
		t.Error("LUT re-uploaded without change")
	}

	// Format change replaces the whole array.
	if err := p.EnsureLUT(lut, colorpass.LUTFormatR16F); err != nil {
		t.Fatal(err)
	}
	if p.lut.tex == nil || p.lut.format != colorpass.LUTFormatR16F {
		t.Error("LUT not re-uploaded after format change")
	}

	// Non-LUT modes keep whatever array is bound.
	cur := p.lut.tex
	if err := p.EnsureLUT(nil, colorpass.LUTFormatR8); err != nil {
		t.Fatal(err)
	}
	if p.lut.tex != cur {
		t.Error("nil LUT replaced the bound array")
	}
}

func TestCorrectionPipelinePlaceholderLUT(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	if err := p.EnsureLUT(nil, colorpass.LUTFormatR8); err != nil {
		t.Fatalf("EnsureLUT(nil): %v", err)
	}
	if p.lut.tex == nil || p.lut.width != 2 || p.lut.height != 1 {
		t.Errorf("placeholder LUT = %v %dx%d, want 2x1", p.lut.tex, p.lut.width, p.lut.height)
	}
}

func TestCorrectionPipelineFrameFormat(t *testing.T) {
	if targetFormat != gputypes.TextureFormatRGBA32Float {
		t.Errorf("targetFormat = %v, want RGBA32Float", targetFormat)
	}
	if frameTexelSize != 4*4 {
		t.Errorf("frameTexelSize = %d, want 16", frameTexelSize)
	}
}

func TestCorrectionPipelineRender(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	lut, err := colorpass.NewSRGBLUT(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureLUT(lut, colorpass.LUTFormatR8); err != nil {
		t.Fatal(err)
	}

	src := colorpass.NewFrame(7, 3)
	src.Fill(colorpass.RGBA{R: 0.7, G: 0.9, B: 0.1, A: 0.5})
	dst := colorpass.NewFrame(7, 3)
	if err := p.Render(dst, src, colorpass.ParamsForLUT(lut)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if p.bindGroup == nil {
		t.Error("bind group not created by Render")
	}
	if want := 7 * 3 * 4 * 4; len(p.staged) != want {
		t.Errorf("staged upload = %d bytes, want %d", len(p.staged), want)
	}
}

// stalledQueue never reports a submission as completed.
type stalledQueue struct {
	hal.Queue
}

func (stalledQueue) PollCompleted() uint64 { return 0 }

func TestCorrectionPipelineRenderTimeout(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, stalledQueue{Queue: queue})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	p.waitTimeout = 10 * time.Millisecond

	if err := p.EnsureLUT(nil, colorpass.LUTFormatR8); err != nil {
		t.Fatal(err)
	}
	src := colorpass.NewFrame(2, 2)
	err = p.Render(colorpass.NewFrame(2, 2), src, colorpass.Params{Mode: colorpass.ModeNone})
	if !errors.Is(err, errGPUTimeout) {
		t.Fatalf("Render on a stalled queue = %v, want errGPUTimeout", err)
	}
	if msg := err.Error(); strings.Contains(msg, "%!") {
		t.Errorf("timeout error message %q is malformed", msg)
	}
}

func TestCorrectionPipelineDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureFrameTextures(16, 16); err != nil {
		t.Fatal(err)
	}
	p.Destroy()
	p.Destroy()
	if p.pipeline != nil || p.frame.inputTex != nil || p.lut.tex != nil {
		t.Error("resources left after Destroy")
	}
}

func TestAcceleratorWithoutDevice(t *testing.T) {
	a := &Accelerator{}
	if a.Name() != "wgpu" {
		t.Errorf("Name() = %q", a.Name())
	}
	s := colorpass.Snapshot{Params: colorpass.Params{Mode: colorpass.ModeNone}}
	if a.CanAccelerate(s) {
		t.Error("CanAccelerate without device should be false")
	}
	err := a.Apply(colorpass.NewFrame(1, 1), colorpass.NewFrame(1, 1), s)
	if !errors.Is(err, colorpass.ErrFallbackToCPU) {
		t.Errorf("Apply without device = %v, want ErrFallbackToCPU", err)
	}
	a.Close()
}

type fakeHalProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p fakeHalProvider) HalDevice() any { return p.device }
func (p fakeHalProvider) HalQueue() any  { return p.queue }

func TestAcceleratorSharedDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a := &Accelerator{}
	if err := a.SetDeviceProvider(fakeHalProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	if !a.Ready() {
		t.Fatal("accelerator not ready with shared device")
	}

	nearest := colorpass.Snapshot{Params: colorpass.Params{Mode: colorpass.ModeNone}}
	if !a.CanAccelerate(nearest) {
		t.Error("nearest snapshot should be accelerated")
	}
	linear := nearest
	linear.Interpolation = colorpass.InterpolationLinear
	if a.CanAccelerate(linear) {
		t.Error("linear interpolation must stay on the CPU")
	}

	// Close must not destroy the shared device; cleanup does.
	a.Close()
	if a.Ready() {
		t.Error("Ready after Close")
	}
}

func TestAcceleratorRejectsBadProvider(t *testing.T) {
	a := &Accelerator{}
	if err := a.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("expected error for provider without HAL access")
	}
	if err := a.SetDeviceProvider(fakeHalProvider{}); err == nil {
		t.Error("expected error for nil HAL device")
	}
}
