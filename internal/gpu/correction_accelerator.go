//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/colorpass"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Accelerator runs the correction pass on a GPU. It implements
// colorpass.Accelerator.
//
// Frames are serialized: one frame is in flight at a time and the pipeline
// resources are reused across frames.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipeline *CorrectionPipeline

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var (
	_ colorpass.Accelerator         = (*Accelerator)(nil)
	_ colorpass.DeviceProviderAware = (*Accelerator)(nil)
)

// Name returns the accelerator name.
func (a *Accelerator) Name() string { return "wgpu" }

// SetLogger sets the logger for the GPU backend.
// Called by colorpass.SetLogger to propagate logging configuration.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init opens a Vulkan device. A machine without a usable GPU is not an
// error: the accelerator stays registered and declines every frame.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		slogger().Warn("gpu: init failed, frames run on CPU", "err", err)
		a.releaseLocked()
	}
	return nil
}

// Ready reports whether a device and pipeline are available.
func (a *Accelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// CanAccelerate reports whether s can run on the GPU. Only nearest
// sampling has a shader implementation.
func (a *Accelerator) CanAccelerate(s colorpass.Snapshot) bool {
	if s.Interpolation != colorpass.InterpolationNearest {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Apply runs the correction pass for one frame.
func (a *Accelerator) Apply(dst, src *colorpass.Frame, s colorpass.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return colorpass.ErrFallbackToCPU
	}
	if s.Interpolation != colorpass.InterpolationNearest {
		return colorpass.ErrFallbackToCPU
	}

	lut := s.LUT
	if s.Params.Mode != colorpass.ModeLUT {
		lut = nil
	}
	if err := a.pipeline.EnsureLUT(lut, s.Format); err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	if err := a.pipeline.Render(dst, src, s.Params); err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	return nil
}

// Close releases GPU resources. Shared devices are left to their owner.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

func (a *Accelerator) releaseLocked() {
	if a.pipeline != nil {
		a.pipeline.Destroy()
		a.pipeline = nil
	}
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device from an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.useDeviceLocked(device, queue, true)
}

// useDeviceLocked drops current resources and builds the pipeline on device.
func (a *Accelerator) useDeviceLocked(device hal.Device, queue hal.Queue, external bool) error {
	a.releaseLocked()
	a.device = device
	a.queue = queue
	a.externalDevice = external

	pipeline, err := NewCorrectionPipeline(device, queue)
	if err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu: create pipeline: %w", err)
	}
	a.pipeline = pipeline
	a.gpuReady = true
	if external {
		slogger().Info("gpu: switched to shared GPU device")
	}
	return nil
}

func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}
	if err := a.useDeviceLocked(openDev.Device, openDev.Queue, false); err != nil {
		a.releaseLocked()
		instance.Destroy()
		return err
	}
	a.instance = instance
	slogger().Info("gpu: correction accelerator initialized", "adapter", selected.Info.Name)
	return nil
}
