//go:build !nogpu

// Package gpu registers the GPU executor of the display correction pass.
//
// Import this package to run colorpass frames on the GPU. The accelerator
// renders a full-screen pass with wgpu/hal and reads the result back.
//
// If GPU initialization fails (no Vulkan available), frames silently run on
// the CPU executor. Frames travel as float32 textures, so results are the
// same either way.
//
// Usage:
//
//	import _ "github.com/gogpu/colorpass/gpu" // enable GPU execution
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/colorpass"
	gpuimpl "github.com/gogpu/colorpass/internal/gpu"
)

func init() {
	if err := colorpass.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		colorpass.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., a gogpu window). This avoids creating a
// separate GPU instance.
//
// The provider must also implement gpucontext.HalProvider for direct HAL
// access; otherwise an error is returned and the accelerator keeps its own
// device.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return colorpass.SetAcceleratorDeviceProvider(provider)
}
