package colorpass

import (
	"errors"
	"sync"
)

// Accelerator is an optional executor for the correction pass, typically
// backed by a GPU.
//
// When registered via RegisterAccelerator, Pass.Run offers every frame to
// the accelerator first. If the accelerator returns ErrFallbackToCPU or any
// other error, the frame is processed by the CPU executor instead, so an
// accelerator never changes what a frame looks like, only where it runs.
//
// Implementations are provided by backend packages. Users opt in via blank
// import:
//
//	import _ "github.com/gogpu/colorpass/gpu" // enables GPU execution
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu").
	Name() string

	// Init initializes device resources. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// CanAccelerate reports whether the accelerator can run frames with the
	// given snapshot. This is a fast check used to skip the device entirely.
	CanAccelerate(s Snapshot) bool

	// Apply runs the pass for one frame: src is read, dst is fully written.
	// The snapshot has been validated and is immutable for the call.
	Apply(dst, src *Frame, s Snapshot) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a device with an external provider (e.g., a gogpu window) instead of
// creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the accelerator used by all passes.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called during registration, and if it fails the
// accelerator is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("colorpass: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("colorpass: accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator closes and removes the registered accelerator.
// Passes run on the CPU afterwards.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator. If no accelerator is registered or it cannot share devices,
// this is a no-op.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
