package colorpass

// Option configures a Pass during creation.
//
// Example:
//
//	// CPU only, 4 workers, linear LUT interpolation
//	p := colorpass.NewPass(
//	    colorpass.WithWorkers(4),
//	    colorpass.WithInterpolation(colorpass.InterpolationLinear),
//	    colorpass.WithCPUOnly(),
//	)
type Option func(*passOptions)

type passOptions struct {
	workers        int
	interpolation  Interpolation
	cpuOnly        bool
	lutFormat      LUTFormat
	bandsPerWorker int
}

func defaultOptions() passOptions {
	return passOptions{
		workers:        0, // GOMAXPROCS
		interpolation:  InterpolationNearest,
		lutFormat:      LUTFormatR8,
		bandsPerWorker: 4,
	}
}

// WithWorkers sets the number of CPU worker goroutines. Zero or negative
// selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *passOptions) {
		o.workers = n
	}
}

// WithInterpolation selects the LUT sampling policy. The default is
// InterpolationNearest. Linear interpolation always runs on the CPU.
func WithInterpolation(i Interpolation) Option {
	return func(o *passOptions) {
		o.interpolation = i
	}
}

// WithCPUOnly disables the registered accelerator for this pass.
func WithCPUOnly() Option {
	return func(o *passOptions) {
		o.cpuOnly = true
	}
}

// WithLUTFormat sets the texel format LUTs are stored in. Configure rounds
// every LUT to this precision so all executors read identical samples.
// The default is LUTFormatR8.
func WithLUTFormat(f LUTFormat) Option {
	return func(o *passOptions) {
		o.lutFormat = f
	}
}
