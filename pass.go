package colorpass

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/colorpass/internal/parallel"
)

// Pass is the full-screen correction pass. It owns the current snapshot
// (parameters, LUT, sampling policy) and the CPU worker pool.
//
// Configure may be called at any time from any goroutine. Run loads the
// snapshot exactly once before dispatching a frame, so a frame is never
// processed with a mix of old and new parameters.
type Pass struct {
	opts  passOptions
	state atomic.Pointer[Snapshot]
	pool  *parallel.Pool
}

// NewPass creates a pass in ModeNone (premultiply only).
func NewPass(opts ...Option) *Pass {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pass{
		opts: o,
		pool: parallel.NewPool(o.workers),
	}
	p.state.Store(&Snapshot{
		Params:        Params{Mode: ModeNone},
		Format:        o.lutFormat,
		Interpolation: o.interpolation,
	})
	return p
}

// Configure validates params against lut and makes them the snapshot for
// subsequent frames. Frames already running keep their snapshot. On error
// the previous configuration stays in effect.
//
// The pass keeps its own copy of lut rounded to the pass LUT format; later
// changes to lut do not affect the pass.
func (p *Pass) Configure(params Params, lut *LUT) error {
	if err := params.Validate(lut); err != nil {
		return fmt.Errorf("configure pass: %w", err)
	}
	if lut != nil {
		lut = p.opts.lutFormat.Quantize(lut)
	}
	s := &Snapshot{
		Params:        params,
		LUT:           lut,
		Format:        p.opts.lutFormat,
		Interpolation: p.opts.interpolation,
	}
	p.state.Store(s)
	Logger().Debug("colorpass: configured",
		"mode", params.Mode, "lut_width", params.LUTWidth, "lut_height", params.LUTHeight)
	return nil
}

// Snapshot returns the configuration the next frame will use.
func (p *Pass) Snapshot() Snapshot {
	return *p.state.Load()
}

// Run corrects src into dst. Both frames must have the same size.
//
// The context is checked once before dispatch: a frame either runs to
// completion or not at all.
func (p *Pass) Run(ctx context.Context, dst, src *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !dst.SameSize(src) {
		return fmt.Errorf("%w: dst %dx%d, src %dx%d",
			ErrFrameSize, dst.Width, dst.Height, src.Width, src.Height)
	}
	if len(src.Pix) < src.Width*src.Height*4 || len(dst.Pix) < dst.Width*dst.Height*4 {
		return fmt.Errorf("%w: pixel buffer shorter than %dx%d", ErrFrameSize, src.Width, src.Height)
	}

	s := *p.state.Load()
	k, err := NewKernel(s)
	if err != nil {
		return err
	}

	if !p.opts.cpuOnly && p.runAccelerated(dst, src, s) {
		return nil
	}
	p.runCPU(dst, src, k)
	return nil
}

// runAccelerated offers the frame to the registered accelerator and reports
// whether it was handled.
func (p *Pass) runAccelerated(dst, src *Frame, s Snapshot) bool {
	a := RegisteredAccelerator()
	if a == nil || !a.CanAccelerate(s) {
		return false
	}
	err := a.Apply(dst, src, s)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrFallbackToCPU) {
		Logger().Warn("colorpass: accelerator failed, using CPU", "accelerator", a.Name(), "err", err)
	}
	return false
}

// runCPU maps the kernel over row bands. Bands write disjoint rows of dst
// and only read src, so they need no synchronization.
func (p *Pass) runCPU(dst, src *Frame, k Kernel) {
	bands := parallel.Bands(src.Height, p.pool.Workers()*p.opts.bandsPerWorker)
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() {
			for y := b.Y0; y < b.Y1; y++ {
				correctRow(dst.Row(y), src.Row(y), k)
			}
		}
	}
	p.pool.Run(work)
}

func correctRow(dst, src []float32, k Kernel) {
	for i := 0; i+3 < len(src); i += 4 {
		c := k.Apply(RGBA{R: src[i], G: src[i+1], B: src[i+2], A: src[i+3]})
		dst[i], dst[i+1], dst[i+2], dst[i+3] = c.R, c.G, c.B, c.A
	}
}

// CorrectImage loads img as a frame with the given source encoding, runs
// the pass and returns the premultiplied result.
func (p *Pass) CorrectImage(ctx context.Context, img image.Image, enc Encoding) (*Frame, error) {
	src := FrameFromImage(img, enc)
	dst := NewFrame(src.Width, src.Height)
	if err := p.Run(ctx, dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Close stops the worker pool. The pass must not be used afterwards.
func (p *Pass) Close() {
	p.pool.Close()
}
