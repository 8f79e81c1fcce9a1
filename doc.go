// Package colorpass implements the final display-composition stage of a
// renderer: a full-screen pass that premultiplies a straight-alpha, linearly
// encoded frame and optionally remaps every channel through a measured
// calibration lookup table before the frame is presented.
//
// # Overview
//
// Every output pixel is a pure function of its own input pixel and of a
// per-frame snapshot (mode, LUT dimensions, LUT):
//
//	rgb_pm = rgb * a
//	mode == ModeLUT:  out = (lut_r(rgb_pm.r), lut_g(rgb_pm.g), lut_b(rgb_pm.b), a)
//	otherwise:        out = (rgb_pm, a)
//
// A LUT holds three curves of N = width*height samples laid out row-major in
// a width x height grid. A channel value v reads sample
// round(v*(N-1)), clamped to [0, N-1].
//
// # Quick Start
//
//	lut, _ := colorpass.NewSRGBLUT(256, 256)
//
//	p := colorpass.NewPass()
//	defer p.Close()
//	if err := p.Configure(colorpass.ParamsForLUT(lut), lut); err != nil {
//	    log.Fatal(err)
//	}
//
//	dst := colorpass.NewFrame(src.Width, src.Height)
//	if err := p.Run(ctx, dst, src); err != nil {
//	    log.Fatal(err)
//	}
//
// Configure stores the LUT at the precision the GPU samples it with
// (8-bit unorm by default, see WithLUTFormat), so both executors read the
// same values.
//
// # Executors
//
// Frames run on the CPU worker pool by default. Importing the gpu package
// registers a wgpu accelerator that runs the same transform as a WGSL
// fragment shader over a six-vertex full-screen triangle list:
//
//	import _ "github.com/gogpu/colorpass/gpu"
//
// If the accelerator is unavailable or declines a frame, the CPU executor
// produces it instead.
//
// # Errors
//
// Configuration problems (LUT missing, fewer than two samples, dimension
// mismatch) are reported by Configure and never reach the per-pixel path.
// Unknown mode values are not errors: they behave like ModeNone.
package colorpass
