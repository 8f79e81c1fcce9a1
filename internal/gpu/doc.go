//go:build !nogpu

// Package gpu runs the display correction pass on a GPU through gogpu/wgpu.
//
// This is an internal package; it is registered as a colorpass.Accelerator
// by the public github.com/gogpu/colorpass/gpu package.
//
// # Pipeline
//
// One render pipeline built from the embedded WGSL shader correct.wgsl:
//
//	binding 0: texture_2d<f32>        frame (Rgba32Float, straight alpha)
//	binding 1: uniform                {mode, lut_width, lut_height, pad}
//	binding 2: texture_2d_array<f32>  LUT, 3 layers (R8Unorm or R16Float)
//
// The pass draws six vertices forming two triangles over the whole target.
// The fragment shader reads its frame texel with textureLoad, so no sampler
// and no filtering is involved.
//
// # Frame
//
//  1. Upload the float32 frame into the input texture
//  2. Write the parameter snapshot into the uniform buffer
//  3. Upload the LUT array if the snapshot holds a different LUT
//  4. Render pass: draw 6 vertices into an Rgba32Float target
//  5. Copy the target into a staging buffer, wait for the submission, map
//     and read it back
//
// Textures are recreated when the frame size changes.
package gpu
