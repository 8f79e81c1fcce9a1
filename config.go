package colorpass

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	// LUT files may be stored in any of these formats.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gopkg.in/yaml.v3"
)

// Config is the file form of a pass configuration.
//
//	correction: lut
//	input_encoding: linear
//	interpolation: nearest
//	workers: 0
//	gpu: true
//	lut:
//	  path: calib.png
//	  width: 256
//	  height: 256
//	  format: r8
type Config struct {
	Correction    CorrectionMode `yaml:"correction"`
	InputEncoding Encoding       `yaml:"input_encoding"`
	Interpolation Interpolation  `yaml:"interpolation"`
	Workers       int            `yaml:"workers"`
	GPU           bool           `yaml:"gpu"`
	LUT           LUTConfig      `yaml:"lut"`

	// dir resolves relative LUT paths; set by LoadConfig.
	dir string
}

// LUTConfig describes where the calibration LUT comes from.
type LUTConfig struct {
	// Path to an interleaved RGB LUT image. Empty selects the sRGB curve.
	Path   string    `yaml:"path,omitempty"`
	Width  int       `yaml:"width"`
	Height int       `yaml:"height"`
	Format LUTFormat `yaml:"format"`
}

// DefaultConfig matches the behavior of a display with no calibration:
// sRGB encoding through the default 256x256 LUT, on the GPU when available.
func DefaultConfig() Config {
	return Config{
		Correction:    ModeLUT,
		InputEncoding: EncodingLinear,
		Interpolation: InterpolationNearest,
		GPU:           true,
		LUT: LUTConfig{
			Width:  DefaultLUTSize,
			Height: DefaultLUTSize,
			Format: LUTFormatR8,
		},
	}
}

// LoadConfig reads a YAML configuration file. Fields missing from the file
// keep their DefaultConfig values. Relative LUT paths are resolved against
// the directory of the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// ParseConfig decodes YAML configuration data over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Options returns the pass options selected by the configuration.
func (c Config) Options() []Option {
	opts := []Option{
		WithWorkers(c.Workers),
		WithInterpolation(c.Interpolation),
		WithLUTFormat(c.LUT.Format),
	}
	if !c.GPU {
		opts = append(opts, WithCPUOnly())
	}
	return opts
}

// Build resolves the configuration into pass parameters and a LUT.
//
// In LUT mode the LUT is loaded from LUT.Path, or the sRGB curve is built
// when no path is given. The LUT is quantized to LUT.Format so the CPU
// executor reads exactly the values the GPU texture holds. Outside LUT
// mode no LUT is built and nil is returned.
func (c Config) Build() (Params, *LUT, error) {
	if c.Correction != ModeLUT {
		return Params{Mode: c.Correction}, nil, nil
	}

	var (
		lut *LUT
		err error
	)
	if c.LUT.Path == "" {
		lut, err = NewSRGBLUT(c.LUT.Width, c.LUT.Height)
	} else {
		lut, err = c.loadLUT()
	}
	if err != nil {
		return Params{}, nil, err
	}

	lut = c.LUT.Format.Quantize(lut)
	params := ParamsForLUT(lut)
	if err := params.Validate(lut); err != nil {
		return Params{}, nil, err
	}
	return params, lut, nil
}

func (c Config) loadLUT() (*LUT, error) {
	path := c.LUT.Path
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open LUT: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidLUT, path, err)
	}
	if c.LUT.Width > 0 && c.LUT.Height > 0 {
		if err := CheckLUTImageSize(img, c.LUT.Width, c.LUT.Height); err != nil {
			return nil, err
		}
	}
	return LUTFromImage(img)
}
