// Command lutcorrect applies the display correction pass to an image.
//
//	lutcorrect -in photo.png -out display.png -config display.yaml
//	lutcorrect -in photo.jpg -size 1920x1080 -mode lut -lut calib.png
//	lutcorrect -write-lut srgb.png -lut-size 256x256
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "image/jpeg"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/colorpass"
	_ "github.com/gogpu/colorpass/gpu" // enable GPU execution
)

func main() {
	var (
		in       = flag.String("in", "", "input image")
		out      = flag.String("out", "corrected.png", "output PNG")
		config   = flag.String("config", "", "YAML configuration file")
		mode     = flag.String("mode", "", "correction mode: none or lut (overrides config)")
		lutPath  = flag.String("lut", "", "LUT image (overrides config)")
		srgb     = flag.Bool("srgb", false, "input pixels are sRGB encoded")
		cpu      = flag.Bool("cpu", false, "disable GPU execution")
		opaque   = flag.Bool("opaque", false, "composite the result over black")
		size     = flag.String("size", "", "resize the input to WxH before correction")
		verbose  = flag.Bool("v", false, "verbose logging")
		writeLUT = flag.String("write-lut", "", "write the default sRGB LUT image and exit")
		lutSize  = flag.String("lut-size", "256x256", "LUT dimensions for -write-lut, WxH")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	colorpass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	if *writeLUT != "" {
		err = runWriteLUT(*writeLUT, *lutSize)
	} else {
		err = runCorrect(*in, *out, *config, *mode, *lutPath, *size, *srgb, *cpu, *opaque)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lutcorrect: %v\n", err)
		os.Exit(1)
	}
}

func runWriteLUT(path, size string) error {
	w, h, err := parseSize(size)
	if err != nil {
		return err
	}
	lut, err := colorpass.NewSRGBLUT(w, h)
	if err != nil {
		return err
	}
	if err := savePNG(path, lut.Image()); err != nil {
		return err
	}
	colorpass.Logger().Info("LUT written", "path", path, "width", w, "height", h)
	return nil
}

func runCorrect(in, out, configPath, mode, lutPath, size string, srgb, cpu, opaque bool) error {
	if in == "" {
		return fmt.Errorf("-in is required")
	}

	cfg := colorpass.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = colorpass.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if mode != "" {
		m, err := colorpass.ParseMode(mode)
		if err != nil {
			return err
		}
		cfg.Correction = m
	}
	if lutPath != "" {
		cfg.LUT.Path = lutPath
	}
	if srgb {
		cfg.InputEncoding = colorpass.EncodingSRGB
	}
	if cpu {
		cfg.GPU = false
	}

	params, lut, err := cfg.Build()
	if err != nil {
		return err
	}
	pass := colorpass.NewPass(cfg.Options()...)
	defer pass.Close()
	if err := pass.Configure(params, lut); err != nil {
		return err
	}

	img, err := loadImage(in)
	if err != nil {
		return err
	}
	if size != "" {
		w, h, err := parseSize(size)
		if err != nil {
			return err
		}
		if w < 0 || h < 0 || w+h == 0 {
			return fmt.Errorf("invalid -size %q", size)
		}
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	}
	frame, err := pass.CorrectImage(context.Background(), img, cfg.InputEncoding)
	if err != nil {
		return err
	}

	var result image.Image = frame.PremultipliedImage()
	if opaque {
		result = frame.OpaqueImage()
	}
	if err := savePNG(out, result); err != nil {
		return err
	}
	colorpass.Logger().Info("image corrected",
		"in", in, "out", out, "mode", params.Mode, "width", frame.Width, "height", frame.Height)
	return nil
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	return w, h, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
