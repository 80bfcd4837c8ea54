// Command tiffstrip-sample writes a strip TIFF.
//
// Without an input image it writes the classic sample: a 100x100 8-bit RGB
// image whose samples count up from 0, wrapping at the bit depth. With
// --input it converts an image file instead. Parameters come from an optional
// YAML profile (--config) and flags, flags winning.
package main

import (
	"encoding"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/ironsheep/tiffstrip/internal/config"
	"github.com/ironsheep/tiffstrip/internal/imaging"
	"github.com/ironsheep/tiffstrip/internal/pipeline"
	"github.com/ironsheep/tiffstrip/internal/stripio"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath  string
		dumpProfile bool
		output      string
		input       string
		preview     string
		software    string
		width       uint32
		height      uint32
		depth       uint16
		components  uint16
		color       string
		plane       string
		subsampling string
		kind        string
	)

	flagSet := pflag.NewFlagSet("tiffstrip-sample", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML profile to start from")
	flagSet.BoolVar(&dumpProfile, "dump-profile", false, "print the effective profile as YAML and exit")
	flagSet.StringVarP(&output, "output", "o", "", "TIFF file to write (default sample.tif)")
	flagSet.StringVarP(&input, "input", "i", "", "image to convert instead of the synthetic sample")
	flagSet.StringVar(&preview, "preview", "", "also render the written file to this image (format by extension)")
	flagSet.StringVar(&software, "software", "", "Software tag value")
	flagSet.Uint32Var(&width, "width", 0, "image width")
	flagSet.Uint32Var(&height, "height", 0, "image height")
	flagSet.Uint16Var(&depth, "depth", 0, "bits per sample (1-16)")
	flagSet.Uint16Var(&components, "components", 0, "samples per pixel")
	flagSet.StringVar(&color, "color", "", "colour model: mono, rgb, cmyk, yuv")
	flagSet.StringVar(&plane, "plane", "", "plane layout: packed, planar")
	flagSet.StringVar(&subsampling, "subsampling", "", "yuv chroma subsampling: 444, 422, 420, 411, 410")
	flagSet.StringVar(&kind, "kind", "", "file kind: single, multi")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	profile := config.Default()
	if configPath != "" {
		p, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		profile = p
	}

	// Flags override the profile only when given.
	changed := flagSet.Changed
	if changed("output") {
		profile.Output = output
	}
	if changed("input") {
		profile.Input = input
	}
	if changed("preview") {
		profile.Preview = preview
	}
	if changed("software") {
		profile.Software = software
	}
	d := &profile.Image
	if changed("width") {
		d.Width = width
	}
	if changed("height") {
		d.Height = height
	}
	if changed("depth") {
		d.Depth = depth
	}
	if changed("components") {
		d.Components = components
	}
	for _, f := range []struct {
		name  string
		value string
		dst   encoding.TextUnmarshaler
	}{
		{"color", color, &d.Color},
		{"plane", plane, &d.Plane},
		{"subsampling", subsampling, &d.Subsampling},
		{"kind", kind, &d.Kind},
	} {
		if !changed(f.name) {
			continue
		}
		if err := f.dst.UnmarshalText([]byte(f.value)); err != nil {
			return fmt.Errorf("--%s: %w", f.name, err)
		}
	}
	if changed("color") && !changed("components") {
		d.Components = imaging.Components(d.Color)
	}

	if dumpProfile {
		data, err := profile.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := profile.Validate(); err != nil {
		return err
	}

	var pages []pipeline.PageSummary
	if profile.Input == "" {
		sum, err := writeSample(profile)
		if err != nil {
			return err
		}
		pages = append(pages, *sum)
	} else {
		res, err := convert(profile)
		if err != nil {
			return err
		}
		pages = res.Pages
	}

	for i, p := range pages {
		fmt.Printf("%s page %d: %dx%d %s %s %d-bit, %d strips of %d rows, %d bytes, blake3 %s\n",
			profile.Output, i, p.Descriptor.Width, p.Descriptor.Height, p.Descriptor.Color, p.Descriptor.Plane,
			p.Descriptor.Depth, p.Strips, p.RowsPerStrip, p.Bytes, p.Digest)
	}

	if profile.Preview != "" {
		img, _, err := pipeline.Read(profile.Output, 0)
		if err != nil {
			return fmt.Errorf("reading back %s: %w", profile.Output, err)
		}
		if err := imaging.Save(img, profile.Preview); err != nil {
			return err
		}
		log.Printf("preview written to %s", profile.Preview)
	}
	return nil
}

// writeSample writes the synthetic ramp straight through a session and then
// reads the file back for its summary.
func writeSample(profile *config.Profile) (*pipeline.PageSummary, error) {
	s, err := stripio.Create(profile.Output)
	if err != nil {
		return nil, err
	}
	if profile.Software != "" {
		s.Software = profile.Software
	}
	s.SetDescriptor(profile.Image)
	if err := s.SetTags(); err != nil {
		s.Close()
		return nil, err
	}

	var n int
	if profile.Image.Depth <= 8 {
		n, err = writeRamp[uint8](s)
	} else {
		n, err = writeRamp[uint16](s)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	if os.Getenv("TIFFSTRIP_LOG_LEVEL") == "debug" {
		log.Printf("wrote %d sample bytes to %s", n, profile.Output)
	}

	res, err := pipeline.Inspect(profile.Output)
	if err != nil {
		return nil, err
	}
	return &res.Pages[0], nil
}

func writeRamp[T stripio.Sample](s *stripio.Session) (int, error) {
	d := s.Descriptor()
	mask := uint32(1)<<d.Depth - 1
	total := 0
	for c, length := range imaging.BufferLengths(d) {
		buf := make([]T, length)
		for i := range buf {
			buf[i] = T(uint32(i) & mask)
		}
		n, err := stripio.Write(s, buf, c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func convert(profile *config.Profile) (*pipeline.Result, error) {
	img, err := imaging.NewImageCache().Load(profile.Input)
	if err != nil {
		return nil, err
	}
	d := profile.Image
	b := img.Bounds()
	if d.Width == 0 {
		d.Width = uint32(b.Dx())
	}
	if d.Height == 0 {
		d.Height = uint32(b.Dy())
	}
	return pipeline.Write(profile.Output, []pipeline.Page{{Image: img, Descriptor: d}},
		pipeline.Options{Software: profile.Software})
}
