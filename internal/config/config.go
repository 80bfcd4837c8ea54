// Package config loads the profiles that drive tiffstrip-sample.
//
// A profile is a single YAML file naming the output file, an optional source
// image and the Descriptor to store it with. Enumerated fields are written by
// name:
//
//	output: out/photo.tif
//	input: ${HOME}/photo.jpg
//	image:
//	  color: yuv
//	  subsampling: 420
//	  plane: packed
//	  depth: 8
//	  components: 3
//
// Fields missing from the file keep the values of Default, which reproduce the
// classic 100x100 RGB sample. Command-line flags are applied on top of the
// loaded profile by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/tiffstrip/internal/stripio"
)

// Profile configures one run of the sample driver.
type Profile struct {
	// Output is the TIFF file to write.
	Output string `yaml:"output"`

	// Input is a source image to convert. When empty a synthetic ramp of
	// Image.Width x Image.Height is written instead.
	Input string `yaml:"input,omitempty"`

	// Preview is an optional image file (format by extension) rendered from
	// the written TIFF after reading it back.
	Preview string `yaml:"preview,omitempty"`

	// Software overrides the Software tag.
	Software string `yaml:"software,omitempty"`

	// Image is the Descriptor of the written page. With an Input, a zero
	// width or height is taken from the source image.
	Image stripio.Descriptor `yaml:"image"`
}

// Default returns the profile of the classic sample: a 100x100 8-bit packed
// RGB image written to sample.tif.
func Default() *Profile {
	d := stripio.NewDescriptor()
	d.Width, d.Height = 100, 100
	d.Depth, d.Components = 8, 3
	d.Color = stripio.RGB

	return &Profile{
		Output: "sample.tif",
		Image:  d,
	}
}

// LoadFile loads a profile from path on top of Default. ${VAR} references in
// the path fields are expanded from the environment.
func LoadFile(path string) (*Profile, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	p.expandVariables()
	return p, nil
}

func (p *Profile) expandVariables() {
	p.Output = os.ExpandEnv(p.Output)
	p.Input = os.ExpandEnv(p.Input)
	p.Preview = os.ExpandEnv(p.Preview)
}

// Validate checks the profile before a run. The Descriptor is checked in full
// only when there is no Input; otherwise its size may still be open.
func (p *Profile) Validate() error {
	if p.Output == "" {
		return errors.New("output path is required")
	}
	if p.Input != "" {
		d := p.Image
		if d.Width == 0 {
			d.Width = 1
		}
		if d.Height == 0 {
			d.Height = 1
		}
		return d.Validate()
	}
	return p.Image.Validate()
}

// Marshal renders the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
