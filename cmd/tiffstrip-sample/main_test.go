package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/tiffstrip/internal/pipeline"
	"github.com/ironsheep/tiffstrip/internal/stripio"
)

func TestRun_DefaultSample(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample.tif")
	if err := run([]string{"-o", out}); err != nil {
		t.Fatalf("run: %v", err)
	}

	res, err := pipeline.Inspect(out)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(res.Pages))
	}
	p := res.Pages[0]
	if p.Bytes != 30000 {
		t.Errorf("bytes: got %d, want 30000", p.Bytes)
	}
	if p.Descriptor.Color != stripio.RGB || p.Descriptor.Width != 100 || p.Descriptor.Height != 100 {
		t.Errorf("descriptor: got %+v", p.Descriptor)
	}
}

func TestRun_FlagsOverrideProfile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.yaml")
	out := filepath.Join(dir, "out.tif")
	data := "output: " + out + "\nimage:\n  width: 40\n  height: 30\n  depth: 8\n  components: 3\n  color: rgb\n"
	if err := os.WriteFile(profile, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"--config", profile, "--color", "yuv", "--subsampling", "420"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	res, err := pipeline.Inspect(out)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	d := res.Pages[0].Descriptor
	if d.Color != stripio.YUV || d.Subsampling != stripio.YUV420 || d.Components != 3 {
		t.Errorf("descriptor: got %+v", d)
	}
	if res.Pages[0].RowsPerStrip != 16 {
		t.Errorf("rows per strip: got %d, want 16", res.Pages[0].RowsPerStrip)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad color", []string{"--color", "lab"}},
		{"stray argument", []string{"extra"}},
		{"missing config", []string{"--config", "/nonexistent/profile.yaml"}},
		{"zero width", []string{"--width", "0", "-o", filepath.Join(t.TempDir(), "x.tif")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
