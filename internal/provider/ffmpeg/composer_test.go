package ffmpeg

import (
	"reflect"
	"strings"
	"testing"
)

// Test: the full ffmpeg argument list for a standard portrait render.
func TestBuildComposeArgs(t *testing.T) {
	args := buildComposeArgs("/tmp/w/frame.png", "/tmp/w/narration.mp3", "/tmp/w/out.mp4", "1080x1920", 30)

	want := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-loop", "1",
		"-framerate", "30",
		"-i", "/tmp/w/frame.png",
		"-i", "/tmp/w/narration.mp3",
		"-vf", "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2:color=black,format=yuv420p",
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		"/tmp/w/out.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

// Test: garbage resolution and zero fps fall back to portrait defaults.
func TestBuildComposeArgs_Defaults(t *testing.T) {
	args := buildComposeArgs("in.png", "in.mp3", "out.mp4", "vertical", 0)

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "scale=1080:1920") {
		t.Errorf("expected default resolution in filter, got: %s", joined)
	}
	if !strings.Contains(joined, "-framerate 30") {
		t.Errorf("expected default framerate, got: %s", joined)
	}
}

// Test: resolution strings parse into dimensions with a safe fallback.
func TestParseResolution(t *testing.T) {
	tests := []struct {
		in         string
		wantWidth  int
		wantHeight int
	}{
		{"1080x1920", 1080, 1920},
		{"1920X1080", 1920, 1080},
		{"640x480", 640, 480},
		{"", 1080, 1920},
		{"square", 1080, 1920},
		{"0x200", 1080, 1920},
	}
	for _, tt := range tests {
		w, h := parseResolution(tt.in)
		if w != tt.wantWidth || h != tt.wantHeight {
			t.Errorf("parseResolution(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.wantWidth, tt.wantHeight)
		}
	}
}

// Test: ffprobe output parses to seconds, trailing newline included.
func TestParseDuration(t *testing.T) {
	seconds, err := parseDuration("12.345\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seconds != 12.345 {
		t.Errorf("unexpected duration: %f", seconds)
	}

	if _, err := parseDuration("N/A\n"); err == nil {
		t.Error("expected error for unparseable output")
	}
}

// Test: the last stderr line is extracted for error wrapping.
func TestLastLine(t *testing.T) {
	out := []byte("frame=1 fps=0.0\nsize=0kB time=00:00:00\nCould not open encoder\n")
	if got := lastLine(out); got != "Could not open encoder" {
		t.Errorf("unexpected last line: %q", got)
	}
	if got := lastLine(nil); got != "" {
		t.Errorf("expected empty string for empty output, got %q", got)
	}
}
