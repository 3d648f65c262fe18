package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/provider"
)

const (
	backendName = "ffmpeg"

	defaultResolution = "1080x1920"
	defaultFPS        = 30
)

// Composer renders a still-image video with narration using the local
// ffmpeg binary. There is no remote API and no fallback; errors are
// returned as-is.
type Composer struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

var _ provider.Composer = (*Composer)(nil)

// New constructs a Composer. Empty paths fall back to resolving
// "ffmpeg" and "ffprobe" on PATH.
func New(ffmpegPath, ffprobePath string, logger *zap.Logger) *Composer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Composer{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
	}
}

func (c *Composer) Name() string { return backendName }

// Configured reports whether the ffmpeg binary is resolvable.
func (c *Composer) Configured() bool {
	_, err := exec.LookPath(c.ffmpegPath)
	return err == nil
}

// Compose writes the frame and narration to a scratch directory, probes
// the narration for its real duration and renders an H.264 MP4 sized to
// the requested resolution.
func (c *Composer) Compose(ctx context.Context, req provider.ComposeRequest) (*provider.Result, error) {
	workDir, err := os.MkdirTemp("", "compose-*")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: create scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	imagePath := filepath.Join(workDir, "frame.png")
	if err := os.WriteFile(imagePath, req.Image, 0o644); err != nil {
		return nil, fmt.Errorf("ffmpeg: write frame: %w", err)
	}
	audioPath := filepath.Join(workDir, "narration.mp3")
	if err := os.WriteFile(audioPath, req.Audio, 0o644); err != nil {
		return nil, fmt.Errorf("ffmpeg: write narration: %w", err)
	}

	duration, err := c.probeDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(workDir, "out.mp4")
	args := buildComposeArgs(imagePath, audioPath, outputPath, req.Resolution, req.FPS)

	c.logger.Debug("composing video",
		zap.String("resolution", req.Resolution),
		zap.Int("fps", req.FPS),
		zap.Float64("audio_seconds", duration))

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg: render: %s: %w", lastLine(out), err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: read output: %w", err)
	}

	return &provider.Result{
		Data:     data,
		Backend:  backendName,
		Duration: duration,
	}, nil
}

func (c *Composer) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffmpeg: probe narration: %w", err)
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (float64, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("ffmpeg: parse probed duration %q: %w", strings.TrimSpace(out), err)
	}
	return seconds, nil
}

// buildComposeArgs assembles the full ffmpeg invocation. The still image
// is looped for the length of the narration, scaled to fit inside the
// target resolution and letterboxed with black bars.
func buildComposeArgs(imagePath, audioPath, outputPath, resolution string, fps int) []string {
	width, height := parseResolution(resolution)
	if fps <= 0 {
		fps = defaultFPS
	}
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,format=yuv420p",
		width, height, width, height)

	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-loop", "1",
		"-framerate", strconv.Itoa(fps),
		"-i", imagePath,
		"-i", audioPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	}
}

func parseResolution(resolution string) (int, int) {
	parts := strings.SplitN(strings.ToLower(resolution), "x", 2)
	if len(parts) == 2 {
		width, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
		height, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if werr == nil && herr == nil && width > 0 && height > 0 {
			return width, height
		}
	}
	return 1080, 1920
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
