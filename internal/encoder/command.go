package encoder

import (
	"fmt"
	"time"

	"media-ingest/internal/mediatypes"
)

// CommandBuilder builds ffmpeg argument lists.
type CommandBuilder struct {
	// LogLevel is passed to -loglevel. Defaults to "error".
	LogLevel string
	// Threads caps encoder threads when > 0.
	Threads int
}

// NewCommandBuilder returns a builder with quiet logging.
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{LogLevel: "error"}
}

func (b *CommandBuilder) common() []string {
	level := b.LogLevel
	if level == "" {
		level = "error"
	}
	return []string{"-nostdin", "-nostats", "-hide_banner", "-loglevel", level, "-y"}
}

// Remux converts input to H.264/AAC in an MP4 container, with the moov atom
// up front for progressive playback.
func (b *CommandBuilder) Remux(input, output string) Command {
	args := b.common()
	args = append(args,
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
	)
	if b.Threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", b.Threads))
	}
	args = append(args, "-f", "mp4", output)

	return Command{Operation: OperationRemux, Args: args, Output: output}
}

// ExtractFrame writes the single frame at offset at as a JPEG scaled to
// dims. The seek is placed before -i so ffmpeg seeks by keyframe index
// instead of decoding from the start.
func (b *CommandBuilder) ExtractFrame(input, output string, at time.Duration, dims mediatypes.Dimensions) Command {
	args := b.common()
	args = append(args,
		"-ss", FormatTimestamp(at),
		"-i", input,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", dims.Width, dims.Height),
		"-q:v", "2",
		"-f", "image2",
		output,
	)

	return Command{Operation: OperationThumbnail, Args: args, Output: output}
}

// FormatTimestamp renders d as HH:MM:SS.mmm. Negative durations render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
