package encoder

import (
	"strings"
	"testing"
	"time"

	"media-ingest/internal/mediatypes"
)

func TestRemux(t *testing.T) {
	b := NewCommandBuilder()
	cmd := b.Remux("/uploads/work/in.mov", "/uploads/videos/.in.partial.mp4")

	if cmd.Operation != OperationRemux {
		t.Errorf("Operation = %q, want %q", cmd.Operation, OperationRemux)
	}
	if cmd.Output != "/uploads/videos/.in.partial.mp4" {
		t.Errorf("Output = %q", cmd.Output)
	}

	joined := strings.Join(cmd.Args, " ")
	for _, want := range []string{
		"-i /uploads/work/in.mov",
		"-c:v libx264",
		"-c:a aac",
		"-movflags +faststart",
		"-loglevel error",
		"-y",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if cmd.Args[len(cmd.Args)-1] != cmd.Output {
		t.Errorf("last arg = %q, want output path", cmd.Args[len(cmd.Args)-1])
	}
	if strings.Contains(joined, "-threads") {
		t.Errorf("threads should be omitted by default: %s", joined)
	}
}

func TestRemux_Threads(t *testing.T) {
	b := &CommandBuilder{Threads: 2}
	joined := strings.Join(b.Remux("a.mkv", "b.mp4").Args, " ")
	if !strings.Contains(joined, "-threads 2") {
		t.Errorf("expected -threads 2: %s", joined)
	}
	if !strings.Contains(joined, "-loglevel error") {
		t.Errorf("empty LogLevel should default to error: %s", joined)
	}
}

func TestExtractFrame(t *testing.T) {
	b := NewCommandBuilder()
	dims := mediatypes.DefaultDimensionPolicy().For(mediatypes.CategoryVideo)
	cmd := b.ExtractFrame("/work/abc.mp4", "/thumbs/abc.jpg", 1500*time.Millisecond, dims)

	if cmd.Operation != OperationThumbnail {
		t.Errorf("Operation = %q, want %q", cmd.Operation, OperationThumbnail)
	}

	joined := strings.Join(cmd.Args, " ")
	for _, want := range []string{
		"-ss 00:00:01.500 -i /work/abc.mp4",
		"-frames:v 1",
		"-vf scale=800:535",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if cmd.Args[len(cmd.Args)-1] != "/thumbs/abc.jpg" {
		t.Errorf("last arg = %q, want output path", cmd.Args[len(cmd.Args)-1])
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{time.Second, "00:00:01.000"},
		{90*time.Second + 250*time.Millisecond, "00:01:30.250"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04.000"},
		{-time.Second, "00:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTimestamp(tt.in); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
