package transcoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-ingest/internal/encoder"
	"media-ingest/internal/encoder/encodertest"
	"media-ingest/internal/failure"
	"media-ingest/internal/filesystem"
)

var fastCopy = filesystem.RetryPolicy{MaxAttempts: 2, Delay: 10 * time.Millisecond}

func newTestTranscoder(t *testing.T, gw encoder.Gateway) (*Transcoder, string) {
	t.Helper()
	work := filepath.Join(t.TempDir(), "work")
	return New(gw, encoder.NewCommandBuilder(), fastCopy, work), work
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestToCanonicalMP4_CanonicalInputIsCopiedNotEncoded(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"lower case", "clip.mp4"},
		{"upper case", "CLIP.MP4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &encodertest.Gateway{}
			tr, _ := newTestTranscoder(t, gw)

			dir := t.TempDir()
			input := filepath.Join(dir, "in", tt.file)
			content := bytes.Repeat([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}, 1024)
			writeFile(t, input, content)
			out := filepath.Join(dir, "videos")

			asset, err := tr.ToCanonicalMP4(context.Background(), input, out)
			if err != nil {
				t.Fatalf("ToCanonicalMP4() error = %v", err)
			}
			if gw.CallCount() != 0 {
				t.Errorf("gateway called %d times, want 0", gw.CallCount())
			}
			if !strings.HasSuffix(asset.Path, ".mp4") || filepath.Dir(asset.Path) != out {
				t.Errorf("Path = %s", asset.Path)
			}
			if asset.ContentType != "video/mp4" {
				t.Errorf("ContentType = %q", asset.ContentType)
			}

			got, err := os.ReadFile(asset.Path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, content) {
				t.Error("copied output is not byte-identical to the input")
			}
			if asset.Size != int64(len(content)) {
				t.Errorf("Size = %d, want %d", asset.Size, len(content))
			}
		})
	}
}

func TestToCanonicalMP4_CanonicalInputAlreadyInPlace(t *testing.T) {
	gw := &encodertest.Gateway{}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	writeFile(t, input, []byte("mp4"))

	asset, err := tr.ToCanonicalMP4(context.Background(), input, dir)
	if err != nil {
		t.Fatalf("ToCanonicalMP4() error = %v", err)
	}
	if asset.Path != input {
		t.Errorf("Path = %s, want %s", asset.Path, input)
	}
	if gw.CallCount() != 0 {
		t.Error("gateway should not run")
	}
}

func TestToCanonicalMP4_ConvertsOtherContainers(t *testing.T) {
	gw := &encodertest.Gateway{
		Respond: func(encoder.Command) encodertest.Result {
			return encodertest.Result{Output: []byte("converted mp4")}
		},
	}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "holiday.mov")
	writeFile(t, input, []byte("quicktime"))
	out := filepath.Join(dir, "videos")

	asset, err := tr.ToCanonicalMP4(context.Background(), input, out)
	if err != nil {
		t.Fatalf("ToCanonicalMP4() error = %v", err)
	}

	calls := gw.Calls()
	if len(calls) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(calls))
	}
	if calls[0].Operation != encoder.OperationRemux {
		t.Errorf("Operation = %q", calls[0].Operation)
	}
	if !strings.HasSuffix(calls[0].Output, ".mp4") {
		t.Errorf("encoder output %s should be an .mp4 path", calls[0].Output)
	}
	if asset.Path != filepath.Join(out, "holiday.mp4") {
		t.Errorf("Path = %s, want %s", asset.Path, filepath.Join(out, "holiday.mp4"))
	}
	if got, _ := os.ReadFile(asset.Path); string(got) != "converted mp4" {
		t.Errorf("published content = %q", got)
	}
	if names := listDir(t, out); len(names) != 1 {
		t.Errorf("output folder = %v, want only the published file", names)
	}
}

func TestToCanonicalMP4_EncoderNonZeroExit(t *testing.T) {
	gw := &encodertest.Gateway{
		Respond: func(encoder.Command) encodertest.Result {
			return encodertest.Result{ExitCode: 1, Stderr: "moov atom not found"}
		},
	}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "broken.avi")
	writeFile(t, input, []byte("garbage"))
	out := filepath.Join(dir, "videos")

	_, err := tr.ToCanonicalMP4(context.Background(), input, out)
	if !errors.Is(err, failure.ErrEncode) {
		t.Fatalf("error = %v, want EncodeError", err)
	}
	if !strings.Contains(err.Error(), "moov atom not found") {
		t.Errorf("stderr missing from detail: %v", err)
	}
	if names := listDir(t, out); len(names) != 0 {
		t.Errorf("output folder should be empty after failure, got %v", names)
	}
}

func TestToCanonicalMP4_EncoderProducedNothing(t *testing.T) {
	gw := &encodertest.Gateway{
		Respond: func(encoder.Command) encodertest.Result {
			return encodertest.Result{Output: []byte{}}
		},
	}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "a.mkv")
	writeFile(t, input, []byte("mkv"))

	_, err := tr.ToCanonicalMP4(context.Background(), input, filepath.Join(dir, "out"))
	if failure.KindOf(err) != failure.KindEncodeError {
		t.Errorf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindEncodeError)
	}
}

func TestToCanonicalMP4_GatewayErrorKeepsKind(t *testing.T) {
	gw := &encodertest.Gateway{
		Respond: func(encoder.Command) encodertest.Result {
			return encodertest.Result{Err: failure.New(failure.KindTimeout, "ffmpeg remux timed out")}
		},
	}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "long.mkv")
	writeFile(t, input, []byte("mkv"))

	_, err := tr.ToCanonicalMP4(context.Background(), input, filepath.Join(dir, "out"))
	if failure.KindOf(err) != failure.KindTimeout {
		t.Errorf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindTimeout)
	}
}

func TestToCanonicalMP4_ForeignGatewayErrorIsTyped(t *testing.T) {
	gw := &encodertest.Gateway{
		Respond: func(encoder.Command) encodertest.Result {
			return encodertest.Result{Err: errors.New("fork/exec: resource temporarily unavailable")}
		},
	}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	input := filepath.Join(dir, "a.flv")
	writeFile(t, input, []byte("flv"))

	_, err := tr.ToCanonicalMP4(context.Background(), input, filepath.Join(dir, "out"))
	var fe *failure.Error
	if !errors.As(err, &fe) || fe.Kind != failure.KindEncodeError {
		t.Errorf("error = %#v, want *failure.Error of kind encode_error", err)
	}
}

func TestToCanonicalMP4_MissingInput(t *testing.T) {
	gw := &encodertest.Gateway{}
	tr, _ := newTestTranscoder(t, gw)

	dir := t.TempDir()
	out := filepath.Join(dir, "videos")
	_, err := tr.ToCanonicalMP4(context.Background(), filepath.Join(dir, "nope.mov"), out)
	if failure.KindOf(err) != failure.KindIOError {
		t.Errorf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindIOError)
	}
	if gw.CallCount() != 0 {
		t.Error("gateway should not run for a missing input")
	}
	if _, err := os.Stat(out); err != nil {
		t.Error("output folder should be created even when the input is missing")
	}
}

func TestToCanonicalMP4_OutputFolderIsAFile(t *testing.T) {
	tr, _ := newTestTranscoder(t, &encodertest.Gateway{})

	dir := t.TempDir()
	input := filepath.Join(dir, "a.mp4")
	writeFile(t, input, []byte("x"))
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, []byte("not a dir"))

	_, err := tr.ToCanonicalMP4(context.Background(), input, blocker)
	if failure.KindOf(err) != failure.KindIOError {
		t.Errorf("KindOf(err) = %q, want %q", failure.KindOf(err), failure.KindIOError)
	}
}

func TestWorkDirStatsAndClear(t *testing.T) {
	tr, work := newTestTranscoder(t, &encodertest.Gateway{})

	files, size, err := tr.WorkDirStats()
	if err != nil || files != 0 || size != 0 {
		t.Errorf("missing work dir stats = %d, %d, %v", files, size, err)
	}

	writeFile(t, filepath.Join(work, "a.mov"), make([]byte, 100))
	writeFile(t, filepath.Join(work, "nested", "b.mov"), make([]byte, 50))
	fresh := filepath.Join(work, "fresh.mov")
	writeFile(t, fresh, make([]byte, 10))

	old := time.Now().Add(-2 * time.Hour)
	for _, p := range []string{filepath.Join(work, "a.mov"), filepath.Join(work, "nested")} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}

	files, size, err = tr.WorkDirStats()
	if err != nil || files != 3 || size != 160 {
		t.Errorf("WorkDirStats() = %d, %d, %v; want 3, 160", files, size, err)
	}

	freed, err := tr.ClearWorkDir(time.Hour)
	if err != nil {
		t.Fatalf("ClearWorkDir() error = %v", err)
	}
	if freed != 150 {
		t.Errorf("freed = %d, want 150", freed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("recent files must survive ClearWorkDir")
	}

	freed, err = tr.ClearWorkDir(0)
	if err != nil || freed != 10 {
		t.Errorf("ClearWorkDir(0) = %d, %v; want 10", freed, err)
	}
}

func TestClearWorkDir_NoWorkDir(t *testing.T) {
	tr := New(&encodertest.Gateway{}, encoder.NewCommandBuilder(), fastCopy, "")
	if freed, err := tr.ClearWorkDir(0); freed != 0 || err != nil {
		t.Errorf("ClearWorkDir() = %d, %v", freed, err)
	}
}
