package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeTranscriptRunner(t *testing.T, calls *[]string, segments string) CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, name+" "+strings.Join(args, " "))
		if name != UVXCommand {
			return nil
		}
		var outDir, source string
		for i, arg := range args {
			if arg == "--output_dir" {
				outDir = args[i+1]
			}
			if arg == "whisperx" {
				source = args[i+1]
			}
		}
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		return os.WriteFile(filepath.Join(outDir, base+".json"), []byte(segments), 0o644)
	}
}

func foundTool(string) (string, error) { return "/usr/bin/uvx", nil }

func TestExtractAudioArgs(t *testing.T) {
	var calls []string
	svc := NewService(Config{}, "ffmpeg-custom", WithCommandRunner(fakeTranscriptRunner(t, &calls, "")))

	if err := svc.ExtractAudio(context.Background(), "/in/v.mp4", 1, "/tmp/v.wav"); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	want := "ffmpeg-custom -y -hide_banner -loglevel error -i /in/v.mp4 -map 0:1 -vn -sn -dn -ac 1 -ar 16000 -c:a pcm_s16le /tmp/v.wav"
	if calls[0] != want {
		t.Fatalf("ffmpeg call\n got: %s\nwant: %s", calls[0], want)
	}

	calls = nil
	_ = svc.ExtractAudio(context.Background(), "/in/v.mp4", -1, "/tmp/v.wav")
	if !strings.Contains(calls[0], "-map 0:a:0") {
		t.Fatalf("expected first-audio selector, got %s", calls[0])
	}
}

func TestTranscribeReadsSegmentsAndRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip.wav")
	var calls []string
	payload := `{"segments":[{"text":" 大家好 "},{"text":""},{"text":"今天聊聊学习"}]}`
	svc := NewService(Config{Language: "chinese", ModelDir: filepath.Join(dir, "models")}, "",
		WithCommandRunner(fakeTranscriptRunner(t, &calls, payload)),
		WithLookPath(foundTool),
	)

	text, err := svc.Transcribe(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "大家好\n今天聊聊学习" {
		t.Fatalf("text = %q", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.json")); !os.IsNotExist(err) {
		t.Fatalf("whisperx json should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "models")); err != nil {
		t.Fatalf("model dir not created: %v", err)
	}
	cmd := calls[0]
	for _, want := range []string{"--language zh", "--model base", "--output_format json", "--device cpu", "--model_dir"} {
		if !strings.Contains(cmd, want) {
			t.Fatalf("expected %q in %s", want, cmd)
		}
	}
}

func TestPrepareRunsOnce(t *testing.T) {
	lookups := 0
	svc := NewService(Config{}, "", WithLookPath(func(string) (string, error) {
		lookups++
		return "", errors.New("not found")
	}))
	for i := 0; i < 3; i++ {
		if err := svc.Prepare(); err == nil {
			t.Fatal("expected setup error")
		}
	}
	if lookups != 1 {
		t.Fatalf("setup ran %d times, want 1", lookups)
	}
	if _, err := svc.Transcribe(context.Background(), "/tmp/a.wav", t.TempDir()); err == nil {
		t.Fatal("expected transcribe to surface setup error")
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, Model: "large-v3"}, "")
	args := strings.Join(svc.buildArgs("/a.wav", "/out"), " ")
	if !strings.Contains(args, "--device cuda") || !strings.Contains(args, CUDAIndexURL) {
		t.Fatalf("unexpected cuda args %s", args)
	}
	if strings.Contains(args, "--compute_type") {
		t.Fatalf("cuda run should not force cpu compute type: %s", args)
	}
}
