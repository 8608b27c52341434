package whisperx

import (
	"context"
	"fmt"
)

// streamSpec maps an absolute stream index to an ffmpeg -map selector; a
// negative index selects the first audio stream.
func streamSpec(audioIndex int) string {
	if audioIndex < 0 {
		return "0:a:0"
	}
	return fmt.Sprintf("0:%d", audioIndex)
}

func buildExtractArgs(source string, audioIndex int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", streamSpec(audioIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractAudio writes the selected audio stream of source to dest as mono
// 16 kHz PCM WAV.
func (s *Service) ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error {
	if source == "" || dest == "" {
		return fmt.Errorf("extract audio: source and destination required")
	}
	if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(source, audioIndex, dest)...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}
