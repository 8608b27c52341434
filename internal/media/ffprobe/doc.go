// Package ffprobe inspects downloaded videos before audio extraction.
//
// Inspect runs ffprobe and decodes its JSON; Result helpers pick the audio
// stream to transcribe and report duration for logging.
package ffprobe
