// Package whisperx wraps the FFmpeg and WhisperX command-line tools used to
// turn a downloaded video into plain transcript text.
//
// ExtractAudio demuxes one audio stream to the mono 16 kHz WAV WhisperX
// expects. Service.Transcribe runs WhisperX through uvx; its one-time setup
// (tool lookup, model cache directory) happens lazily on first use and is
// reused afterwards.
package whisperx
