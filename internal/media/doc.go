// Package media turns downloaded videos into Markdown analysis reports.
//
// Each run moves through Created, AudioExtracted, Transcribed, Analyzed and
// Persisted, ending in CleanedUp or Failed. Subprocess work (ffprobe, ffmpeg,
// WhisperX) runs on the shared worker. The intermediate WAV and the source
// video are removed in a deferred block on every exit path.
//
// RunBatch walks a directory and skips videos whose report already exists.
// AnalyzeFile always runs end to end and returns the report.
package media
