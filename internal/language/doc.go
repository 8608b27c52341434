// Package language normalizes transcription language settings.
//
// Codes are parsed with golang.org/x/text/language, so ISO 639-1, ISO 639-2
// and BCP 47 tags are all accepted; a handful of English language names are
// accepted as well. WhisperX expects ISO 639-1 codes.
package language
