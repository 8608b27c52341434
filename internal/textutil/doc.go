// Package textutil provides text helpers for turning free-form platform text
// into filesystem-safe names and for presenting it in reports.
//
// The primary use cases are:
//   - Sanitizing video descriptions and creator labels into file names
//   - Truncating names on rune boundaries so multi-byte titles stay within
//     filesystem limits
//   - Title-casing report headings
package textutil
