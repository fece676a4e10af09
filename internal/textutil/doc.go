// Package textutil provides text processing utilities for name normalization
// and filename sanitization.
//
// The primary use cases are:
//   - Folding diacritics and punctuation so "João da Silva" and "JOAO_DA_SILVA"
//     compare equal
//   - Title-casing person-name candidates for display and reports
//   - Sanitizing filenames and path segments for safe local and remote storage
//
// Diacritic folding decomposes text (NFD), drops combining marks, and
// recomposes the remainder, so it is safe for any Latin-script input.
package textutil
