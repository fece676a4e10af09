// Package extract derives person-name candidates, numeric identifiers, and
// email addresses from document filenames and, optionally, document text.
//
// Everything except the TextExtractor implementations is pure: the same
// input always yields the same ordered output and no I/O happens.
//
// Candidates are normalized (whitespace collapsed, title-cased) and filtered
// so generic document jargon such as "Contrato" or "Anexo" never reaches the
// matcher. Identifiers are digit groups typical of CPF tax ids and badge
// numbers, normalized to digits only.
package extract
