package textutil

import (
	"path/filepath"
	"strings"
)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Diacritics are folded, letters lowercased, digits and hyphens/underscores
// kept, everything else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(FoldDiacritics(value))
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// SanitizeObjectName turns an original document name into a storage-safe
// object name, keeping a lowercase extension: "Contrato João.PDF" becomes
// "contrato_joao.pdf".
func SanitizeObjectName(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if ext != "" && SanitizeToken(ext[1:]) != ext[1:] {
		ext = ""
	}
	return SanitizeToken(stem) + ext
}
