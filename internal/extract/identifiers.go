package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Identifier digit-run bounds. Four digits covers short badge numbers,
// fourteen covers a CNPJ-sized number.
const (
	MinIdentifierDigits = 4
	MaxIdentifierDigits = 14
)

var (
	cpfPattern        = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
	digitRun          = regexp.MustCompile(`\d+`)
	identifierPattern = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}|\d{4,14}`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	emailExact   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
)

// Identifiers returns digits-only identifiers found in the filename stem and
// text, in order of first appearance. Punctuated CPF numbers are recognized
// whole; other digit runs must be 4 to 14 digits long and are dropped when
// they look like a year (1900-2099) or are all zeros.
func Identifiers(fileName, text string) []string {
	base := filepath.Base(strings.TrimSpace(fileName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var out []string
	seen := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, source := range []string{stem, text} {
		if source == "" {
			continue
		}
		for _, cpf := range cpfPattern.FindAllString(source, -1) {
			add(NormalizeIdentifier(cpf))
		}
		rest := cpfPattern.ReplaceAllString(source, " ")
		for _, run := range digitRun.FindAllString(rest, -1) {
			if plausibleIdentifier(run) {
				add(run)
			}
		}
	}
	return out
}

func plausibleIdentifier(run string) bool {
	if len(run) < MinIdentifierDigits || len(run) > MaxIdentifierDigits {
		return false
	}
	if strings.Trim(run, "0") == "" {
		return false
	}
	if len(run) == 4 {
		if year, err := strconv.Atoi(run); err == nil && year >= 1900 && year <= 2099 {
			return false
		}
	}
	return true
}

// NormalizeIdentifier strips everything but ASCII digits.
func NormalizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IdentifiersMatch compares two identifiers digit for digit after
// normalization. Empty identifiers never match.
func IdentifiersMatch(a, b string) bool {
	na := NormalizeIdentifier(a)
	return na != "" && na == NormalizeIdentifier(b)
}

// Emails returns the lowercase email addresses embedded in a filename. A
// trailing file extension glued to the domain is removed.
func Emails(fileName string) []string {
	base := filepath.Base(strings.TrimSpace(fileName))
	ext := strings.ToLower(filepath.Ext(base))

	var out []string
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(base, -1) {
		email := strings.ToLower(m)
		if ext != "" && strings.HasSuffix(email, ext) {
			if trimmed := strings.TrimSuffix(email, ext); emailExact.MatchString(trimmed) {
				email = trimmed
			}
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
