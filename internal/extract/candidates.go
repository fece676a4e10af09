package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"docingest/internal/textutil"
)

// MaxCandidates bounds the candidates returned per file. Matching cost is
// candidates x employees, so this caps the per-file work.
const MaxCandidates = 12

const (
	minCandidateRunes  = 3
	signatureLookahead = 3
)

var (
	// nonLetters matches separators, digits, and punctuation.
	nonLetters = regexp.MustCompile(`[^\p{L}]+`)

	nameThenDoc = regexp.MustCompile(`^\s*([\p{L}][\p{L}\s_.]*?)\s*[-–]\s+(.+)$`)
	docThenName = regexp.MustCompile(`^(.+?)\s+[-–]\s*([\p{L}][\p{L}\s_.]*?)\s*$`)

	labeledName   = regexp.MustCompile(`(?im)^\s*(?:nome(?:\s+completo)?|name|funcion[aá]rio|colaborador(?:a)?|employee)\s*[:\-]\s*(.+)$`)
	signatureLine = regexp.MustCompile(`(?i)^\s*(?:assinatura|atenciosamente|cordialmente|signature|sincerely|_{4,})[\s:,_]*(.*)$`)
	fieldBreak    = regexp.MustCompile(`[\d,;|(]`)
)

// Candidates returns the ordered, de-duplicated name candidates for a file.
// text is optional document content; pass "" when none is available.
func Candidates(fileName, text string) []string {
	c := candidateSet{seen: make(map[string]struct{})}
	c.fromFileName(fileName)
	if strings.TrimSpace(text) != "" {
		c.fromText(text)
	}
	return c.out
}

type candidateSet struct {
	out  []string
	seen map[string]struct{}
}

// add records raw as a candidate and reports whether it was acceptable.
func (c *candidateSet) add(raw string) bool {
	candidate := NormalizeCandidate(raw)
	if !ValidCandidate(candidate) {
		return false
	}
	key := textutil.NormalizeForCompare(candidate)
	if _, ok := c.seen[key]; ok || len(c.out) >= MaxCandidates {
		return true
	}
	c.seen[key] = struct{}{}
	c.out = append(c.out, candidate)
	return true
}

func (c *candidateSet) fromFileName(fileName string) {
	base := filepath.Base(strings.TrimSpace(fileName))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		return
	}
	stem = emailPattern.ReplaceAllString(stem, " ")

	tokens := splitWords(stem)
	meaningful := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isJargonToken(token) {
			meaningful = append(meaningful, token)
		}
	}

	c.add(strings.Join(meaningful, " "))

	spaced := strings.ReplaceAll(stem, "_", " ")
	if m := nameThenDoc.FindStringSubmatch(spaced); m != nil {
		c.add(m[1])
	}
	if m := docThenName.FindStringSubmatch(spaced); m != nil {
		c.add(m[2])
	}

	names := withoutPrepositions(meaningful)
	if len(names) >= 3 {
		c.add(names[0] + " " + names[len(names)-1])
		c.add(names[0] + " " + names[1])
	}

	c.add(strings.Join(leadingCapitalized(tokens), " "))
	c.add(strings.Join(trailingCapitalized(tokens), " "))
	c.add(strings.Join(tokens, " "))
}

func (c *candidateSet) fromText(text string) {
	for _, m := range labeledName.FindAllStringSubmatch(text, -1) {
		c.add(meaningfulWords(cutField(m[1])))
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		m := signatureLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if c.add(meaningfulWords(cutField(m[1]))) {
			continue
		}
		looked := 0
		for _, next := range lines[i+1:] {
			if looked == signatureLookahead || signatureLine.MatchString(next) {
				break
			}
			if strings.TrimSpace(next) == "" {
				continue
			}
			looked++
			if c.add(meaningfulWords(cutField(next))) {
				break
			}
		}
	}

	for _, line := range lines {
		loc := identifierPattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if before := meaningfulWords(line[:loc[0]]); before != "" {
			c.add(before)
			continue
		}
		c.add(meaningfulWords(cutField(line[loc[1]:])))
	}
}

// cutField keeps the text before the first digit or field separator.
func cutField(value string) string {
	if loc := fieldBreak.FindStringIndex(value); loc != nil {
		return value[:loc[0]]
	}
	return value
}

// meaningfulWords joins the non-jargon words of value.
func meaningfulWords(value string) string {
	words := splitWords(value)
	kept := words[:0]
	for _, w := range words {
		if !isJargonToken(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeCandidate strips everything but letters, collapses whitespace,
// and title-cases the result.
func NormalizeCandidate(raw string) string {
	return textutil.TitleCase(nonLetters.ReplaceAllString(raw, " "))
}

// ValidCandidate reports whether a normalized candidate can name a person.
func ValidCandidate(candidate string) bool {
	if utf8.RuneCountInString(candidate) < minCandidateRunes || !hasLetter(candidate) {
		return false
	}
	if isNumeric(candidate) || IsJargon(candidate) {
		return false
	}
	names := withoutPrepositions(strings.Fields(candidate))
	switch len(names) {
	case 0:
		return false
	case 1:
		return utf8.RuneCountInString(names[0]) >= minCandidateRunes
	default:
		return true
	}
}

func splitWords(value string) []string {
	return strings.Fields(nonLetters.ReplaceAllString(value, " "))
}

func withoutPrepositions(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !isPreposition(t) {
			out = append(out, t)
		}
	}
	return out
}

func leadingCapitalized(tokens []string) []string {
	end := 0
	for end < len(tokens) && capitalized(tokens[end]) {
		end++
	}
	return tokens[:end]
}

func trailingCapitalized(tokens []string) []string {
	start := len(tokens)
	for start > 0 && capitalized(tokens[start-1]) {
		start--
	}
	return tokens[start:]
}

func capitalized(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsUpper(r) && !isJargonToken(token)
}

func hasLetter(value string) bool {
	return strings.IndexFunc(value, unicode.IsLetter) >= 0
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
