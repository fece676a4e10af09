package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"docingest/internal/textutil"
)

// Score weights. They sum to 1.
const (
	WeightJaroWinkler = 0.3
	WeightLevenshtein = 0.2
	WeightJaccard     = 0.3
	WeightPhonetic    = 0.2
)

// Text is a name prepared for scoring. The zero value scores as empty.
type Text struct {
	Raw        string
	normalized string
	length     int
	tokens     map[string]struct{}
	phonetic   string
}

// Prepare normalizes value and precomputes everything Score needs.
func Prepare(value string) Text {
	normalized := textutil.NormalizeForCompare(value)
	fields := strings.Fields(normalized)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return Text{
		Raw:        value,
		normalized: normalized,
		length:     utf8.RuneCountInString(normalized),
		tokens:     tokens,
		phonetic:   PhoneticCode(value),
	}
}

// Normalized returns the comparison form of the prepared text.
func (t Text) Normalized() string {
	return t.normalized
}

// Score returns the combined similarity of a and b in [0,1].
func Score(a, b string) float64 {
	return ScoreText(Prepare(a), Prepare(b))
}

// ScoreText is Score over prepared values.
func ScoreText(a, b Text) float64 {
	if a.normalized == b.normalized {
		return 1
	}
	if a.normalized == "" || b.normalized == "" {
		return 0
	}
	// Canonical order keeps floating point results identical for (a,b) and (b,a).
	if a.normalized > b.normalized {
		a, b = b, a
	}
	phonetic := 0.0
	if a.phonetic != "" && a.phonetic == b.phonetic {
		phonetic = 1
	}
	total := WeightJaroWinkler*jaroWinkler(a.normalized, b.normalized) +
		WeightLevenshtein*levenshteinSimilarity(a, b) +
		WeightJaccard*jaccard(a.tokens, b.tokens) +
		WeightPhonetic*phonetic
	return round3(total)
}

func round3(v float64) float64 {
	v = math.Round(v*1000) / 1000
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// jaroWinkler boosts scores above 0.7 by up to four shared leading
// characters. Normalized Latin names are ASCII, so comparing bytes compares
// letters.
func jaroWinkler(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func levenshteinSimilarity(a, b Text) float64 {
	longest := max(a.length, b.length)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a.normalized, b.normalized))/float64(longest)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
