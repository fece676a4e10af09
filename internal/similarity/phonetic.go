package similarity

import (
	"sort"
	"strings"

	"docingest/internal/textutil"
)

const phoneticTokenLength = 4

// PhoneticCode returns a Soundex-style code built from Portuguese phoneme
// classes. Tokens are coded independently and joined in sorted order, so
// word order does not change the code.
//
//	1 b p        4 l        7 s z x ç, c before e/i, ch
//	2 c g k q    5 m n nh   8 f v ph
//	3 d t        6 r        9 j, g before e/i
//
// A token starting with a vowel is prefixed with "0". Vowels separate
// repeated classes; h, w and y are ignored.
func PhoneticCode(value string) string {
	value = strings.NewReplacer("ç", "s", "Ç", "s").Replace(value)
	tokens := textutil.Tokens(value)
	codes := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if code := phoneticToken(token); code != "" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return strings.Join(codes, " ")
}

func phoneticToken(token string) string {
	letters := []rune(token)
	var b strings.Builder
	var last byte
	for i := 0; i < len(letters) && b.Len() < phoneticTokenLength; i++ {
		r := letters[i]
		next := rune(0)
		if i+1 < len(letters) {
			next = letters[i+1]
		}
		var class byte
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				b.WriteByte('0')
			}
			last = 0
			continue
		case 'h', 'w', 'y':
			continue
		case 'b':
			class = '1'
		case 'p':
			class = '1'
			if next == 'h' {
				class = '8'
				i++
			}
		case 'c':
			switch {
			case next == 'h':
				class = '7'
				i++
			case next == 'e' || next == 'i':
				class = '7'
			default:
				class = '2'
			}
		case 'g':
			switch {
			case next == 'u':
				class = '2'
				i++
			case next == 'e' || next == 'i':
				class = '9'
			default:
				class = '2'
			}
		case 'q':
			class = '2'
			if next == 'u' {
				i++
			}
		case 'k':
			class = '2'
		case 'd', 't':
			class = '3'
		case 'l':
			class = '4'
			if next == 'h' {
				i++
			}
		case 'm':
			class = '5'
		case 'n':
			class = '5'
			if next == 'h' {
				i++
			}
		case 'r':
			class = '6'
		case 's', 'z', 'x':
			class = '7'
		case 'f', 'v':
			class = '8'
		case 'j':
			class = '9'
		default:
			continue
		}
		if class == last {
			continue
		}
		b.WriteByte(class)
		last = class
	}
	return b.String()
}
