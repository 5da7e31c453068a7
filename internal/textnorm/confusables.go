package textnorm

import (
	"strings"
	"unicode"
)

// OCR on mixed Cyrillic/Latin documents regularly swaps visually identical
// letters between scripts. Repair is token-local: only tokens containing
// both scripts are touched, and the minority-script lookalikes are mapped
// into the token's majority script. Pure-script tokens (e.g. an English
// word inside a Russian document) are left alone.

var latinToCyrillic = map[rune]rune{
	'A': 'А', 'B': 'В', 'C': 'С', 'E': 'Е', 'H': 'Н', 'K': 'К',
	'M': 'М', 'O': 'О', 'P': 'Р', 'T': 'Т', 'X': 'Х', 'Y': 'У',
	'a': 'а', 'c': 'с', 'e': 'е', 'o': 'о', 'p': 'р', 'x': 'х', 'y': 'у',
}

var cyrillicToLatin = func() map[rune]rune {
	m := make(map[rune]rune, len(latinToCyrillic))
	for l, c := range latinToCyrillic {
		m[c] = l
	}
	return m
}()

// fixConfusables repairs mixed-script tokens. The language hint biases
// ambiguous tokens: under "ru"/"kk" an even split resolves to Cyrillic,
// under "en" to Latin, and without a hint the token is left as is.
func fixConfusables(s, lang string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for start < len(s) {
		end := start
		for end < len(s) && !isSpaceByte(s[end]) {
			end++
		}
		if end > start {
			b.WriteString(fixToken(s[start:end], lang))
		}
		for end < len(s) && isSpaceByte(s[end]) {
			b.WriteByte(s[end])
			end++
		}
		start = end
	}
	return b.String()
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t'
}

func fixToken(tok, lang string) string {
	latin, cyrillic := 0, 0
	for _, r := range tok {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		}
	}
	if latin == 0 || cyrillic == 0 {
		return tok
	}

	toCyrillic := cyrillic > latin
	toLatin := latin > cyrillic
	if latin == cyrillic {
		switch lang {
		case "ru", "kk":
			toCyrillic = true
		case "en":
			toLatin = true
		default:
			return tok
		}
	}

	mapped := []rune(tok)
	for i, r := range mapped {
		if toCyrillic {
			if c, ok := latinToCyrillic[r]; ok {
				mapped[i] = c
			}
		} else if toLatin {
			if l, ok := cyrillicToLatin[r]; ok {
				mapped[i] = l
			}
		}
	}
	return string(mapped)
}
