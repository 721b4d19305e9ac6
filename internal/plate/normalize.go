// Package plate turns raw OCR output into a canonical plate number and city.
package plate

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	lettersLen = 3
	digitsLen  = 3
)

// Result is a normalized reading.
type Result struct {
	Plate string `json:"plate"`
	City  string `json:"city"`
	// Strict is set when Plate has the canonical "LLL DDD" form.
	Strict bool `json:"strict"`
}

var upper = cases.Upper(language.Und)

// Normalize cleans raw OCR text. It never fails; unreadable input yields
// empty fields.
func Normalize(raw string) Result {
	s := Sanitize(raw)
	if s == "" {
		return Result{}
	}

	var segments []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			segments = append(segments, p)
		}
	}

	candidate := s
	var city string
	if len(segments) > 0 {
		candidate = segments[0]
	}
	if len(segments) > 1 {
		city = strings.Join(segments[1:], ", ")
	} else {
		city = cityAfterDigits(s)
	}

	res := Result{Plate: candidate, City: city}
	if p, ok := canonical(candidate); ok {
		res.Plate = p
		res.Strict = true
	}
	return res
}

// Sanitize folds diacritics, uppercases and keeps only A-Z, 0-9, space and
// comma. Surrounding whitespace is trimmed. Folding runs before the filter,
// so accented letters survive as their base letter ("ÑAB 123" reads as
// "NAB 123") where a plain ASCII filter would drop them.
func Sanitize(raw string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}
	folded = upper.String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' || r == ',' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func canonical(candidate string) (string, bool) {
	letters := make([]byte, 0, lettersLen)
	digits := make([]byte, 0, digitsLen)
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		switch {
		case c >= 'A' && c <= 'Z' && len(letters) < lettersLen:
			letters = append(letters, c)
		case c >= '0' && c <= '9' && len(digits) < digitsLen:
			digits = append(digits, c)
		}
	}
	if len(letters) != lettersLen || len(digits) != digitsLen {
		return "", false
	}
	return string(letters) + " " + string(digits), true
}

// cityAfterDigits returns the text following the first run of exactly
// three digits.
func cityAfterDigits(s string) string {
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j-i == digitsLen {
			rest := strings.TrimSpace(s[j:])
			return strings.TrimSpace(strings.TrimPrefix(rest, ","))
		}
		i = j
	}
	return ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
