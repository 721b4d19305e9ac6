package plate

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Result
	}{
		{"canonical with city", "ABC 123, BOGOTA DC", Result{"ABC 123", "BOGOTA DC", true}},
		{"no comma", "juni540 bogota dc", Result{"JUN 540", "BOGOTA DC", true}},
		{"empty", "", Result{}},
		{"only spaces", "   ", Result{}},
		{"short plate", "AB12,City", Result{"AB12", "CITY", false}},
		{"extra letters and digits", "ABCD 12345, CALI", Result{"ABC 123", "CALI", true}},
		{"several city segments", "XYZ 123 , PASTO, NARINO", Result{"XYZ 123", "PASTO, NARINO", true}},
		{"empty segments", ", , XYZ123,,MEDELLIN", Result{"XYZ 123", "MEDELLIN", true}},
		{"only commas", ",,,", Result{Plate: ",,,"}},
		{"punctuation dropped", "'K-L-M 9.8.7' - Tunja!", Result{"KLM 987", "TUNJA", true}},
		{"diacritics folded", "ñáé 321 bogotá", Result{"NAE 321", "BOGOTA", true}},
		{"no three digit run", "AB 1234", Result{"AB 1234", "", false}},
		{"first exact run wins", "AB 1234 XY 567 NEIVA", Result{"ABX 123", "NEIVA", true}},
		{"city after comma prefix", "QWE 456 ,IBAGUE", Result{"QWE 456", "IBAGUE", true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ABC123, CITY", Sanitize("  abc-123, city\n"))
	assert.Equal(t, "STRASSE", Sanitize("straße"))
	assert.Equal(t, "", Sanitize("日本"))
}

func TestSanitizeFoldsAccentedLetters(t *testing.T) {
	assert.Equal(t, "NAB 123", Sanitize("ÑAB 123"))
	assert.Equal(t, "NAB 123", Normalize("ñab 123").Plate)
}

func allowed(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		return !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 ,", r)
	})
}

func TestNormalizeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output uses only the plate alphabet", prop.ForAll(
		func(raw string) bool {
			r := Normalize(raw)
			return allowed(r.Plate) && allowed(r.City)
		},
		gen.AnyString(),
	))

	properties.Property("strict plates have the canonical layout", prop.ForAll(
		func(raw string) bool {
			r := Normalize(raw)
			if !r.Strict {
				return true
			}
			p := r.Plate
			if len(p) != 7 || p[3] != ' ' {
				return false
			}
			for i := range 3 {
				if p[i] < 'A' || p[i] > 'Z' || p[i+4] < '0' || p[i+4] > '9' {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("normalizing a plate again is stable", prop.ForAll(
		func(raw string) bool {
			r := Normalize(raw)
			again := Normalize(r.Plate)
			return again.Plate == r.Plate && again.Strict == r.Strict
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
