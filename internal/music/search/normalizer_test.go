package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Never Gonna Give You Up", "never gonna give you up"},
		{"collapses whitespace", "  rick   astley \t video ", "rick astley video"},
		{"empty input", "", ""},
		{"whitespace only", "   \t\n  ", ""},
		{"already normalized", "daft punk", "daft punk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in, 100))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Some  SONG   Title",
		"a b c",
		"  x  ",
		"a" + strings.Repeat("é", 50),
		strings.Repeat("日本語の曲 ", 30),
	}
	for _, in := range inputs {
		once := Normalize(in, 100)
		assert.Equal(t, once, Normalize(once, 100))
	}
}

func TestNormalizeCapsLength(t *testing.T) {
	long := "aaaa bbbb cccc dddd eeee"
	got := Normalize(long, 10)
	assert.LessOrEqual(t, len(got), 10)
	assert.Equal(t, got, Normalize(got, 10))
}

// The cap counts runes, never bytes: truncation must not cut a multibyte
// rune in half and leave invalid UTF-8 behind.
func TestNormalizeCapsOnRuneBoundary(t *testing.T) {
	long := "a" + strings.Repeat("é", 150)
	got := Normalize(long, 100)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 100)
	assert.Equal(t, got, Normalize(got, 100))
}

func TestStripFillers(t *testing.T) {
	fillers := DefaultFillerWords

	t.Run("strips filler tokens", func(t *testing.T) {
		got := StripFillers("rick astley never gonna official video", fillers)
		assert.Equal(t, "rick astley never gonna", got)
	})

	t.Run("short queries untouched", func(t *testing.T) {
		got := StripFillers("official video lyrics", fillers)
		assert.Equal(t, "official video lyrics", got)
	})

	t.Run("all fillers keeps original", func(t *testing.T) {
		got := StripFillers("official video lyrics audio", fillers)
		assert.Equal(t, "official video lyrics audio", got)
	})

	t.Run("no fillers is a no-op", func(t *testing.T) {
		got := StripFillers("four ordinary plain words", fillers)
		assert.Equal(t, "four ordinary plain words", got)
	})
}

// Filler stripping feeds the resolver, never the cache key: two queries that
// differ only in fillers must still key separately.
func TestStrippingDoesNotAffectKey(t *testing.T) {
	a := Normalize("rick astley never gonna official video", 100)
	b := Normalize("rick astley never gonna", 100)
	assert.NotEqual(t, Key(a, ModeSearch), Key(b, ModeSearch))
}
