// Package textrev reverses text in the process's multi-byte encoding while
// keeping combining diacritical marks attached to their base character.
//
// Text is decoded to code points using the active locale, the order of
// clusters (a base character followed by its combining marks) is reversed
// with each cluster copied intact, and the result is re-encoded. Malformed
// input is reported as a *errors.DecodeError, never repaired.
package textrev

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

// Reverse reverses text using the process locale.
func Reverse(text []byte) ([]byte, error) {
	return CurrentLocale().Reverse(text)
}

// ReverseString reverses a UTF-8 string.
func ReverseString(s string) (string, error) {
	out, err := UTF8Locale("").Reverse([]byte(s))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ReverseGraphemes reverses text using the process locale, treating full
// extended grapheme clusters (UAX #29) as the unit of reversal.
func ReverseGraphemes(text []byte) ([]byte, error) {
	return CurrentLocale().ReverseGraphemes(text)
}

// Reverse reverses text encoded in l, keeping each base character and its
// trailing combining marks together in their original order.
func (l Locale) Reverse(text []byte) ([]byte, error) {
	runes, err := l.decode(text)
	if err != nil {
		return nil, err
	}
	return l.encode(ReverseClusters(runes))
}

// ReverseGraphemes reverses text encoded in l by extended grapheme cluster.
func (l Locale) ReverseGraphemes(text []byte) ([]byte, error) {
	runes, err := l.decode(text)
	if err != nil {
		return nil, err
	}

	var clusters []string
	g := uniseg.NewGraphemes(string(runes))
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	out := make([]rune, 0, len(runes))
	for i := len(clusters) - 1; i >= 0; i-- {
		out = append(out, []rune(clusters[i])...)
	}
	return l.encode(out)
}

// ReverseClusters returns a new slice holding the clusters of u in reverse
// order. A cluster is a base code point followed by the combining marks after
// it; marks at the very start of u form a cluster based at index 0.
func ReverseClusters(u []rune) []rune {
	out := make([]rune, len(u))
	pos := 0
	for end := len(u); end > 0; {
		i := end - 1
		for i > 0 && IsCombiningMark(u[i]) {
			i--
		}
		pos += copy(out[pos:], u[i:end])
		end = i
	}
	return out
}

func (l Locale) decode(text []byte) ([]rune, error) {
	if l.Encoding == nil || l.IsUTF8() {
		return decodeUTF8(text)
	}

	decoded, err := l.Encoding.NewDecoder().Bytes(text)
	if err != nil {
		return nil, &errors.DecodeError{Encoding: l.Codeset, Offset: -1, Err: err}
	}
	runes := make([]rune, 0, utf8.RuneCount(decoded))
	for _, r := range string(decoded) {
		// Legacy decoders substitute U+FFFD for sequences they cannot map.
		if r == utf8.RuneError {
			return nil, &errors.DecodeError{Encoding: l.Codeset, Offset: -1}
		}
		runes = append(runes, r)
	}
	return runes, nil
}

func decodeUTF8(text []byte) ([]rune, error) {
	runes := make([]rune, 0, utf8.RuneCount(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRune(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return nil, &errors.DecodeError{Encoding: "UTF-8", Offset: i}
		}
		runes = append(runes, r)
		i += size
	}
	return runes, nil
}

func (l Locale) encode(runes []rune) ([]byte, error) {
	out := []byte(string(runes))
	if l.Encoding == nil || l.IsUTF8() {
		return out, nil
	}

	encoded, err := l.Encoding.NewEncoder().Bytes(out)
	if err != nil {
		return nil, &errors.EncodeError{Encoding: l.Codeset, Err: err}
	}
	return encoded, nil
}
