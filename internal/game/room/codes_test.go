package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spyfall/internal/game/random"
)

func TestGenerateCodeShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		code := generateCode(rapidSource{rt})
		assert.Len(rt, code, codeLength)
		for _, ch := range code {
			assert.True(rt, strings.ContainsRune(codeAlphabet, ch), "unexpected glyph %q in code %q", ch, code)
		}
	})
}

func TestCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, ch := range "0O1IL" {
		assert.NotContains(t, codeAlphabet, string(ch))
	}
}

func TestGenerateCodeUsesCryptoSource(t *testing.T) {
	src := random.NewCryptoSource()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[generateCode(src)] = true
	}
	assert.Greater(t, len(seen), 1, "crypto source must not produce a constant code")
}
