package room

import "github.com/cory-johannsen/spyfall/internal/game/random"

// codeAlphabet excludes glyphs that read ambiguously when typed from a
// shared screen: 0, O, 1, I, L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// codeLength is the join-code length. 31^6 codes keeps collisions rare at
// any realistic concurrent room count.
const codeLength = 6

// generateCode produces a human-typeable join code from src.
func generateCode(src random.Source) string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[src.Intn(len(codeAlphabet))]
	}
	return string(code)
}
