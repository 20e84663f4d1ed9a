package board

import (
	"strings"
	"unicode"
)

// Spell breaks an answer into the symbols the planchette visits. Whole
// words YES, NO and GOODBYE become their board tokens; other letters and
// digits are visited one at a time; whitespace runs collapse into a single
// space and anything else is skipped.
func Spell(text string) []Symbol {
	var out []Symbol
	for _, word := range strings.Fields(strings.ToUpper(text)) {
		var syms []Symbol
		switch tok := Symbol(strings.TrimFunc(word, notSpellable)); tok {
		case Yes, No, Goodbye:
			syms = []Symbol{tok}
		default:
			for _, r := range word {
				if spellable(r) {
					syms = append(syms, Symbol(string(r)))
				}
			}
		}
		if len(syms) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, Space)
		}
		out = append(out, syms...)
	}
	return out
}

// Join concatenates symbols into display text
func Join(symbols []Symbol) string {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(string(s))
	}
	return b.String()
}

// spellable reports whether r has its own cell on the board
func spellable(r rune) bool {
	return !unicode.IsSpace(r) && Known(string(r))
}

func notSpellable(r rune) bool {
	return !spellable(r) && !unicode.IsSpace(r)
}
