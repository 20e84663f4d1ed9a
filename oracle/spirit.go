package oracle

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"planchette/history"
)

// Spirit answers offline. The same question always gets the same answer.
type Spirit struct{}

var (
	yesNoOpeners = []string{
		"is", "are", "am", "was", "were", "do", "does", "did", "will", "would",
		"can", "could", "should", "shall", "have", "has", "may", "might",
	}
	farewells = []string{"bye", "goodbye", "farewell", "leave", "go away", "stop"}
	musings   = []string{
		"SOON", "ASK AGAIN", "BEHIND YOU", "THE NUMBER 7", "NOT YET",
		"I SEE YOU", "LISTEN", "THE DOOR", "1913", "WHO ASKS",
	}
)

func (Spirit) Answer(ctx context.Context, question string, _ []history.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return "", ErrEmptyQuestion
	}

	words := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	if len(words) == 0 {
		words = []string{q}
	}
	padded := " " + strings.Join(words, " ") + " "
	for _, f := range farewells {
		if strings.Contains(padded, " "+f+" ") {
			return "GOODBYE", nil
		}
	}

	h := fnv.New32a()
	h.Write([]byte(q))
	sum := h.Sum32()

	first := words[0]
	for _, w := range yesNoOpeners {
		if first == w {
			if sum%2 == 0 {
				return "YES", nil
			}
			return "NO", nil
		}
	}
	return musings[sum%uint32(len(musings))], nil
}
