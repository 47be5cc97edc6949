// Package enrol drives voice enrolment and verification sessions: it
// sequences the prompts the user must speak, captures each utterance
// through a recorder, submits completed stages to the ArmorVox server
// and reacts to the server's condition codes.
package enrol

import (
	"math/rand/v2"
	"strings"
)

// SpeakItem is one thing the user is prompted to say. Text is what is
// shown; Spelling is the digit-by-digit transcription the text-prompted
// endpoints expect, empty for free-form phrases.
type SpeakItem struct {
	Text     string
	Spelling string
}

// NewNumberItem builds a SpeakItem for a digit string, deriving its
// spelling.
func NewNumberItem(text string) SpeakItem {
	return SpeakItem{Text: text, Spelling: Spelling(text)}
}

// NewPhraseItem builds a SpeakItem for a free-form phrase.
func NewPhraseItem(text string) SpeakItem {
	return SpeakItem{Text: text}
}

var digitWords = [...]string{
	"zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine",
}

// Spelling transcribes the digits 1-9 of a number string into words,
// each followed by a space. Zero and every non-digit character are
// skipped, so "4281 4281" becomes "four two eight one four two eight
// one ".
func Spelling(digits string) string {
	var b strings.Builder
	for _, r := range digits {
		if r >= '1' && r <= '9' {
			b.WriteString(digitWords[r-'0'])
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Numbers returns the fixed number prompts used for enrolment, in the
// order they are captured. The caller owns the returned slice.
func Numbers() []SpeakItem {
	texts := []string{
		"4281 4281",
		"3798 3798",
		"5043 5043",
		"123456789",
		"987654321",
	}
	items := make([]SpeakItem, len(texts))
	for i, t := range texts {
		items[i] = NewNumberItem(t)
	}
	return items
}

// RandomNumberString produces a verification challenge: four distinct
// digits from 1-9, repeated once with a separating space, e.g.
// "7391 7391".
func RandomNumberString() string {
	digits := []byte{'1', '2', '3', '4', '5', '6', '7', '8', '9'}
	rand.Shuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	})
	four := string(digits[:4])
	return four + " " + four
}
