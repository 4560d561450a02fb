// Package sentiment maps free text to a coarse polarity label using a
// fixed lexicon and a small set of rules. Scoring is deterministic and
// total over any input, including the empty string.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Label is the coarse sentiment of a piece of text.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

const (
	// alpha approximates the maximum expected valence sum; it keeps the
	// compound score inside (-1, 1).
	alpha = 15.0

	negationScale  = -0.74
	exclamationCap = 4
	exclamationAmp = 0.292
)

// Scorer computes compound polarity scores from the embedded lexicon.
type Scorer struct{}

// NewScorer returns a ready-to-use scorer.
func NewScorer() *Scorer { return &Scorer{} }

// Score returns the sentiment label for text.
func (s *Scorer) Score(text string) Label {
	return LabelFor(s.Compound(text))
}

// LabelFor maps a compound score to a label. The boundaries are inclusive:
// exactly 0.05 is positive and exactly -0.05 is negative.
func LabelFor(compound float64) Label {
	switch {
	case compound >= 0.05:
		return Positive
	case compound <= -0.05:
		return Negative
	default:
		return Neutral
	}
}

// Compound returns the normalized valence sum in (-1, 1). Zero for text
// containing no lexicon words.
func (s *Scorer) Compound(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	sum := 0.0
	for i, tok := range tokens {
		valence, ok := lexicon[tok]
		if !ok {
			continue
		}
		valence *= boost(tokens, i)
		if negated(tokens, i) {
			valence *= negationScale
		}
		sum += valence
	}

	if sum == 0 {
		return 0
	}

	// Trailing exclamation marks amplify whichever direction the text
	// already leans.
	if n := exclamations(text); n > 0 {
		amp := float64(n) * exclamationAmp
		if sum > 0 {
			sum += amp
		} else {
			sum -= amp
		}
	}

	return sum / math.Sqrt(sum*sum+alpha)
}

// boost applies degree modifiers found in the two tokens before position i.
func boost(tokens []string, i int) float64 {
	factor := 1.0
	for back := 1; back <= 2 && i-back >= 0; back++ {
		if b, ok := boosters[tokens[i-back]]; ok {
			// Modifiers further away contribute less.
			if back == 2 {
				b *= 0.95
			}
			factor += b
		}
	}
	if factor < 0 {
		factor = 0
	}
	return factor
}

// negated reports whether a negator appears in the three tokens before
// position i.
func negated(tokens []string, i int) bool {
	for back := 1; back <= 3 && i-back >= 0; back++ {
		if negators[tokens[i-back]] {
			return true
		}
	}
	return false
}

func exclamations(text string) int {
	n := strings.Count(text, "!")
	if n > exclamationCap {
		n = exclamationCap
	}
	return n
}

// tokenize lowercases and splits text into words, keeping intra-word
// apostrophes so contractions match the negator list.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
