// Package risk scores free text against a weighted crisis-indicator lexicon.
package risk

import (
	"strings"

	"github.com/oralabs/ora-memory/internal/models"
)

// Phrase is a single crisis indicator with its weight. Matching is
// case-insensitive substring containment; there is no stemming and no
// negation handling, so a phrase inside a negated clause still counts.
// That limitation is deliberate and covered by tests.
type Phrase struct {
	Text   string
	Weight int
}

// DefaultLexicon returns the stock crisis-indicator phrases, all weight 1.
func DefaultLexicon() []Phrase {
	texts := []string{
		"suicide",
		"kill myself",
		"end it all",
		"want to die",
		"not worth living",
		"hurt myself",
		"self harm",
		"cutting",
		"overdose",
		"jump off",
		"hanging",
		"worthless",
		"hopeless",
		"can't go on",
		"better off dead",
		"can't take it",
		"no point",
		"give up",
	}
	phrases := make([]Phrase, len(texts))
	for i, t := range texts {
		phrases[i] = Phrase{Text: t, Weight: 1}
	}
	return phrases
}

// Scorer maps text to a risk tier by accumulating lexicon hits.
// Score is a pure function: no I/O, deterministic for identical input.
type Scorer struct {
	phrases       []Phrase
	singleHitTier models.RiskTier
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLexicon replaces the default phrase list.
func WithLexicon(phrases []Phrase) Option {
	return func(s *Scorer) {
		s.phrases = phrases
	}
}

// WithSingleHitTier sets the tier assigned when exactly one weighted hit
// accumulates. Deployments disagree on whether one hit is "low" or
// "medium", so this is configuration rather than policy baked in here.
func WithSingleHitTier(tier models.RiskTier) Option {
	return func(s *Scorer) {
		s.singleHitTier = tier
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		phrases:       DefaultLexicon(),
		singleHitTier: models.RiskMedium,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score accumulates the weights of every lexicon phrase contained in text
// and maps the total to a tier: 0 hits is none, exactly 1 is the
// configured single-hit tier, 2 or more is high.
func (s *Scorer) Score(text string) models.RiskTier {
	lowered := strings.ToLower(text)

	hits := 0
	for _, phrase := range s.phrases {
		if strings.Contains(lowered, strings.ToLower(phrase.Text)) {
			hits += phrase.Weight
		}
	}

	switch {
	case hits == 0:
		return models.RiskNone
	case hits == 1:
		return s.singleHitTier
	default:
		return models.RiskHigh
	}
}
