package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oralabs/ora-memory/internal/models"
)

func TestScoreNoPhrases(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, models.RiskNone, s.Score("had a lovely walk in the park today"))
	assert.Equal(t, models.RiskNone, s.Score(""))
}

func TestScoreSingleHitDefaultsToMedium(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, models.RiskMedium, s.Score("everything feels hopeless lately"))
}

func TestScoreSingleHitConfigurable(t *testing.T) {
	s := NewScorer(WithSingleHitTier(models.RiskLow))

	assert.Equal(t, models.RiskLow, s.Score("everything feels hopeless lately"))
}

func TestScoreTwoPhrasesIsHigh(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, models.RiskHigh, s.Score("I feel worthless and hopeless"))
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, models.RiskMedium, s.Score("HOPELESS"))
	assert.Equal(t, models.RiskHigh, s.Score("Worthless and HopeLess"))
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer()

	input := "some days I just want to give up on all of it"
	first := s.Score(input)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, s.Score(input))
	}
}

// Phrase containment has no negation handling: a phrase inside a negated
// clause still counts. This pins down the documented limitation.
func TestScoreNegatedPhraseStillCounts(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, models.RiskMedium, s.Score("I do not want to hurt myself"))
}

func TestScoreCustomLexiconWeights(t *testing.T) {
	s := NewScorer(WithLexicon([]Phrase{
		{Text: "red flag", Weight: 2},
		{Text: "warning", Weight: 1},
	}))

	assert.Equal(t, models.RiskNone, s.Score("hopeless"))
	assert.Equal(t, models.RiskMedium, s.Score("just a warning"))
	// A single weight-2 phrase accumulates two hits
	assert.Equal(t, models.RiskHigh, s.Score("that is a red flag"))
}
