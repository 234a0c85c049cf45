package models

// RiskTier is an ordinal crisis-severity classification derived from
// lexicon matching of the user's message.
type RiskTier int

const (
	RiskNone RiskTier = iota
	RiskLow
	RiskMedium
	RiskHigh
)

func (t RiskTier) String() string {
	switch t {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the defined tiers.
func (t RiskTier) Valid() bool {
	return t >= RiskNone && t <= RiskHigh
}
