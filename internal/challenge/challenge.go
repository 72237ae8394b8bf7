// Package challenge maps a risk score to a verification challenge. Tier
// selection is a pure threshold lookup; the script text chosen within a
// tier is uniform-random display content and never feeds back into
// scoring.
package challenge

import "math/rand/v2"

// Tier classifies how probing the challenge should be, ordered by
// increasing suspicion.
type Tier string

const (
	// TierPreference asks a low-friction personal-preference question.
	TierPreference Tier = "PREFERENCE"

	// TierLinguisticTrap asks a question a scripted caller answers
	// unnaturally.
	TierLinguisticTrap Tier = "LINGUISTIC_TRAP"

	// TierCriticalContext demands context only the genuine caller holds.
	TierCriticalContext Tier = "CRITICAL_CONTEXT"
)

// Record is one selected challenge: the tier and the display script.
type Record struct {
	Tier   Tier   `json:"type"`
	Script string `json:"script"`
}

// Catalog maps tiers to candidate scripts. The content is data, not
// logic — callers may supply their own catalog to [Selector].
type Catalog map[Tier][]string

// defaultCatalog ships a minimal script set per tier.
var defaultCatalog = Catalog{
	TierPreference: {
		"Before we continue — out of curiosity, do you prefer calls in the morning or the afternoon?",
		"Quick one while I pull this up: coffee or tea person?",
		"While that loads — window seat or aisle?",
	},
	TierLinguisticTrap: {
		"Just to confirm the account, could you describe in your own words what you were doing when the issue started?",
		"Can you walk me back through yesterday's call in a sentence or two?",
		"In your own words, what outcome would make this call a success for you?",
	},
	TierCriticalContext: {
		"For security, please describe the last in-branch visit you made, including roughly when it was.",
		"I need to verify this myself: what was the exact reason you gave when this account was opened?",
		"Please state the name of the representative you spoke with last and what was agreed.",
	},
}

// SelectTier maps a risk score to a challenge tier.
func SelectTier(score float64) Tier {
	switch {
	case score > 70:
		return TierCriticalContext
	case score > 40:
		return TierLinguisticTrap
	default:
		return TierPreference
	}
}

// Selector picks challenge records for scores. The zero-value Selector
// uses the built-in catalog.
type Selector struct {
	// Catalog overrides the built-in script catalog when non-nil.
	Catalog Catalog
}

// Select returns the challenge record for score: the tier from
// [SelectTier] and a uniformly random script from that tier's catalog
// entry.
func (s *Selector) Select(score float64) Record {
	tier := SelectTier(score)

	catalog := s.Catalog
	if catalog == nil {
		catalog = defaultCatalog
	}
	scripts := catalog[tier]
	if len(scripts) == 0 {
		return Record{Tier: tier}
	}
	return Record{
		Tier:   tier,
		Script: scripts[rand.IntN(len(scripts))],
	}
}
