// Package tier maps accumulated LEARNY tokens to named milestones.
// This is a pure domain layer with zero external dependencies.
package tier

import (
	"fmt"
	"math"
	"strings"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// DefaultTokensPerDay is the number of tokens earned per active day.
const DefaultTokensPerDay = 2

// Tier is a named milestone unlocked once tokens reach its threshold.
type Tier struct {
	Name      string `json:"name" yaml:"name"`
	Threshold int    `json:"threshold" yaml:"threshold"`
}

// Ladder is a fixed list of tiers with strictly increasing thresholds,
// starting at zero so that every token count has a tier. Negative token
// counts are treated as zero.
type Ladder struct {
	tiers []Tier
}

// DefaultTiers is the ladder used when no tier file is configured.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Novice", Threshold: 0},
		{Name: "Apprentice", Threshold: 20},
		{Name: "Scholar", Threshold: 60},
		{Name: "Expert", Threshold: 120},
		{Name: "Master", Threshold: 200},
		{Name: "Legend", Threshold: 365},
	}
}

// DefaultLadder returns the built-in ladder.
func DefaultLadder() *Ladder {
	l, err := NewLadder(DefaultTiers())
	if err != nil {
		panic(err)
	}
	return l
}

// NewLadder validates and copies tiers into a Ladder.
func NewLadder(tiers []Tier) (*Ladder, error) {
	if len(tiers) == 0 {
		return nil, invalid("ladder has no tiers")
	}
	if tiers[0].Threshold != 0 {
		return nil, invalid(fmt.Sprintf("first tier %q must have threshold 0, got %d", tiers[0].Name, tiers[0].Threshold))
	}

	seen := make(map[string]struct{}, len(tiers))
	for i, t := range tiers {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, invalid(fmt.Sprintf("tier %d has no name", i))
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, invalid(fmt.Sprintf("duplicate tier name %q", name))
		}
		seen[key] = struct{}{}

		if i > 0 && t.Threshold <= tiers[i-1].Threshold {
			return nil, invalid(fmt.Sprintf("tier %q threshold %d must be greater than %d", name, t.Threshold, tiers[i-1].Threshold))
		}
	}

	copied := make([]Tier, len(tiers))
	copy(copied, tiers)
	return &Ladder{tiers: copied}, nil
}

func invalid(msg string) error {
	return shared.WrapError("tier", "NewLadder", shared.ErrInvalidLadder, msg, nil)
}

// Tiers returns a copy of the ladder in ascending order.
func (l *Ladder) Tiers() []Tier {
	out := make([]Tier, len(l.tiers))
	copy(out, l.tiers)
	return out
}

// Top returns the highest tier.
func (l *Ladder) Top() Tier {
	return l.tiers[len(l.tiers)-1]
}

// TierFor returns the highest tier whose threshold is at most tokens.
func (l *Ladder) TierFor(tokens int) Tier {
	tokens = max(tokens, 0)
	current := l.tiers[0]
	for _, t := range l.tiers[1:] {
		if t.Threshold > tokens {
			break
		}
		current = t
	}
	return current
}

// NextTier returns the first tier above tokens, or false at the top tier.
func (l *Ladder) NextTier(tokens int) (Tier, bool) {
	tokens = max(tokens, 0)
	for _, t := range l.tiers {
		if t.Threshold > tokens {
			return t, true
		}
	}
	return Tier{}, false
}

// ProgressToNext returns the percentage of the way from the current tier to
// the next one, clamped to [0, 100]. It is 100 at the top tier.
func (l *Ladder) ProgressToNext(tokens int) float64 {
	tokens = max(tokens, 0)
	next, ok := l.NextTier(tokens)
	if !ok {
		return 100
	}
	current := l.TierFor(tokens)

	span := float64(next.Threshold - current.Threshold)
	progress := float64(tokens-current.Threshold) / span * 100
	return math.Max(0, math.Min(100, progress))
}

// TokensForActiveDays converts active days into LEARNY tokens.
func TokensForActiveDays(activeDays, tokensPerDay int) int {
	if activeDays < 0 {
		activeDays = 0
	}
	if tokensPerDay <= 0 {
		tokensPerDay = DefaultTokensPerDay
	}
	return activeDays * tokensPerDay
}

// Standing is the tier view for one token total.
type Standing struct {
	Tokens   int     `json:"tokens"`
	Current  Tier    `json:"current"`
	Next     *Tier   `json:"next,omitempty"`
	Progress float64 `json:"progress"`
}

// StandingFor builds the tier view for tokens.
func (l *Ladder) StandingFor(tokens int) Standing {
	s := Standing{
		Tokens:   tokens,
		Current:  l.TierFor(tokens),
		Progress: l.ProgressToNext(tokens),
	}
	if next, ok := l.NextTier(tokens); ok {
		s.Next = &next
	}
	return s
}
