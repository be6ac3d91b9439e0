package offer

import "math/rand/v2"

// Strategy picks which variant of a catalog page becomes the offer.
// Kept as an interface so the selection policy stays pluggable; the
// shipped policy is a placeholder, not a recommendation engine.
type Strategy interface {
	// Pick returns an index in [0, n). n is always >= 1.
	Pick(n int) int
}

// RandomStrategy selects uniformly at random from the page.
type RandomStrategy struct{}

func (RandomStrategy) Pick(n int) int { return rand.IntN(n) }

// FirstStrategy always selects the first variant. Deterministic; used in
// tests and local development.
type FirstStrategy struct{}

func (FirstStrategy) Pick(int) int { return 0 }
