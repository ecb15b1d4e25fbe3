// Package pricing turns a catalog base price into the price quoted to a fan.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Multipliers holds one price multiplier per fan tier, index = tier.
type Multipliers []decimal.Decimal

// DefaultMultipliers: new fans pay base price, mid spenders 1.2x, whales 1.5x.
func DefaultMultipliers() Multipliers {
	return Multipliers{
		decimal.NewFromInt(1),
		decimal.RequireFromString("1.2"),
		decimal.RequireFromString("1.5"),
	}
}

// FromFloats builds multipliers from config values. An empty list gives the defaults.
func FromFloats(values []float64) Multipliers {
	if len(values) == 0 {
		return DefaultMultipliers()
	}
	m := make(Multipliers, len(values))
	for i, v := range values {
		m[i] = decimal.NewFromFloat(v)
	}
	return m
}

// For returns the multiplier of tier, clamped to the known tiers.
func (m Multipliers) For(tier int) decimal.Decimal {
	if len(m) == 0 {
		return decimal.NewFromInt(1)
	}
	if tier < 0 {
		tier = 0
	}
	if tier >= len(m) {
		tier = len(m) - 1
	}
	return m[tier]
}

// Price quotes base for a fan of tier, rounded to cents.
func (m Multipliers) Price(base decimal.Decimal, tier int) decimal.Decimal {
	return base.Mul(m.For(tier)).Round(2)
}
