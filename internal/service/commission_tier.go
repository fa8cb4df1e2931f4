package service

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CommissionTier pays RatePercent on the cumulative purchase band ending at UpTo; the last tier is unbounded
type CommissionTier struct {
	UpTo        *decimal.Decimal
	RatePercent decimal.Decimal
}

// DefaultCommissionTiers is low rate up to threshold and high rate above it
func DefaultCommissionTiers(threshold, lowRate, highRate decimal.Decimal) []CommissionTier {
	upTo := threshold
	return []CommissionTier{
		{UpTo: &upTo, RatePercent: lowRate},
		{RatePercent: highRate},
	}
}

// ComputeTieredAmount prices the purchase moving a buyer from before to after across the tiers.
// An order straddling a boundary is pro-rated across both bands.
func ComputeTieredAmount(before, after decimal.Decimal, tiers []CommissionTier) decimal.Decimal {
	if after.LessThanOrEqual(before) || len(tiers) == 0 {
		return decimal.Zero
	}
	ordered := sortTiers(tiers)
	amount := decimal.Zero
	lower := decimal.Zero
	for _, tier := range ordered {
		from := decimal.Max(before, lower)
		to := after
		if tier.UpTo != nil {
			to = decimal.Min(after, *tier.UpTo)
		}
		if to.GreaterThan(from) {
			amount = amount.Add(percentOf(to.Sub(from), tier.RatePercent))
		}
		if tier.UpTo == nil {
			break
		}
		lower = *tier.UpTo
		if lower.GreaterThanOrEqual(after) {
			break
		}
	}
	return amount.Round(2)
}

// EffectiveRate is the blended percent paid on amount
func EffectiveRate(commission, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return commission.Mul(hundred).Div(amount).Round(4)
}

func sortTiers(tiers []CommissionTier) []CommissionTier {
	ordered := make([]CommissionTier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UpTo == nil {
			return false
		}
		if ordered[j].UpTo == nil {
			return true
		}
		return ordered[i].UpTo.LessThan(*ordered[j].UpTo)
	})
	return ordered
}
