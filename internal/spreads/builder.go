// Package spreads builds call credit spreads from an option chain and holds
// the leg-level and spread-level screening predicates.
package spreads

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/numeric"
)

// BuildCallCreditSpreads pairs every liquid short leg with every liquid,
// higher-strike long leg whose strike distance lies in [minDistance, maxDistance].
//
// The options are stable-sorted by strike first, so the scan can stop at the
// first long leg wider than maxDistance. Same-strike pairs never produce a spread.
// ⭐ SSOT: spread enumeration lives here only
func BuildCallCreditSpreads(chain contracts.OptionChain, minDistance, maxDistance float64, now time.Time) []contracts.CallCreditSpread {
	options := SortedByStrike(chain.Options)
	spreads := make([]contracts.CallCreditSpread, 0)

	for i := 0; i < len(options); i++ {
		shortLeg := options[i]
		if shortLeg.Illiquid() {
			continue
		}

		for j := i + 1; j < len(options); j++ {
			longLeg := options[j]
			distance := longLeg.Strike - shortLeg.Strike
			if longLeg.Illiquid() {
				continue
			}
			if distance <= 0 || distance < minDistance {
				continue
			}
			if distance > maxDistance {
				break
			}

			spreads = append(spreads, BuildCallCreditSpread(chain.Underlying, shortLeg, longLeg, now))
		}
	}

	return spreads
}

// BuildCallCreditSpread computes the metrics of a single spread.
// Callers guarantee longLeg.Strike > shortLeg.Strike; use ValidateSpread
// on spreads assembled from arbitrary legs.
func BuildCallCreditSpread(underlying contracts.Stock, shortLeg, longLeg contracts.Option, now time.Time) contracts.CallCreditSpread {
	distance := longLeg.Strike - shortLeg.Strike
	price := numeric.Round2(shortLeg.Price - longLeg.Price)
	maxProfit := 100 * price
	collateral := 100 * distance

	return contracts.CallCreditSpread{
		DateUpdated:        now,
		Underlying:         underlying,
		ShortLeg:           shortLeg,
		LongLeg:            longLeg,
		Expiration:         shortLeg.Expiration,
		Price:              price,
		MaxProfit:          maxProfit,
		MaxLoss:            collateral - maxProfit,
		ReturnAtExpiration: numeric.Round2(maxProfit / collateral),
		Collateral:         collateral,
		DaysToExpiration:   DaysToExpiration(shortLeg.Expiration, now),
	}
}

// ValidateSpread rejects zero-width or inverted spreads and non-finite metrics
func ValidateSpread(spread contracts.CallCreditSpread) error {
	if spread.Distance() <= 0 {
		return fmt.Errorf("%w: short strike %g, long strike %g",
			contracts.ErrComputationDegenerate, spread.ShortLeg.Strike, spread.LongLeg.Strike)
	}
	if !numeric.IsFinite(spread.ReturnAtExpiration) || !numeric.IsFinite(spread.Price) {
		return fmt.Errorf("%w: return %v, price %v",
			contracts.ErrComputationDegenerate, spread.ReturnAtExpiration, spread.Price)
	}
	return nil
}

// DaysToExpiration is the ceiling of calendar days from now to expiration
func DaysToExpiration(expiration, now time.Time) int {
	return int(math.Ceil(CalendarDays(expiration, now)))
}

// CalendarDays is the signed, fractional number of days from b to a
func CalendarDays(a, b time.Time) float64 {
	return a.Sub(b).Hours() / 24
}

// SortedByStrike returns a strike-ascending copy; ties keep chain order
func SortedByStrike(options []contracts.Option) []contracts.Option {
	sorted := make([]contracts.Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Strike < sorted[j].Strike
	})
	return sorted
}
