/*
wage.go - Pricing one session

PURPOSE:
  Composes Duration and ResolveRate into a priced amount for a single
  entry. Pure function: same entry, same rules, same price.

SETUP COMPENSATION:
  "Setup" (Aufbau) is preparation work before a session. The predecessor
  system mixed two interpretations across code paths; the engine fixes on
  exactly one per run, selected by SetupMode:

    SetupFlatBonus     (default) add the rate rule's SetupBonus amount
    SetupExtraHalfHour (variant) add 0.5h to the duration before pricing

  Never both. The flat bonus sourced from the RateRule is the semantic
  this engine standardizes on.

ROUNDING:
  None here. Per-line amounts stay exact; two-decimal rounding happens
  once at total aggregation in the reconciler.
*/
package billing

import "github.com/shopspring/decimal"

// =============================================================================
// SETUP MODE
// =============================================================================

type SetupMode string

const (
	SetupFlatBonus     SetupMode = "flat_bonus"
	SetupExtraHalfHour SetupMode = "extra_half_hour"
)

var halfHour = decimal.NewFromFloat(0.5)

// Normalize maps the zero value onto the default semantic. Statements
// persist the normalized mode so re-reconciliation reproduces them.
func (m SetupMode) Normalize() SetupMode {
	if m == SetupExtraHalfHour {
		return SetupExtraHalfHour
	}
	return SetupFlatBonus
}

// =============================================================================
// PRICING
// =============================================================================

// Priced is the result of pricing a single entry.
type Priced struct {
	Hours  decimal.Decimal
	Rate   RateRule
	Amount Money
}

// PriceEntry prices one entry against the rate table:
// duration(hours) x hourly wage, plus setup compensation per mode.
func PriceEntry(e TimeEntry, rules []RateRule, mode SetupMode) (Priced, error) {
	hours, err := Duration(e.Start, e.End)
	if err != nil {
		return Priced{}, err
	}

	rate, err := ResolveRate(e.Role, e.Date, rules)
	if err != nil {
		return Priced{}, err
	}

	mode = mode.Normalize()
	if e.Setup && mode == SetupExtraHalfHour {
		hours = hours.Add(halfHour)
	}

	amount := rate.HourlyWage.MulDecimal(hours)
	if e.Setup && mode == SetupFlatBonus {
		amount = amount.Add(rate.SetupBonus)
	}

	return Priced{Hours: hours, Rate: rate, Amount: amount}, nil
}
