/*
Package seed loads season configuration from JSON.

PURPOSE:
  Converts a JSON season definition into rate rules, holidays and
  standard schedule rules, and loads them into a store. This enables
  season setup without code changes - the club office can maintain one
  JSON file per season, and the server imports it at startup.

WHY JSON?
  - Non-developers can maintain the season file
  - Version control for rate and schedule history
  - One import path for dev fixtures and production setup

JSON SCHEMA:
  {
    "rates": [
      {"role": "trainer", "hourlyWage": "20.00", "setupBonus": "10.00",
       "effectiveFrom": "2025-01-01"}
    ],
    "holidays": ["2025-04-18", "2025-05-01"],
    "schedules": [
      {"sport": "judo", "weekday": 1, "start": "18:00", "end": "19:30",
       "validFrom": "2025-01-01", "validTo": "2025-07-01"}
    ]
  }

IDEMPOTENCE:
  Holidays dedupe in the store. Rates and schedules append, so re-running
  an unchanged seed file against a live database duplicates them; seed on
  a fresh database or extend the file instead of re-importing.
*/
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// SEASON CONFIG
// =============================================================================

type SeasonConfig struct {
	Rates     []RateConfig     `json:"rates"`
	Holidays  []string         `json:"holidays"`
	Schedules []ScheduleConfig `json:"schedules"`
}

type RateConfig struct {
	Role          string `json:"role"`
	HourlyWage    string `json:"hourlyWage"`
	SetupBonus    string `json:"setupBonus"`
	EffectiveFrom string `json:"effectiveFrom"`
}

type ScheduleConfig struct {
	Sport     string  `json:"sport"`
	Weekday   int     `json:"weekday"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	ValidFrom string  `json:"validFrom"`
	ValidTo   *string `json:"validTo,omitempty"`
}

// Parse decodes and validates a season config.
func Parse(data []byte) (*SeasonConfig, error) {
	var cfg SeasonConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse season config: %w", err)
	}
	for i, r := range cfg.Rates {
		if r.Role == "" {
			return nil, fmt.Errorf("rate %d: role is required", i)
		}
		if _, err := r.toRule(); err != nil {
			return nil, fmt.Errorf("rate %d (%s): %w", i, r.Role, err)
		}
	}
	for i, d := range cfg.Holidays {
		if _, err := billing.ParseDate(d); err != nil {
			return nil, fmt.Errorf("holiday %d: %w", i, err)
		}
	}
	for i, s := range cfg.Schedules {
		if s.Weekday < 0 || s.Weekday > 6 {
			return nil, fmt.Errorf("schedule %d (%s): weekday must be 0-6", i, s.Sport)
		}
		if _, err := s.toRule(); err != nil {
			return nil, fmt.Errorf("schedule %d (%s): %w", i, s.Sport, err)
		}
	}
	return &cfg, nil
}

// ParseFile reads and parses a season config file.
func ParseFile(path string) (*SeasonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read season config: %w", err)
	}
	return Parse(data)
}

// Apply loads the parsed config into the store.
func (cfg *SeasonConfig) Apply(ctx context.Context, s billing.Store) error {
	for _, r := range cfg.Rates {
		rule, err := r.toRule()
		if err != nil {
			return err
		}
		if err := s.CreateRateRule(ctx, rule); err != nil {
			return fmt.Errorf("seed rate %s: %w", r.Role, err)
		}
	}
	for _, d := range cfg.Holidays {
		date, err := billing.ParseDate(d)
		if err != nil {
			return err
		}
		if err := s.AddHoliday(ctx, date); err != nil {
			return fmt.Errorf("seed holiday %s: %w", d, err)
		}
	}
	for _, sc := range cfg.Schedules {
		rule, err := sc.toRule()
		if err != nil {
			return err
		}
		if err := s.CreateScheduleRule(ctx, rule); err != nil {
			return fmt.Errorf("seed schedule %s: %w", sc.Sport, err)
		}
	}
	return nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (r RateConfig) toRule() (billing.RateRule, error) {
	wage, err := billing.ParseMoney(r.HourlyWage)
	if err != nil {
		return billing.RateRule{}, err
	}
	bonus, err := billing.ParseMoney(r.SetupBonus)
	if err != nil {
		return billing.RateRule{}, err
	}
	from, err := billing.ParseDate(r.EffectiveFrom)
	if err != nil {
		return billing.RateRule{}, err
	}
	return billing.RateRule{
		Role:          billing.Role(r.Role),
		HourlyWage:    wage,
		SetupBonus:    bonus,
		EffectiveFrom: from,
	}, nil
}

func (s ScheduleConfig) toRule() (billing.ScheduleRule, error) {
	start, err := billing.ParseClockTime(s.Start)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	end, err := billing.ParseClockTime(s.End)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	from, err := billing.ParseDate(s.ValidFrom)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	rule := billing.ScheduleRule{
		Sport:     s.Sport,
		Weekday:   s.Weekday,
		Start:     start,
		End:       end,
		ValidFrom: from,
	}
	if s.ValidTo != nil {
		to, err := billing.ParseDate(*s.ValidTo)
		if err != nil {
			return billing.ScheduleRule{}, err
		}
		rule.ValidTo = &to
	}
	return rule, nil
}
