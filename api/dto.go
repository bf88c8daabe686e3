/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP layer, plus conversion to and from the engine
  types. Dates are "2006-01-02", clock times "HH:MM" - the same wire
  formats the store persists. All parsing funnels through the billing
  package so there is exactly one midnight rule and one date format.
*/
package api

import (
	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// ENTRIES
// =============================================================================

type EntryDTO struct {
	ID      string `json:"id,omitempty"`
	Trainer string `json:"trainer"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Sport   string `json:"sport"`
	Field   string `json:"field"`
	Role    string `json:"role"`
	Setup   bool   `json:"setup"`
}

func (d EntryDTO) toEntry() (billing.TimeEntry, error) {
	date, err := billing.ParseDate(d.Date)
	if err != nil {
		return billing.TimeEntry{}, err
	}
	start, err := billing.ParseClockTime(d.Start)
	if err != nil {
		return billing.TimeEntry{}, err
	}
	end, err := billing.ParseClockTime(d.End)
	if err != nil {
		return billing.TimeEntry{}, err
	}
	// Reject zero-length sessions up front; under wraparound semantics
	// start == end would read as a full day.
	if _, err := billing.Duration(start, end); err != nil {
		return billing.TimeEntry{}, err
	}
	return billing.TimeEntry{
		ID:      d.ID,
		Trainer: d.Trainer,
		Date:    date,
		Start:   start,
		End:     end,
		Sport:   d.Sport,
		Field:   d.Field,
		Role:    billing.Role(d.Role),
		Setup:   d.Setup,
	}, nil
}

func fromEntry(e billing.TimeEntry) EntryDTO {
	return EntryDTO{
		ID:      e.ID,
		Trainer: e.Trainer,
		Date:    e.Date.String(),
		Start:   e.Start.String(),
		End:     e.End.String(),
		Sport:   e.Sport,
		Field:   e.Field,
		Role:    string(e.Role),
		Setup:   e.Setup,
	}
}

// =============================================================================
// CORRECTIONS
// =============================================================================

type CorrectionDTO struct {
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Trainer string `json:"trainer"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Sport   string `json:"sport"`
	Field   string `json:"field"`
	Role    string `json:"role"`
	Setup   bool   `json:"setup"`
	Ref     string `json:"ref,omitempty"`
	Comment string `json:"comment,omitempty"`
	Month   int    `json:"month"`
	Year    int    `json:"year"`
}

func (d CorrectionDTO) toCorrection() (billing.Correction, error) {
	date, err := billing.ParseDate(d.Date)
	if err != nil {
		return billing.Correction{}, err
	}
	start, err := billing.ParseClockTime(d.Start)
	if err != nil {
		return billing.Correction{}, err
	}
	end, err := billing.ParseClockTime(d.End)
	if err != nil {
		return billing.Correction{}, err
	}
	c := billing.Correction{
		ID:      d.ID,
		Kind:    billing.CorrectionKind(d.Kind),
		Trainer: d.Trainer,
		Date:    date,
		Start:   start,
		End:     end,
		Sport:   d.Sport,
		Field:   d.Field,
		Role:    billing.Role(d.Role),
		Setup:   d.Setup,
		Ref:     d.Ref,
		Comment: d.Comment,
		Month:   d.Month,
		Year:    d.Year,
	}
	if err := c.Validate(); err != nil {
		return billing.Correction{}, err
	}
	return c, nil
}

func fromCorrection(c billing.Correction) CorrectionDTO {
	return CorrectionDTO{
		ID:      c.ID,
		Kind:    string(c.Kind),
		Trainer: c.Trainer,
		Date:    c.Date.String(),
		Start:   c.Start.String(),
		End:     c.End.String(),
		Sport:   c.Sport,
		Field:   c.Field,
		Role:    string(c.Role),
		Setup:   c.Setup,
		Ref:     c.Ref,
		Comment: c.Comment,
		Month:   c.Month,
		Year:    c.Year,
	}
}

// =============================================================================
// RATES, HOLIDAYS, SCHEDULES
// =============================================================================

type RateRuleDTO struct {
	Role          string `json:"role"`
	HourlyWage    string `json:"hourlyWage"`
	SetupBonus    string `json:"setupBonus"`
	EffectiveFrom string `json:"effectiveFrom"`
}

func (d RateRuleDTO) toRateRule() (billing.RateRule, error) {
	from, err := billing.ParseDate(d.EffectiveFrom)
	if err != nil {
		return billing.RateRule{}, err
	}
	wage, err := billing.ParseMoney(d.HourlyWage)
	if err != nil {
		return billing.RateRule{}, err
	}
	bonus, err := billing.ParseMoney(d.SetupBonus)
	if err != nil {
		return billing.RateRule{}, err
	}
	return billing.RateRule{
		Role:          billing.Role(d.Role),
		HourlyWage:    wage,
		SetupBonus:    bonus,
		EffectiveFrom: from,
	}, nil
}

func fromRateRule(r billing.RateRule) RateRuleDTO {
	return RateRuleDTO{
		Role:          string(r.Role),
		HourlyWage:    r.HourlyWage.String(),
		SetupBonus:    r.SetupBonus.String(),
		EffectiveFrom: r.EffectiveFrom.String(),
	}
}

type HolidayDTO struct {
	Date string `json:"date"`
}

type ScheduleRuleDTO struct {
	Sport     string  `json:"sport"`
	Weekday   int     `json:"weekday"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	ValidFrom string  `json:"validFrom"`
	ValidTo   *string `json:"validTo,omitempty"`
}

func (d ScheduleRuleDTO) toScheduleRule() (billing.ScheduleRule, error) {
	start, err := billing.ParseClockTime(d.Start)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	end, err := billing.ParseClockTime(d.End)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	from, err := billing.ParseDate(d.ValidFrom)
	if err != nil {
		return billing.ScheduleRule{}, err
	}
	r := billing.ScheduleRule{
		Sport:     d.Sport,
		Weekday:   d.Weekday,
		Start:     start,
		End:       end,
		ValidFrom: from,
	}
	if d.ValidTo != nil {
		to, err := billing.ParseDate(*d.ValidTo)
		if err != nil {
			return billing.ScheduleRule{}, err
		}
		r.ValidTo = &to
	}
	return r, nil
}

func fromScheduleRule(r billing.ScheduleRule) ScheduleRuleDTO {
	d := ScheduleRuleDTO{
		Sport:     r.Sport,
		Weekday:   r.Weekday,
		Start:     r.Start.String(),
		End:       r.End.String(),
		ValidFrom: r.ValidFrom.String(),
	}
	if r.ValidTo != nil {
		s := r.ValidTo.String()
		d.ValidTo = &s
	}
	return d
}

// =============================================================================
// STATEMENTS, LEDGERS
// =============================================================================

type StatementDTO struct {
	ID          string `json:"id"`
	Trainer     string `json:"trainer"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	SetupMode   string `json:"setupMode"`
	DocumentRef string `json:"documentRef,omitempty"`
}

func fromStatement(s billing.MonthlyStatement) StatementDTO {
	return StatementDTO{
		ID:          s.ID,
		Trainer:     s.Trainer,
		Month:       s.Month,
		Year:        s.Year,
		Status:      string(s.Status),
		Total:       s.Total.String(),
		SetupMode:   string(s.SetupMode),
		DocumentRef: s.DocumentRef,
	}
}

type LineItemDTO struct {
	Kind     string `json:"kind"`
	SourceID string `json:"sourceId"`
	RefID    string `json:"refId,omitempty"`
	Date     string `json:"date"`
	Sport    string `json:"sport"`
	Field    string `json:"field"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Role     string `json:"role"`
	Setup    bool   `json:"setup"`
	Hours    string `json:"hours"`
	Amount   string `json:"amount"`
	Note     string `json:"note,omitempty"`
}

func fromLineItem(li billing.LineItem) LineItemDTO {
	return LineItemDTO{
		Kind:     string(li.Kind),
		SourceID: li.SourceID,
		RefID:    li.RefID,
		Date:     li.Date.String(),
		Sport:    li.Sport,
		Field:    li.Field,
		Start:    li.Start.String(),
		End:      li.End.String(),
		Role:     string(li.Role),
		Setup:    li.Setup,
		Hours:    li.Hours.String(),
		Amount:   li.Amount.String(),
		Note:     li.Note,
	}
}

type LedgerDTO struct {
	Trainer   string        `json:"trainer"`
	Month     int           `json:"month"`
	Year      int           `json:"year"`
	LineItems []LineItemDTO `json:"lineItems"`
	Total     string        `json:"total"`
	Issues    []string      `json:"issues,omitempty"`
}

func fromLedger(l *billing.Ledger) LedgerDTO {
	dto := LedgerDTO{
		Trainer:   l.Trainer,
		Month:     l.Month,
		Year:      l.Year,
		Total:     l.Total.String(),
		LineItems: make([]LineItemDTO, len(l.LineItems)),
	}
	for i, li := range l.LineItems {
		dto.LineItems[i] = fromLineItem(li)
	}
	for _, issue := range l.Issues {
		dto.Issues = append(dto.Issues, issue.Error())
	}
	return dto
}

// =============================================================================
// REQUESTS
// =============================================================================

type GenerateStatementRequest struct {
	Trainer   string `json:"trainer"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	SetupMode string `json:"setupMode,omitempty"` // "flat_bonus" (default) or "extra_half_hour"
}

type StatementStatusRequest struct {
	Status string `json:"status"`
}

type ConflictsResponse struct {
	Conflicts []string `json:"conflicts"`
}
