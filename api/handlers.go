/*
handlers.go - HTTP API handlers for the club billing system

PURPOSE:
  Exposes the billing engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and the store. The
  engine itself is pure; this is the boundary layer that consults the
  statement lock gate before mutating base entries.

ENDPOINTS:
  Entries:
    GET    /api/entries                  List (trainer/month/year filters)
    POST   /api/entries                  Create (lock-gated)
    GET    /api/entries/{id}             Get
    PUT    /api/entries/{id}             Update (lock-gated)
    DELETE /api/entries/{id}             Delete (lock-gated)
    GET    /api/entries/{id}/conflicts   Conflict warnings for one entry

  Conflicts:
    POST   /api/conflicts/check          Pre-save conflict check

  Corrections:
    GET    /api/corrections              List
    POST   /api/corrections              Create (append-only)

  Reference data:
    GET/POST /api/rates, /api/holidays, /api/schedules

  Statements:
    GET    /api/statements               List
    POST   /api/statements/generate      Reconcile + render PDF + create
    POST   /api/reconcile                Preview ledger without creating
    GET    /api/statements/{id}/document PDF download
    GET    /api/statements/{id}/export.xlsx
    POST   /api/statements/{id}/status   Status transition
    POST   /api/statements/{id}/void     Void (unlocks the period)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Locked period, duplicate active statement
  - 422: Empty billing period
  - 500: Internal errors
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/conflict"
	"github.com/warp/billing-engine/export"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   billing.Store
	DocsDir string // where generated statement PDFs land
}

// NewHandler creates a new handler with the given store and document dir.
func NewHandler(store billing.Store, docsDir string) *Handler {
	return &Handler{Store: store, DocsDir: docsDir}
}

// =============================================================================
// ENTRY HANDLERS (lock-gated CRUD)
// =============================================================================

// ListEntries returns entries, optionally filtered by trainer/month/year.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	trainer := r.URL.Query().Get("trainer")
	month := queryInt(r, "month")
	year := queryInt(r, "year")

	entries, err := h.Store.ListEntries(r.Context(), trainer, month, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = fromEntry(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEntry returns a single entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fromEntry(*entry))
}

// CreateEntry creates a base entry, rejecting locked periods.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := req.toEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}
	if entry.Trainer == "" {
		writeError(w, http.StatusBadRequest, "Trainer is required", nil)
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if h.rejectLocked(w, r, entry.Trainer, int(entry.Date.Month()), entry.Date.Year()) {
		return
	}

	if err := h.Store.CreateEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, fromEntry(entry))
}

// UpdateEntry updates a base entry. Both the entry's current period and
// the period it would move into must be unlocked.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	var req EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = existing.ID
	entry, err := req.toEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}

	if h.rejectLocked(w, r, existing.Trainer, int(existing.Date.Month()), existing.Date.Year()) {
		return
	}
	if h.rejectLocked(w, r, entry.Trainer, int(entry.Date.Month()), entry.Date.Year()) {
		return
	}

	if err := h.Store.UpdateEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, fromEntry(entry))
}

// DeleteEntry deletes a base entry if its period is unlocked.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	if h.rejectLocked(w, r, entry.Trainer, int(entry.Date.Month()), entry.Date.Year()) {
		return
	}

	if err := h.Store.DeleteEntry(r.Context(), entry.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EntryConflicts runs the conflict detector for a stored entry.
func (h *Handler) EntryConflicts(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	h.respondConflicts(w, r, *entry)
}

// CheckConflicts runs the conflict detector for a candidate entry before
// it is saved.
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entry, err := req.toEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}
	h.respondConflicts(w, r, entry)
}

func (h *Handler) respondConflicts(w http.ResponseWriter, r *http.Request, entry billing.TimeEntry) {
	// Compare against every entry of the month, all trainers: field
	// conflicts cross trainer boundaries.
	all, err := h.Store.ListEntries(r.Context(), "", int(entry.Date.Month()), entry.Date.Year())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}
	holidayDates, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}
	schedules, err := h.Store.ListScheduleRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule rules", err)
		return
	}

	warnings := conflict.Find(entry, all, billing.NewHolidaySet(holidayDates...), schedules)
	writeJSON(w, http.StatusOK, ConflictsResponse{Conflicts: warnings})
}

// =============================================================================
// CORRECTION HANDLERS
// =============================================================================

// ListCorrections returns corrections, optionally filtered.
func (h *Handler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	trainer := r.URL.Query().Get("trainer")
	month := queryInt(r, "month")
	year := queryInt(r, "year")

	corrections, err := h.Store.ListCorrections(r.Context(), trainer, month, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list corrections", err)
		return
	}

	dtos := make([]CorrectionDTO, len(corrections))
	for i, c := range corrections {
		dtos[i] = fromCorrection(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCorrection records a correction. Cancellations and amendments
// must reference an existing entry; the check here catches typos early,
// the reconciler re-checks against its own snapshot.
func (h *Handler) CreateCorrection(w http.ResponseWriter, r *http.Request) {
	var req CorrectionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	correction, err := req.toCorrection()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid correction", err)
		return
	}
	if correction.Month < 1 || correction.Month > 12 || correction.Year == 0 {
		writeError(w, http.StatusBadRequest, "Correction requires an assigned month and year", nil)
		return
	}
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}

	if correction.Ref != "" {
		if _, err := h.Store.GetEntry(r.Context(), correction.Ref); err != nil {
			if billing.IsNotFound(err) {
				writeError(w, http.StatusBadRequest, "Referenced entry does not exist", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to resolve reference", err)
			return
		}
	}

	if err := h.Store.CreateCorrection(r.Context(), correction); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create correction", err)
		return
	}
	writeJSON(w, http.StatusCreated, fromCorrection(correction))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRateRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}
	dtos := make([]RateRuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = fromRateRule(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req RateRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rule, err := req.toRateRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate rule", err)
		return
	}
	if err := h.Store.CreateRateRule(r.Context(), rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rate rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, fromRateRule(rule))
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, d := range holidays {
		dtos[i] = HolidayDTO{Date: d.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := billing.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if err := h.Store.AddHoliday(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: d.String()})
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListScheduleRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedule rules", err)
		return
	}
	dtos := make([]ScheduleRuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = fromScheduleRule(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rule, err := req.toScheduleRule()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule rule", err)
		return
	}
	if rule.Weekday < 0 || rule.Weekday > 6 {
		writeError(w, http.StatusBadRequest, "Weekday must be 0-6", nil)
		return
	}
	if err := h.Store.CreateScheduleRule(r.Context(), rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create schedule rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, fromScheduleRule(rule))
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// ListStatements returns statements, optionally filtered.
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	trainer := r.URL.Query().Get("trainer")
	month := queryInt(r, "month")
	year := queryInt(r, "year")

	statements, err := h.Store.ListStatements(r.Context(), trainer, month, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statements", err)
		return
	}
	dtos := make([]StatementDTO, len(statements))
	for i, s := range statements {
		dtos[i] = fromStatement(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReconcilePreview runs reconciliation and returns the ledger without
// creating a statement. Pure and repeatable.
func (h *Handler) ReconcilePreview(w http.ResponseWriter, r *http.Request) {
	var req GenerateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ledger, ok := h.reconcile(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fromLedger(ledger))
}

// GenerateStatement reconciles the period, renders the PDF, and creates
// a draft statement - which locks the period.
func (h *Handler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	var req GenerateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ledger, ok := h.reconcile(w, r, req)
	if !ok {
		return
	}

	stmt := billing.MonthlyStatement{
		ID:        uuid.NewString(),
		Trainer:   req.Trainer,
		Month:     req.Month,
		Year:      req.Year,
		Status:    billing.StatementDraft,
		Total:     ledger.Total,
		SetupMode: billing.SetupMode(req.SetupMode).Normalize(),
		CreatedAt: billing.Today(),
	}

	doc, err := export.BuildStatementPDF(stmt, ledger.LineItems)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render statement document", err)
		return
	}
	filename := fmt.Sprintf("statement-%s-%04d-%02d-%s.pdf", stmt.Trainer, stmt.Year, stmt.Month, stmt.ID[:8])
	if err := os.WriteFile(filepath.Join(h.DocsDir, filename), doc, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store statement document", err)
		return
	}
	stmt.DocumentRef = filename

	if err := h.Store.CreateStatement(r.Context(), stmt); err != nil {
		if errors.Is(err, billing.ErrStatementExists) {
			writeError(w, http.StatusConflict, "An active statement already exists for this period", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create statement", err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Statement StatementDTO `json:"statement"`
		Ledger    LedgerDTO    `json:"ledger"`
	}{fromStatement(stmt), fromLedger(ledger)})
}

// reconcile gathers the period's inputs and runs the engine. Entries are
// loaded without a period filter so corrections can reverse sessions
// from earlier months.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, req GenerateStatementRequest) (*billing.Ledger, bool) {
	if req.Trainer == "" || req.Month < 1 || req.Month > 12 || req.Year == 0 {
		writeError(w, http.StatusBadRequest, "trainer, month and year are required", nil)
		return nil, false
	}

	entries, err := h.Store.ListEntries(r.Context(), req.Trainer, 0, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return nil, false
	}
	corrections, err := h.Store.ListCorrections(r.Context(), req.Trainer, req.Month, req.Year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load corrections", err)
		return nil, false
	}
	rates, err := h.Store.ListRateRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate rules", err)
		return nil, false
	}

	ledger, err := billing.ReconcileMonth(billing.ReconcileInput{
		Trainer:     req.Trainer,
		Month:       req.Month,
		Year:        req.Year,
		Entries:     entries,
		Corrections: corrections,
		Rates:       rates,
		SetupMode:   billing.SetupMode(req.SetupMode),
	})
	if err != nil {
		if errors.Is(err, billing.ErrEmptyPeriod) {
			writeError(w, http.StatusUnprocessableEntity, "No billable entries for period", err)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return nil, false
	}
	return ledger, true
}

// StatementDocument serves the stored PDF for a statement.
func (h *Handler) StatementDocument(w http.ResponseWriter, r *http.Request) {
	stmt, ok := h.loadStatement(w, r)
	if !ok {
		return
	}
	if stmt.DocumentRef == "" {
		writeError(w, http.StatusNotFound, "Statement has no document", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filepath.Join(h.DocsDir, stmt.DocumentRef))
}

// ExportStatementXLSX re-runs reconciliation with the statement's stored
// setup mode (pure, so the result matches the issued statement) and
// streams the workbook.
func (h *Handler) ExportStatementXLSX(w http.ResponseWriter, r *http.Request) {
	stmt, ok := h.loadStatement(w, r)
	if !ok {
		return
	}

	ledger, reconciled := h.reconcile(w, r, GenerateStatementRequest{
		Trainer: stmt.Trainer, Month: stmt.Month, Year: stmt.Year,
		SetupMode: string(stmt.SetupMode),
	})
	if !reconciled {
		return
	}

	doc, err := export.BuildStatementXLSX(*stmt, ledger.LineItems)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("statement-%s-%04d-%02d.xlsx", stmt.Trainer, stmt.Year, stmt.Month)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// UpdateStatementStatus transitions a statement's status.
func (h *Handler) UpdateStatementStatus(w http.ResponseWriter, r *http.Request) {
	stmt, ok := h.loadStatement(w, r)
	if !ok {
		return
	}

	var req StatementStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := billing.StatementStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown statement status", nil)
		return
	}

	if err := h.Store.UpdateStatementStatus(r.Context(), stmt.ID, status); err != nil {
		// Reactivating a voided statement conflicts when another active
		// statement took over the period in the meantime.
		if errors.Is(err, billing.ErrStatementExists) {
			writeError(w, http.StatusConflict, "An active statement already exists for this period", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update statement", err)
		return
	}
	stmt.Status = status
	writeJSON(w, http.StatusOK, fromStatement(*stmt))
}

// VoidStatement voids a statement, unlocking its billing period.
func (h *Handler) VoidStatement(w http.ResponseWriter, r *http.Request) {
	stmt, ok := h.loadStatement(w, r)
	if !ok {
		return
	}
	if err := h.Store.UpdateStatementStatus(r.Context(), stmt.ID, billing.StatementVoided); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to void statement", err)
		return
	}
	stmt.Status = billing.StatementVoided
	writeJSON(w, http.StatusOK, fromStatement(*stmt))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadEntry(w http.ResponseWriter, r *http.Request) (*billing.TimeEntry, bool) {
	id := chi.URLParam(r, "id")
	entry, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Entry not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load entry", err)
		return nil, false
	}
	return entry, true
}

func (h *Handler) loadStatement(w http.ResponseWriter, r *http.Request) (*billing.MonthlyStatement, bool) {
	id := chi.URLParam(r, "id")
	stmt, err := h.Store.GetStatement(r.Context(), id)
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Statement not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load statement", err)
		return nil, false
	}
	return stmt, true
}

// rejectLocked writes a 409 and returns true when the (trainer, month,
// year) period is locked by an active statement.
func (h *Handler) rejectLocked(w http.ResponseWriter, r *http.Request, trainer string, month, year int) bool {
	statements, err := h.Store.ListStatements(r.Context(), trainer, month, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check period lock", err)
		return true
	}
	if billing.IsLocked(trainer, month, year, statements) {
		writeError(w, http.StatusConflict, "Billing period is locked by an existing statement", billing.ErrPeriodLocked)
		return true
	}
	return false
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, status, body)
}
