package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/billing-engine/billing"
)

func statement(trainer string, month, year int, status billing.StatementStatus) billing.MonthlyStatement {
	return billing.MonthlyStatement{
		ID:      "s-" + trainer,
		Trainer: trainer,
		Month:   month,
		Year:    year,
		Status:  status,
	}
}

func TestIsLocked_ActiveStatementLocks(t *testing.T) {
	for _, status := range []billing.StatementStatus{
		billing.StatementDraft,
		billing.StatementIssued,
		billing.StatementApproved,
		billing.StatementPaid,
	} {
		stmts := []billing.MonthlyStatement{statement("anna", 3, 2025, status)}
		assert.True(t, billing.IsLocked("anna", 3, 2025, stmts), "status %q must lock", status)
	}
}

func TestIsLocked_VoidedStatementUnlocks(t *testing.T) {
	// GIVEN: the only statement for the key is voided
	stmts := []billing.MonthlyStatement{statement("anna", 3, 2025, billing.StatementVoided)}

	// THEN: the period is open for corrections again
	assert.False(t, billing.IsLocked("anna", 3, 2025, stmts))
}

func TestIsLocked_KeyIsPerTrainerAndPeriod(t *testing.T) {
	stmts := []billing.MonthlyStatement{statement("anna", 3, 2025, billing.StatementIssued)}

	assert.False(t, billing.IsLocked("ben", 3, 2025, stmts), "other trainer")
	assert.False(t, billing.IsLocked("anna", 4, 2025, stmts), "other month")
	assert.False(t, billing.IsLocked("anna", 3, 2024, stmts), "other year")
}

func TestIsLocked_NoStatements(t *testing.T) {
	assert.False(t, billing.IsLocked("anna", 3, 2025, nil))
}
