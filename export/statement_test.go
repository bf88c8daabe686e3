package export_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/export"
)

func fixtureStatement() (billing.MonthlyStatement, []billing.LineItem) {
	stmt := billing.MonthlyStatement{
		ID:      "s1",
		Trainer: "anna",
		Month:   3,
		Year:    2025,
		Status:  billing.StatementDraft,
		Total:   billing.MustParseMoney("30.00"),
	}
	items := []billing.LineItem{{
		Kind:     billing.LineBase,
		SourceID: "e1",
		Trainer:  "anna",
		Date:     billing.MustParseDate("2025-03-10"),
		Sport:    "judo",
		Field:    "hall-1",
		Start:    billing.MustParseClockTime("18:00"),
		End:      billing.MustParseClockTime("19:30"),
		Role:     billing.RoleTrainer,
		Hours:    decimal.NewFromFloat(1.5),
		Amount:   billing.MustParseMoney("30.00"),
	}}
	return stmt, items
}

func TestBuildStatementPDF(t *testing.T) {
	stmt, items := fixtureStatement()

	doc, err := export.BuildStatementPDF(stmt, items)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestBuildStatementXLSX(t *testing.T) {
	stmt, items := fixtureStatement()

	doc, err := export.BuildStatementXLSX(stmt, items)
	require.NoError(t, err)

	// the workbook must round-trip through the reader
	f, err := excelize.OpenReader(bytes.NewReader(doc))
	require.NoError(t, err)
	defer f.Close()

	trainer, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "anna", trainer)

	sport, err := f.GetCellValue("items", "C2")
	require.NoError(t, err)
	assert.Equal(t, "judo", sport)
}
