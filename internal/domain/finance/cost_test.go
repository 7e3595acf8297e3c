package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func validCostInput() CostInput {
	subject := uuid.New()
	unit := uuid.New()
	return CostInput{
		ShipmentID:         uuid.New(),
		Amount:             decimal.NewFromInt(100),
		Currency:           "thb",
		Type:               CostTypePayable,
		FinancialSubjectID: &subject,
		SettlementUnitID:   &unit,
		SettlementUnitType: SettlementUnitSupplier,
		Description:        "Ocean freight",
	}
}

func newTestCost(t *testing.T, amount int64, currency string, costType CostType) Cost {
	t.Helper()
	in := validCostInput()
	in.Amount = decimal.NewFromInt(amount)
	in.Currency = currency
	in.Type = costType
	c, err := NewCost(in, testNow)
	require.NoError(t, err)
	return *c
}

func TestCostStatus_IsValid(t *testing.T) {
	tests := []struct {
		status   CostStatus
		expected bool
	}{
		{CostStatusUnapplied, true},
		{CostStatusApplied, true},
		{CostStatusSettled, true},
		{CostStatus("paid"), false},
		{CostStatus(""), false},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.IsValid())
		})
	}
}

func TestNewCost(t *testing.T) {
	t.Run("creates unapplied cost with normalized currency", func(t *testing.T) {
		c, err := NewCost(validCostInput(), testNow)
		require.NoError(t, err)
		assert.Equal(t, CostStatusUnapplied, c.Status)
		assert.Equal(t, "THB", c.Currency)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.False(t, c.HasApplicationFields())
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		in := validCostInput()
		in.Type = CostType("other")
		_, err := NewCost(in, testNow)
		assert.ErrorIs(t, err, ErrInvalidCostType)
	})

	t.Run("rejects invalid settlement unit type", func(t *testing.T) {
		in := validCostInput()
		in.SettlementUnitType = SettlementUnitType("carrier")
		_, err := NewCost(in, testNow)
		assert.ErrorIs(t, err, ErrInvalidSettlementUnit)
	})

	incomplete := []struct {
		name   string
		mutate func(*CostInput)
	}{
		{"zero amount", func(in *CostInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *CostInput) { in.Amount = decimal.NewFromInt(-5) }},
		{"no currency", func(in *CostInput) { in.Currency = "  " }},
		{"no description", func(in *CostInput) { in.Description = "" }},
		{"no subject", func(in *CostInput) { in.FinancialSubjectID = nil }},
		{"no settlement unit", func(in *CostInput) { in.SettlementUnitID = nil }},
	}
	for _, tc := range incomplete {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			in := validCostInput()
			tc.mutate(&in)
			_, err := NewCost(in, testNow)
			assert.ErrorIs(t, err, ErrInvalidCost)
		})
	}
}

func TestCost_Lifecycle(t *testing.T) {
	c := newTestCost(t, 100, "THB", CostTypePayable)
	due := testNow.AddDate(0, 0, 30)

	require.NoError(t, c.Apply("F250101001", &due, "monthly", testNow))
	assert.Equal(t, CostStatusApplied, c.Status)
	assert.True(t, c.BelongsTo("F250101001"))
	require.NotNil(t, c.ApplicationDate)
	assert.Equal(t, testNow, *c.ApplicationDate)

	err := c.Apply("F250101002", nil, "", testNow)
	assert.ErrorIs(t, err, ErrCostNotUnapplied)

	require.NoError(t, c.Settle(nil, "paid by wire", testNow))
	assert.Equal(t, CostStatusSettled, c.Status)
	require.NotNil(t, c.SettlementDate)
	assert.Equal(t, testNow, *c.SettlementDate)

	err = c.Settle(nil, "", testNow)
	assert.ErrorIs(t, err, ErrCostNotApplied)

	assert.True(t, c.RevertSettlement(testNow))
	assert.Equal(t, CostStatusApplied, c.Status)
	assert.Nil(t, c.SettlementDate)
	assert.Empty(t, c.SettlementRemarks)
	assert.False(t, c.RevertSettlement(testNow))

	c.Unapply(testNow)
	assert.Equal(t, CostStatusUnapplied, c.Status)
	assert.False(t, c.HasApplicationFields())
}

func TestCost_SettleWithExplicitDate(t *testing.T) {
	c := newTestCost(t, 10, "USD", CostTypeReceivable)
	require.NoError(t, c.Apply("F250101001", nil, "", testNow))

	date := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Settle(&date, "", testNow))
	assert.Equal(t, date, *c.SettlementDate)
}
