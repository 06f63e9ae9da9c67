package reconciliation

import (
	"testing"
	"time"

	"stockcount/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var countTime = time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func counted(barcode, system, physical string) model.InventoryCount {
	at := countTime
	return model.InventoryCount{
		ID:               uuid.New(),
		Warehouse:        "WH1",
		Location:         "A-01",
		Brand:            "ACME",
		Barcode:          barcode,
		SystemQuantity:   dec(system),
		PhysicalQuantity: decimal.NewNullDecimal(dec(physical)),
		CountedAt:        &at,
	}
}

func movement(barcode, kind string, qty int, at time.Time) model.Movement {
	return model.Movement{
		ID:         uuid.New(),
		Warehouse:  "WH1",
		Brand:      "ACME",
		Barcode:    barcode,
		Kind:       kind,
		Quantity:   qty,
		OccurredAt: at,
	}
}

func strPtr(s string) *string { return &s }

func TestReconcile_NoMovementsNoDifference(t *testing.T) {
	res := Reconcile([]model.InventoryCount{counted("SKU-1", "100", "100")}, nil, Options{})

	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.Equal(t, StatusNoDifference, r.Status)
	assert.False(t, r.HasMovements)
	assert.False(t, r.HasDiscrepancy)
	assert.True(t, r.ExpectedStock.Equal(dec("100")))
	assert.Equal(t, Summary{TotalRecords: 1, NoDiscrepancy: 1}, res.Summary)
}

func TestReconcile_ExplainedByMovements(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "95")}
	moves := []model.Movement{movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour))}

	res := Reconcile(counts, moves, Options{})

	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.True(t, r.ExpectedStock.Equal(dec("95")), "expected stock %s", r.ExpectedStock)
	assert.True(t, r.ApparentDiff.Equal(dec("-5")))
	assert.True(t, r.RealDiff.IsZero())
	assert.Equal(t, StatusExplained, r.Status)
	assert.True(t, r.HasMovements)
	assert.False(t, r.HasDiscrepancy)
	assert.Equal(t, 1, res.Summary.MovementExplained)
}

func TestReconcile_RealDiscrepancyBeyondMovements(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "85")}
	moves := []model.Movement{movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour))}

	res := Reconcile(counts, moves, Options{})

	r := res.Records[0]
	assert.True(t, r.ExpectedStock.Equal(dec("95")))
	assert.True(t, r.RealDiff.Equal(dec("-10")))
	assert.Equal(t, StatusRealDiscrepancy, r.Status)
	assert.True(t, r.HasDiscrepancy)
	assert.Contains(t, r.Message, "10.00")
	assert.Contains(t, r.Message, "shortage")
	assert.Equal(t, 1, res.Summary.TrueDiscrepancies)
}

func TestReconcile_PostCountMovementsExcludedFromDelta(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "95")}
	moves := []model.Movement{
		movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour)),
		movement("SKU-1", model.MovementIn, 10, countTime.Add(time.Hour)),
	}

	res := Reconcile(counts, moves, Options{})

	r := res.Records[0]
	require.Len(t, r.PreCount, 1)
	require.Len(t, r.PostCount, 1)
	assert.True(t, r.NetPre.Equal(dec("-5")))
	assert.True(t, r.InPost.Equal(dec("10")))
	assert.True(t, r.NetPost.Equal(dec("10")))
	assert.True(t, r.ExpectedStock.Equal(dec("95")))
	assert.Equal(t, StatusExplained, r.Status)
}

func TestReconcile_EmptyInput(t *testing.T) {
	res := Reconcile(nil, nil, Options{})

	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Equal(t, Summary{}, res.Summary)
}

func TestReconcile_BoundaryMovementIsPreCount(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "110")}
	moves := []model.Movement{movement("SKU-1", model.MovementIn, 10, countTime)}

	res := Reconcile(counts, moves, Options{})

	r := res.Records[0]
	assert.Len(t, r.PreCount, 1)
	assert.Empty(t, r.PostCount)
	assert.Equal(t, StatusExplained, r.Status)
}

func TestReconcile_UncountedRowsProduceNoRecord(t *testing.T) {
	uncounted := counted("SKU-2", "50", "0")
	uncounted.CountedAt = nil
	uncounted.PhysicalQuantity = decimal.NullDecimal{}

	res := Reconcile([]model.InventoryCount{counted("SKU-1", "1", "1"), uncounted}, nil, Options{})

	require.Len(t, res.Records, 1)
	assert.Equal(t, "SKU-1", res.Records[0].Barcode)
	assert.Equal(t, 0, res.Summary.IncompleteRecords)
}

func TestReconcile_LocationMatching(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "90")}

	sameLoc := movement("SKU-1", model.MovementOut, 4, countTime.Add(-time.Hour))
	sameLoc.Location = strPtr("A-01")
	unlocated := movement("SKU-1", model.MovementOut, 6, countTime.Add(-2*time.Hour))
	emptyLoc := movement("SKU-1", model.MovementOut, 0, countTime.Add(-3*time.Hour))
	emptyLoc.Location = strPtr("")
	otherLoc := movement("SKU-1", model.MovementOut, 50, countTime.Add(-time.Hour))
	otherLoc.Location = strPtr("B-07")

	res := Reconcile(counts, []model.Movement{sameLoc, unlocated, emptyLoc, otherLoc}, Options{})

	r := res.Records[0]
	assert.Len(t, r.PreCount, 3)
	assert.True(t, r.OutPre.Equal(dec("10")))
	assert.Equal(t, StatusExplained, r.Status)
}

func TestReconcile_KeyIsolation(t *testing.T) {
	counts := []model.InventoryCount{counted("SKU-1", "100", "100")}

	otherWarehouse := movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour))
	otherWarehouse.Warehouse = "WH2"
	otherBrand := movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour))
	otherBrand.Brand = "OTHER"
	otherSKU := movement("SKU-9", model.MovementOut, 5, countTime.Add(-time.Hour))

	res := Reconcile(counts, []model.Movement{otherWarehouse, otherBrand, otherSKU}, Options{})

	r := res.Records[0]
	assert.False(t, r.HasMovements)
	assert.Equal(t, StatusNoDifference, r.Status)
}

func TestReconcile_ToleranceAbsorbsNoise(t *testing.T) {
	res := Reconcile([]model.InventoryCount{counted("SKU-1", "10", "10.005")}, nil, Options{})
	assert.Equal(t, StatusNoDifference, res.Records[0].Status)

	res = Reconcile([]model.InventoryCount{counted("SKU-1", "10", "10.01")}, nil, Options{})
	assert.Equal(t, StatusRealDiscrepancy, res.Records[0].Status)
	assert.Contains(t, res.Records[0].Message, "surplus")
}

func TestReconcile_IncompleteCountPolicy(t *testing.T) {
	missing := counted("SKU-1", "0", "0")
	missing.PhysicalQuantity = decimal.NullDecimal{}
	counts := []model.InventoryCount{missing, counted("SKU-2", "5", "5")}

	res := Reconcile(counts, nil, Options{})
	require.Len(t, res.Records, 2)
	assert.True(t, res.Records[0].Incomplete)
	assert.NotEmpty(t, res.Records[0].Warnings)
	assert.Equal(t, 2, res.Summary.TotalRecords)
	assert.Equal(t, 1, res.Summary.IncompleteRecords)

	res = Reconcile(counts, nil, Options{ExcludeIncomplete: true})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "SKU-2", res.Records[0].Barcode)
	assert.Equal(t, 1, res.Summary.TotalRecords)
	assert.Equal(t, 1, res.Summary.IncompleteRecords)
}

func TestReconcile_UnknownKindIsWarnedAndIgnored(t *testing.T) {
	odd := movement("SKU-1", "ADJUST", 3, countTime.Add(-time.Hour))

	res := Reconcile([]model.InventoryCount{counted("SKU-1", "5", "5")}, []model.Movement{odd}, Options{})

	r := res.Records[0]
	assert.True(t, r.NetPre.IsZero())
	assert.Len(t, r.Warnings, 1)
	assert.Equal(t, StatusNoDifference, r.Status)
}

func TestReconcile_Properties(t *testing.T) {
	counts := []model.InventoryCount{
		counted("SKU-1", "100", "95"),
		counted("SKU-2", "20", "20"),
		counted("SKU-3", "7", "3"),
		counted("SKU-4", "0", "12"),
	}
	moves := []model.Movement{
		movement("SKU-1", model.MovementOut, 5, countTime.Add(-time.Hour)),
		movement("SKU-2", model.MovementIn, 2, countTime.Add(time.Minute)),
		movement("SKU-3", model.MovementIn, 1, countTime.Add(-time.Minute)),
		movement("SKU-4", model.MovementIn, 12, countTime.Add(-24*time.Hour)),
	}

	res := Reconcile(counts, moves, Options{})
	require.Len(t, res.Records, len(counts))

	noMovements := 0
	statusTotal := 0
	for _, r := range res.Records {
		assert.True(t, r.ExpectedStock.Equal(r.SystemQuantity.Add(r.InPre.Sub(r.OutPre))), r.Barcode)
		assert.True(t, r.RealDiff.Equal(r.PhysicalQuantity.Sub(r.ExpectedStock)), r.Barcode)
		assert.True(t, r.ApparentDiff.Equal(r.PhysicalQuantity.Sub(r.SystemQuantity)), r.Barcode)
		assert.Contains(t, []Status{StatusExplained, StatusNoDifference, StatusRealDiscrepancy}, r.Status)
		if !r.HasMovements {
			noMovements++
		}
	}
	statusTotal = res.Summary.MovementExplained + res.Summary.NoDiscrepancy + res.Summary.TrueDiscrepancies
	assert.Equal(t, res.Summary.TotalRecords, statusTotal)
	assert.Equal(t, res.Summary.TotalRecords, res.Summary.WithMovements+noMovements)

	again := Reconcile(counts, moves, Options{})
	assert.Equal(t, res, again)
}

func TestDistinctBarcodes(t *testing.T) {
	a := counted("SKU-1", "1", "1")
	b := counted("SKU-2", "1", "1")
	c := counted("SKU-1", "1", "1")
	c.Location = "B-02"

	assert.Equal(t, []string{"SKU-1", "SKU-2"}, DistinctBarcodes([]model.InventoryCount{a, b, c}))
	assert.Empty(t, DistinctBarcodes(nil))
}
