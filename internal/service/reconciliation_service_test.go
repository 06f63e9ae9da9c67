package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"stockcount/internal/model"
	"stockcount/internal/reconciliation"
	"stockcount/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingInventoryRepo struct {
	repository.InventoryRepository
}

func (failingInventoryRepo) FindCounted(context.Context, model.InventoryFilter) ([]model.InventoryCount, error) {
	return nil, errors.New("connection refused")
}

func seedCounted(t *testing.T, e *testEnv, location, barcode, system, physical string, countedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	item := &model.InventoryCount{
		Warehouse:      "WH1",
		Location:       location,
		Brand:          "ACME",
		Barcode:        barcode,
		SystemQuantity: decimal.RequireFromString(system),
	}
	require.NoError(t, e.inventory.Create(ctx, item))
	require.NoError(t, e.inventory.RecordCount(ctx, item.ID, decimal.RequireFromString(physical), countedAt, nil))
}

func seedMove(t *testing.T, e *testEnv, barcode, kind string, qty int, at time.Time) {
	t.Helper()
	require.NoError(t, e.movements.Create(context.Background(), &model.Movement{
		Warehouse: "WH1", Brand: "ACME", Barcode: barcode, Kind: kind, Quantity: qty, OccurredAt: at,
	}))
}

func TestReconciliationService_Run(t *testing.T) {
	e := newTestEnv(t)
	svc := NewReconciliationService(e.inventory, e.movements, ReconciliationOptions{BatchSize: 1}, zap.NewNop())

	seedCounted(t, e, "A-01", "SKU-1", "100", "95", fixedNow)
	seedCounted(t, e, "A-02", "SKU-2", "100", "85", fixedNow.Add(time.Minute))
	seedCounted(t, e, "A-03", "SKU-3", "10", "10", fixedNow)
	seedMove(t, e, "SKU-1", model.MovementOut, 5, fixedNow.Add(-time.Hour))
	seedMove(t, e, "SKU-1", model.MovementIn, 10, fixedNow.Add(time.Hour))
	seedMove(t, e, "SKU-2", model.MovementOut, 5, fixedNow.Add(-time.Hour))

	uncounted := &model.InventoryCount{Warehouse: "WH1", Location: "A-04", Brand: "ACME", Barcode: "SKU-4"}
	require.NoError(t, e.inventory.Create(context.Background(), uncounted))

	res, err := svc.Run(context.Background(), model.InventoryFilter{Warehouse: "WH1"})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	byBarcode := make(map[string]reconciliation.Record)
	for _, r := range res.Records {
		byBarcode[r.Barcode] = r
	}
	assert.Equal(t, reconciliation.StatusExplained, byBarcode["SKU-1"].Status)
	assert.Len(t, byBarcode["SKU-1"].PostCount, 1)
	assert.Equal(t, reconciliation.StatusRealDiscrepancy, byBarcode["SKU-2"].Status)
	assert.True(t, byBarcode["SKU-2"].RealDiff.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, reconciliation.StatusNoDifference, byBarcode["SKU-3"].Status)

	assert.Equal(t, reconciliation.Summary{
		TotalRecords:      3,
		WithMovements:     2,
		MovementExplained: 1,
		TrueDiscrepancies: 1,
		NoDiscrepancy:     1,
	}, res.Summary)
}

func TestReconciliationService_EmptyScope(t *testing.T) {
	e := newTestEnv(t)
	svc := NewReconciliationService(e.inventory, e.movements, ReconciliationOptions{}, zap.NewNop())

	res, err := svc.Run(context.Background(), model.InventoryFilter{Warehouse: "NOPE"})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, reconciliation.Summary{}, res.Summary)
}

func TestReconciliationService_StorageFailure(t *testing.T) {
	e := newTestEnv(t)
	svc := NewReconciliationService(failingInventoryRepo{}, e.movements, ReconciliationOptions{}, zap.NewNop())

	_, err := svc.Run(context.Background(), model.InventoryFilter{})
	assert.ErrorIs(t, err, ErrReconciliation)

	var buf bytes.Buffer
	err = svc.Export(context.Background(), model.InventoryFilter{}, &buf)
	assert.ErrorIs(t, err, ErrReconciliation)
	assert.NotErrorIs(t, err, reconciliation.ErrExport)
}

func TestReconciliationService_Export(t *testing.T) {
	e := newTestEnv(t)
	svc := NewReconciliationService(e.inventory, e.movements, ReconciliationOptions{}, zap.NewNop())
	seedCounted(t, e, "A-01", "SKU-1", "100", "95", fixedNow)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), model.InventoryFilter{}, &buf))
	assert.NotZero(t, buf.Len())
}
