package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClient = "acme"

func newBOMFixture() *fakeBOMRepo {
	return &fakeBOMRepo{headers: []entity.BOMHeader{
		{
			ID:             "bom-shirt",
			ClientID:       testClient,
			ParentItemCode: "SHIRT-001",
			Style:          "ST-SHIRT",
			Revision:       "B",
			Active:         true,
			Details: []entity.BOMDetail{
				{ComponentCode: "FAB-COTTON", QuantityPer: decimal.NewFromFloat(1.5), WastePct: decimal.NewFromInt(5), Unit: "m", Category: "FABRIC"},
				{ComponentCode: "BTN-STD", QuantityPer: decimal.NewFromInt(8), WastePct: decimal.Zero, Unit: "pcs", Category: "TRIM"},
			},
		},
		{
			ID:             "bom-empty",
			ClientID:       testClient,
			ParentItemCode: "EMPTY-001",
			Style:          "ST-EMPTY",
			Active:         true,
		},
	}}
}

func TestExplodeNetQuantity(t *testing.T) {
	svc := NewBOMService(newBOMFixture(), &fakeDispatcher{})

	result, err := svc.Explode(context.Background(), testClient, "SHIRT-001", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalComponents)

	fabric := result.Components[0]
	assert.Equal(t, "FAB-COTTON", fabric.ComponentCode)
	assert.True(t, fabric.GrossQty.Equal(decimal.NewFromInt(150)), "gross = 100 × 1.5, got %s", fabric.GrossQty)
	assert.True(t, fabric.NetQty.Equal(decimal.NewFromFloat(157.5)), "net = gross × 1.05, got %s", fabric.NetQty)

	buttons := result.Components[1]
	assert.True(t, buttons.NetQty.Equal(decimal.NewFromInt(800)), "zero waste keeps net = gross, got %s", buttons.NetQty)
}

func TestExplodeEmitsNotification(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := NewBOMService(newBOMFixture(), dispatcher)

	_, err := svc.Explode(context.Background(), testClient, "SHIRT-001", decimal.NewFromInt(10))
	require.NoError(t, err)

	events := dispatcher.byType(event.BOMExploded)
	require.Len(t, events, 1)
	assert.Equal(t, "bom-shirt", events[0].AggregateID)
}

func TestExplodeValidation(t *testing.T) {
	svc := NewBOMService(newBOMFixture(), &fakeDispatcher{})

	_, err := svc.Explode(context.Background(), testClient, "SHIRT-001", decimal.Zero)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.Explode(context.Background(), testClient, "NO-SUCH-ITEM", decimal.NewFromInt(1))
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.Explode(context.Background(), testClient, "EMPTY-001", decimal.NewFromInt(1))
	assert.True(t, apperr.Is(err, apperr.EmptyBOM))
}

func TestExplodeBatchSkipsMissing(t *testing.T) {
	svc := NewBOMService(newBOMFixture(), &fakeDispatcher{})

	results, err := svc.ExplodeBatch(context.Background(), testClient, []StyleDemand{
		{Style: "ST-SHIRT", Quantity: decimal.NewFromInt(20)},
		{Style: "ST-UNKNOWN", Quantity: decimal.NewFromInt(5)},
		{Style: "ST-EMPTY", Quantity: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ST-SHIRT", results[0].Style)
}

func TestAggregateRequirementsSums(t *testing.T) {
	svc := NewBOMService(newBOMFixture(), &fakeDispatcher{})
	ctx := context.Background()

	first, err := svc.ExplodeByStyle(ctx, testClient, "ST-SHIRT", decimal.NewFromInt(100))
	require.NoError(t, err)
	second, err := svc.ExplodeByStyle(ctx, testClient, "ST-SHIRT", decimal.NewFromInt(50))
	require.NoError(t, err)

	totals := svc.AggregateRequirements([]ExplosionResult{*first, *second})
	assert.True(t, totals["FAB-COTTON"].Equal(decimal.NewFromFloat(236.25)), "157.5 + 78.75, got %s", totals["FAB-COTTON"])
	assert.True(t, totals["BTN-STD"].Equal(decimal.NewFromInt(1200)))
}
