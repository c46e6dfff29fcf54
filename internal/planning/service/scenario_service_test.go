package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScenarioParamsAllTypes(t *testing.T) {
	for _, scenarioType := range entity.ScenarioTypes {
		t.Run(scenarioType, func(t *testing.T) {
			defaults, err := defaultScenarioParams(scenarioType)
			require.NoError(t, err)

			encoded, err := json.Marshal(defaults)
			require.NoError(t, err)

			decoded, err := decodeScenarioParams(scenarioType, string(encoded))
			require.NoError(t, err)
			assert.True(t, decoded.CostImpact().Equal(defaults.CostImpact()),
				"cost survives the round trip: %s vs %s", decoded.CostImpact(), defaults.CostImpact())
		})
	}
}

func TestDecodeScenarioParamsErrors(t *testing.T) {
	_, err := decodeScenarioParams("TIME_TRAVEL", `{}`)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = decodeScenarioParams(entity.ScenarioOvertime, `{broken`)
	assert.True(t, apperr.Is(err, apperr.Validation))

	// empty params fall back to type defaults
	adj, err := decodeScenarioParams(entity.ScenarioSubcontract, "")
	require.NoError(t, err)
	assert.True(t, adj.CostImpact().Equal(decimal.NewFromInt(8000)), "1000 units × 8/unit, got %s", adj.CostImpact())
}

func TestOvertimeIncreasesCapacity(t *testing.T) {
	in := lineInputs{WorkingDays: 5, ShiftsPerDay: defShifts, HoursPerShift: defHours}
	p := OvertimeParams{HoursPerDay: decimal.NewFromInt(2)}
	p.AdjustLine(entity.ProductionLine{ID: "line-1"}, &in)
	assert.True(t, in.ExtraHours.Equal(decimal.NewFromInt(10)), "5 days × 2h, got %s", in.ExtraHours)

	// a non-targeted line is untouched
	in2 := lineInputs{WorkingDays: 5}
	p2 := OvertimeParams{LineIDs: []string{"line-9"}, HoursPerDay: decimal.NewFromInt(2)}
	p2.AdjustLine(entity.ProductionLine{ID: "line-1"}, &in2)
	assert.True(t, in2.ExtraHours.IsZero())
}

func TestSetupReductionShrinksDemand(t *testing.T) {
	p := SetupReductionParams{SetupSharePct: decimal.NewFromInt(10), ReductionPct: decimal.NewFromInt(25)}
	got := p.AdjustDemandHours("line-1", decimal.NewFromInt(400))
	assert.True(t, got.Equal(decimal.NewFromInt(390)), "400 × (1 − 0.10×0.25), got %s", got)
}

func TestEfficiencyCappedAtOne(t *testing.T) {
	in := lineInputs{Efficiency: decimal.NewFromFloat(0.95)}
	p := EfficiencyParams{ImprovementPct: decimal.NewFromInt(20)}
	p.AdjustLine(entity.ProductionLine{ID: "line-1"}, &in)
	assert.True(t, in.Efficiency.Equal(one), "0.95 × 1.2 clamps to 1, got %s", in.Efficiency)
}

func TestCombinedDelegatesToParts(t *testing.T) {
	p := CombinedParams{
		Overtime:    &OvertimeParams{HoursPerDay: decimal.NewFromInt(1), CostPerHour: decimal.NewFromInt(10)},
		Subcontract: &SubcontractParams{Quantity: decimal.NewFromInt(600), SAMPerUnit: decimal.NewFromInt(10), CostPerUnit: decimal.NewFromInt(5)},
	}
	extra := p.ExtraCapacityHours(calendarProfile{WorkingDays: 5, ShiftsPerDay: defShifts, HoursPerShift: defHours})
	assert.True(t, extra.Equal(decimal.NewFromInt(100)), "600 × 10 / 60, got %s", extra)
	assert.True(t, p.CostImpact().Equal(decimal.NewFromInt(3010)), "10 + 3000, got %s", p.CostImpact())
}

type scenarioFixture struct {
	*capacityFixture
	scenarios *fakeScenarioRepo
	svc       *ScenarioService
}

func newScenarioFixture() *scenarioFixture {
	cf := newCapacityFixture()
	f := &scenarioFixture{capacityFixture: cf, scenarios: &fakeScenarioRepo{}}
	f.svc = NewScenarioService(f.scenarios, cf.schedules, cf.svc, cf.events)
	return f
}

func TestScenarioCreateAndRun(t *testing.T) {
	f := newScenarioFixture()
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators: 10, EfficiencyFactor: decimal.NewFromInt(1),
	}}
	ctx := context.Background()

	scenario, err := f.svc.Create(ctx, testClient, &CreateScenarioInput{
		Name: "weekend overtime", Type: entity.ScenarioOvertime,
		Params: json.RawMessage(`{"hours_per_day":"2","cost_per_hour":"15"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, scenario.ID)
	assert.Len(t, f.events.byType(event.ScenarioCreated), 1)

	// 7-day span, no calendar: 5 working days × 8h × 10 operators = 400h baseline
	start := date(2026, time.September, 7)
	end := date(2026, time.September, 13)
	impact, err := f.svc.Run(ctx, testClient, scenario.ID, start, end)
	require.NoError(t, err)

	assert.True(t, impact.BaselineCapacityHours.Equal(decimal.NewFromInt(400)))
	assert.True(t, impact.AdjustedCapacityHours.Equal(decimal.NewFromInt(500)),
		"2h × 5 days of overtime adds 100 operator-hours, got %s", impact.AdjustedCapacityHours)
	assert.True(t, impact.CapacityDeltaHours.Equal(decimal.NewFromInt(100)))
	assert.True(t, impact.CostImpact.Equal(decimal.NewFromInt(30)))

	stored, err := f.svc.Get(ctx, testClient, scenario.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ResultJSON)
	var snapshot ScenarioImpact
	require.NoError(t, json.Unmarshal([]byte(stored.ResultJSON), &snapshot))
	assert.Equal(t, scenario.ID, snapshot.ScenarioID)

	assert.Empty(t, f.rows.rows, "scenario evaluation never persists analysis rows")
	assert.Empty(t, f.schedules.schedules, "scenario evaluation never touches schedules")
}

func TestScenarioCreateDefaultsParams(t *testing.T) {
	f := newScenarioFixture()
	scenario, err := f.svc.Create(context.Background(), testClient, &CreateScenarioInput{
		Name: "baseline subcontract", Type: entity.ScenarioSubcontract,
	})
	require.NoError(t, err)

	adj, err := decodeScenarioParams(entity.ScenarioSubcontract, scenario.ParamsJSON)
	require.NoError(t, err)
	assert.True(t, adj.CostImpact().Equal(decimal.NewFromInt(8000)))
}

func TestScenarioCreateValidation(t *testing.T) {
	f := newScenarioFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, testClient, &CreateScenarioInput{Name: "x", Type: "TIME_TRAVEL"})
	assert.True(t, apperr.Is(err, apperr.Validation))

	missing := "no-such-schedule"
	_, err = f.svc.Create(ctx, testClient, &CreateScenarioInput{
		Name: "x", Type: entity.ScenarioOvertime, BaseScheduleID: &missing,
	})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestScenarioCompare(t *testing.T) {
	f := newScenarioFixture()
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators: 10, EfficiencyFactor: decimal.NewFromInt(1),
	}}
	ctx := context.Background()

	first, err := f.svc.Create(ctx, testClient, &CreateScenarioInput{Name: "ot", Type: entity.ScenarioOvertime})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, testClient, &CreateScenarioInput{Name: "sub", Type: entity.ScenarioSubcontract})
	require.NoError(t, err)

	_, err = f.svc.Compare(ctx, testClient, []string{first.ID}, weekStart, weekEnd)
	assert.True(t, apperr.Is(err, apperr.Validation), "comparison needs two scenarios")

	impacts, err := f.svc.Compare(ctx, testClient, []string{first.ID, second.ID}, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, impacts, 2)
	assert.Equal(t, entity.ScenarioOvertime, impacts[0].Type)
	assert.Equal(t, entity.ScenarioSubcontract, impacts[1].Type)
	assert.Len(t, f.events.byType(event.ScenarioCompared), 1)
}
