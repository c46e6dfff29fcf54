package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capacityFixture struct {
	calendar  *fakeCalendarRepo
	lines     *fakeLineRepo
	standards *fakeStandardRepo
	orders    *fakeOrderRepo
	schedules *fakeScheduleRepo
	rows      *fakeCapacityRepo
	events    *fakeDispatcher
	svc       *CapacityService
}

func newCapacityFixture() *capacityFixture {
	f := &capacityFixture{
		calendar:  &fakeCalendarRepo{},
		lines:     &fakeLineRepo{},
		standards: &fakeStandardRepo{},
		orders:    &fakeOrderRepo{},
		schedules: &fakeScheduleRepo{},
		rows:      &fakeCapacityRepo{},
		events:    &fakeDispatcher{},
	}
	f.svc = NewCapacityService(f.calendar, f.lines, f.standards, f.orders, f.schedules, f.rows, f.events, DefaultConfig())
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzeCapacityMath(t *testing.T) {
	f := newCapacityFixture()
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators:      10,
		EfficiencyFactor:  decimal.NewFromFloat(0.85),
		AbsenteeismFactor: decimal.NewFromFloat(0.05),
	}}

	// no calendar entries: 7-day span falls back to 5 working days, 1 shift × 8h
	start := date(2026, time.September, 7)
	end := date(2026, time.September, 13)
	result, err := f.svc.Analyze(context.Background(), testClient, start, end, nil, "")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	row := result.Lines[0]
	assert.Equal(t, 5, row.WorkingDays)
	assert.True(t, row.GrossHours.Equal(decimal.NewFromInt(40)), "5 days × 1 shift × 8h, got %s", row.GrossHours)
	assert.True(t, row.NetHours.Equal(decimal.NewFromFloat(32.3)), "40 × 0.85 × 0.95, got %s", row.NetHours)
	assert.True(t, row.CapacityHours.Equal(decimal.NewFromInt(323)), "net × 10 operators, got %s", row.CapacityHours)
	assert.True(t, row.DemandHours.IsZero())
	assert.True(t, row.UtilizationPct.IsZero())
	assert.False(t, row.IsBottleneck)
	assert.Len(t, f.rows.rows, 1, "analysis rows are persisted")
}

func TestAnalyzeZeroOperators(t *testing.T) {
	f := newCapacityFixture()
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		EfficiencyFactor: decimal.NewFromFloat(0.85),
	}}

	result, err := f.svc.Analyze(context.Background(), testClient, date(2026, time.September, 7), date(2026, time.September, 13), nil, "")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].CapacityHours.IsZero())
	assert.True(t, result.Lines[0].UtilizationPct.IsZero(), "zero capacity reports zero utilization")
	assert.False(t, result.Lines[0].IsBottleneck)
}

func TestAnalyzeBottleneckAtThreshold(t *testing.T) {
	f := newCapacityFixture()
	start := date(2026, time.September, 7)
	f.calendar.entries = []entity.CalendarEntry{{
		ClientID: testClient, Date: start, IsWorkingDay: true,
		ShiftsAvailable: 1, Shift1Hours: decimal.NewFromInt(8),
	}}
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators:     1,
		EfficiencyFactor: decimal.NewFromInt(1),
	}}
	f.orders.orders = []entity.Order{{
		ID: "ord-1", ClientID: testClient, Style: "ST-TEE",
		Quantity: decimal.NewFromFloat(7.6), RequiredDate: start, Status: entity.OrderStatusScheduled,
	}}
	f.standards.standards = []entity.ProductionStandard{{
		ClientID: testClient, Style: "ST-TEE", Operation: "SEW", SAM: decimal.NewFromInt(60),
	}}
	// committed schedule loading the line with 7.6h against 8h of capacity
	require.NoError(t, f.schedules.Create(context.Background(), &entity.Schedule{
		ClientID: testClient, Name: "wk37", Status: entity.ScheduleStatusCommitted,
		PeriodStart: start, PeriodEnd: start,
		Details: []entity.ScheduleDetail{{
			OrderID: "ord-1", LineID: "line-1", ScheduledDate: start,
			ScheduledQty: decimal.NewFromFloat(7.6),
		}},
	}))

	result, err := f.svc.Analyze(context.Background(), testClient, start, start, nil, "")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	row := result.Lines[0]
	assert.True(t, row.CapacityHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, row.UtilizationPct.Equal(decimal.NewFromInt(95)), "7.6/8, got %s", row.UtilizationPct)
	assert.True(t, row.IsBottleneck, "utilization exactly at threshold counts as bottleneck")

	overloads := f.events.byType(event.CapacityOverload)
	require.Len(t, overloads, 1)
	payload := overloads[0].Payload.(event.OverloadPayload)
	assert.Equal(t, "L1", payload.LineCode)
	assert.True(t, payload.ShortfallHours.IsZero(), "demand below capacity clamps shortfall at zero")
}

func TestAnalyzeSAMOverrideWins(t *testing.T) {
	f := newCapacityFixture()
	start := date(2026, time.September, 7)
	f.calendar.entries = []entity.CalendarEntry{{
		ClientID: testClient, Date: start, IsWorkingDay: true,
		ShiftsAvailable: 1, Shift1Hours: decimal.NewFromInt(8),
	}}
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators: 5, EfficiencyFactor: decimal.NewFromInt(1),
	}}
	override := decimal.NewFromInt(12)
	f.orders.orders = []entity.Order{{
		ID: "ord-1", ClientID: testClient, Style: "ST-TEE",
		Quantity: decimal.NewFromInt(100), RequiredDate: start,
		Status: entity.OrderStatusScheduled, SAMOverride: &override,
	}}
	f.standards.standards = []entity.ProductionStandard{{
		ClientID: testClient, Style: "ST-TEE", Operation: "SEW", SAM: decimal.NewFromInt(60),
	}}
	require.NoError(t, f.schedules.Create(context.Background(), &entity.Schedule{
		ClientID: testClient, Name: "wk37", Status: entity.ScheduleStatusActive,
		PeriodStart: start, PeriodEnd: start,
		Details: []entity.ScheduleDetail{{
			OrderID: "ord-1", LineID: "line-1", ScheduledDate: start,
			ScheduledQty: decimal.NewFromInt(100),
		}},
	}))

	result, err := f.svc.Analyze(context.Background(), testClient, start, start, nil, "")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].DemandHours.Equal(decimal.NewFromInt(20)),
		"100 units × 12 SAM / 60, got %s", result.Lines[0].DemandHours)
}

func TestCalendarProfileAverages(t *testing.T) {
	f := newCapacityFixture()
	start := date(2026, time.September, 7)
	f.calendar.entries = []entity.CalendarEntry{
		{ClientID: testClient, Date: start, IsWorkingDay: true,
			ShiftsAvailable: 2, Shift1Hours: decimal.NewFromInt(8), Shift2Hours: decimal.NewFromInt(4)},
		{ClientID: testClient, Date: start.AddDate(0, 0, 1), IsWorkingDay: true,
			ShiftsAvailable: 2, Shift1Hours: decimal.NewFromInt(8), Shift2Hours: decimal.NewFromInt(4)},
		{ClientID: testClient, Date: start.AddDate(0, 0, 2), IsWorkingDay: false},
	}

	profile, err := f.svc.calendarProfile(context.Background(), testClient, start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, profile.WorkingDays)
	assert.True(t, profile.ShiftsPerDay.Equal(decimal.NewFromInt(2)))
	assert.True(t, profile.HoursPerShift.Equal(decimal.NewFromInt(6)), "24h over 4 shifts, got %s", profile.HoursPerShift)
}

func TestBottlenecksDefaultThreshold(t *testing.T) {
	f := newCapacityFixture()
	f.lines.lines = []entity.ProductionLine{{
		ID: "line-1", ClientID: testClient, Code: "L1", Active: true,
		MaxOperators: 10, EfficiencyFactor: decimal.NewFromFloat(0.85),
	}}

	rows, err := f.svc.Bottlenecks(context.Background(), testClient, date(2026, time.September, 7), date(2026, time.September, 13), decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, rows, "idle line never crosses the default threshold")
	assert.Empty(t, f.rows.rows, "bottleneck query does not persist")
}

func TestAnalyzePeriodValidation(t *testing.T) {
	f := newCapacityFixture()
	_, err := f.svc.Analyze(context.Background(), testClient, date(2026, time.September, 13), date(2026, time.September, 7), nil, "")
	assert.True(t, apperr.Is(err, apperr.Validation))
}
