package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"gorm.io/gorm"
)

// VarianceEntry 单个KPI的承诺/实际对比
type VarianceEntry struct {
	KPIKey         string          `json:"kpi_key"`
	CommittedValue decimal.Decimal `json:"committed_value"`
	ActualValue    decimal.Decimal `json:"actual_value"`
	Variance       decimal.Decimal `json:"variance"`
	VariancePct    decimal.Decimal `json:"variance_pct"`
	Classification string          `json:"classification"`
}

// TrendPoint KPI趋势单期数据
type TrendPoint struct {
	PeriodStart    time.Time        `json:"period_start"`
	PeriodEnd      time.Time        `json:"period_end"`
	CommittedValue decimal.Decimal  `json:"committed_value"`
	ActualValue    *decimal.Decimal `json:"actual_value"`
	VariancePct    *decimal.Decimal `json:"variance_pct"`
}

// KPIService KPI承诺与差异追踪
type KPIService struct {
	kpiRepo      KPIStore
	scheduleRepo ScheduleStore
	orderRepo    OrderStore
	dispatcher   event.Collector
	cfg          Config
}

func NewKPIService(kpiRepo KPIStore, scheduleRepo ScheduleStore, orderRepo OrderStore, dispatcher event.Collector, cfg Config) *KPIService {
	return &KPIService{
		kpiRepo:      kpiRepo,
		scheduleRepo: scheduleRepo,
		orderRepo:    orderRepo,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

// StoreCommitments 按排程逐KPI写入承诺值，期间取自排程
func (s *KPIService) StoreCommitments(ctx context.Context, clientID, scheduleID string, targets map[string]decimal.Decimal) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, clientID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.NotFound, "schedule %s not found", scheduleID)
		}
		return err
	}

	commitments := commitmentRows(clientID, scheduleID, schedule, targets)
	if err := s.kpiRepo.BatchCreateCommitments(ctx, commitments); err != nil {
		return fmt.Errorf("store commitments: %w", err)
	}
	return nil
}

// commitmentRows 组装承诺行，KPI键排序保证写入顺序稳定
func commitmentRows(clientID, scheduleID string, schedule *entity.Schedule, targets map[string]decimal.Decimal) []entity.KPICommitment {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	commitments := make([]entity.KPICommitment, 0, len(keys))
	for _, k := range keys {
		commitments = append(commitments, entity.KPICommitment{
			ClientID:       clientID,
			ScheduleID:     scheduleID,
			KPIKey:         k,
			CommittedValue: targets[k],
			PeriodStart:    schedule.PeriodStart,
			PeriodEnd:      schedule.PeriodEnd,
		})
	}
	return commitments
}

// GetActuals 由产线实绩与完结订单算期间实际KPI。keys 为空取全部。
func (s *KPIService) GetActuals(ctx context.Context, clientID string, start, end time.Time, keys []string) (map[string]decimal.Decimal, error) {
	if end.Before(start) {
		return nil, apperr.E(apperr.Validation, "period end before start")
	}

	records, err := s.kpiRepo.ListProductionRecords(ctx, clientID, nil, start, end)
	if err != nil {
		return nil, fmt.Errorf("list production records: %w", err)
	}

	var (
		totalUnits, defects, scrap decimal.Decimal
		runMin, downMin, setupMin  decimal.Decimal
		effSum, perfSum            decimal.Decimal
	)
	for _, r := range records {
		totalUnits = totalUnits.Add(r.UnitsProduced)
		defects = defects.Add(r.DefectUnits)
		scrap = scrap.Add(r.ScrapUnits)
		runMin = runMin.Add(r.RunMinutes)
		downMin = downMin.Add(r.DowntimeMinutes)
		setupMin = setupMin.Add(r.SetupMinutes)
		effSum = effSum.Add(r.EfficiencyPct)
		perfSum = perfSum.Add(r.PerformancePct)
	}

	efficiency, performance := decimal.Zero, decimal.Zero
	if n := len(records); n > 0 {
		count := decimal.NewFromInt(int64(n))
		efficiency = effSum.Div(count).Round(2)
		performance = perfSum.Div(count).Round(2)
	}

	quality := decimal.Zero
	if totalUnits.IsPositive() {
		quality = totalUnits.Sub(defects).Sub(scrap).Div(totalUnits).Mul(hundred).Round(2)
	}

	utilization := decimal.Zero
	if totalMin := runMin.Add(downMin).Add(setupMin); totalMin.IsPositive() {
		utilization = runMin.Div(totalMin).Mul(hundred).Round(2)
	}

	oee := efficiency.Mul(performance).Mul(quality).
		Div(decimal.NewFromInt(10000)).Round(2)

	onTime, err := s.onTimeDeliveryRate(ctx, clientID, start, end)
	if err != nil {
		return nil, err
	}

	actuals := map[string]decimal.Decimal{
		entity.KPIEfficiency:  efficiency,
		entity.KPIPerformance: performance,
		entity.KPIQualityRate: quality,
		entity.KPIOnTimeRate:  onTime,
		entity.KPIUtilization: utilization,
		entity.KPIOEE:         oee,
		entity.KPIOutput:      totalUnits,
	}
	if len(keys) == 0 {
		return actuals, nil
	}
	filtered := make(map[string]decimal.Decimal, len(keys))
	for _, k := range keys {
		if v, ok := actuals[k]; ok {
			filtered[k] = v
		}
	}
	return filtered, nil
}

// CalculateVariance 逐KPI配对承诺与实际：差异 = 实际 − 承诺，
// 差异率超阈值告警，超两倍阈值升级为critical；结果回写承诺行。
func (s *KPIService) CalculateVariance(ctx context.Context, clientID, scheduleID string) ([]VarianceEntry, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, clientID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "schedule %s not found", scheduleID)
		}
		return nil, err
	}

	commitments, err := s.kpiRepo.ListBySchedule(ctx, clientID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	if len(commitments) == 0 {
		return nil, apperr.E(apperr.NotFound, "schedule %s has no KPI commitments", scheduleID)
	}

	actuals, err := s.GetActuals(ctx, clientID, schedule.PeriodStart, schedule.PeriodEnd, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]VarianceEntry, 0, len(commitments))
	for i := range commitments {
		c := &commitments[i]
		actual, ok := actuals[c.KPIKey]
		if !ok {
			continue
		}

		variance := actual.Sub(c.CommittedValue)
		pct := variancePct(variance, c.CommittedValue, actual)
		class := s.classifyVariance(pct)

		c.ActualValue = &actual
		c.Variance = &variance
		c.VariancePct = &pct
		if err := s.kpiRepo.UpdateCommitment(ctx, c); err != nil {
			return nil, fmt.Errorf("update commitment: %w", err)
		}

		entries = append(entries, VarianceEntry{
			KPIKey:         c.KPIKey,
			CommittedValue: c.CommittedValue,
			ActualValue:    actual,
			Variance:       variance,
			VariancePct:    pct,
			Classification: class,
		})

		if class != entity.VarianceOnTarget {
			s.dispatcher.Collect(ctx, event.New(event.KPIVarianceAlert, clientID, scheduleID, event.VarianceAlertPayload{
				ScheduleID:     scheduleID,
				KPIKey:         c.KPIKey,
				CommittedValue: c.CommittedValue,
				ActualValue:    actual,
				Variance:       variance,
				VariancePct:    pct,
				Severity:       class,
			}))
		}
	}
	return entries, nil
}

// History 排程下全部KPI承诺记录
func (s *KPIService) History(ctx context.Context, clientID, scheduleID string) ([]entity.KPICommitment, error) {
	return s.kpiRepo.ListBySchedule(ctx, clientID, scheduleID)
}

// Trending 单KPI近N期承诺/实际序列
func (s *KPIService) Trending(ctx context.Context, clientID, kpiKey string, periods int) ([]TrendPoint, error) {
	if periods <= 0 {
		periods = 12
	}
	commitments, err := s.kpiRepo.ListByPeriods(ctx, clientID, kpiKey, periods)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(commitments))
	for _, c := range commitments {
		points = append(points, TrendPoint{
			PeriodStart:    c.PeriodStart,
			PeriodEnd:      c.PeriodEnd,
			CommittedValue: c.CommittedValue,
			ActualValue:    c.ActualValue,
			VariancePct:    c.VariancePct,
		})
	}
	return points, nil
}

func (s *KPIService) onTimeDeliveryRate(ctx context.Context, clientID string, start, end time.Time) (decimal.Decimal, error) {
	completed, err := s.orderRepo.ListCompletedBetween(ctx, clientID, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list completed orders: %w", err)
	}
	if len(completed) == 0 {
		return decimal.Zero, nil
	}
	onTime := 0
	for _, o := range completed {
		if o.CompletedAt != nil && !o.CompletedAt.After(o.RequiredDate.AddDate(0, 0, 1)) {
			onTime++
		}
	}
	return decimal.NewFromInt(int64(onTime)).
		Div(decimal.NewFromInt(int64(len(completed)))).
		Mul(hundred).Round(2), nil
}

func (s *KPIService) classifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(s.cfg.VarianceThresholdPct):
		return entity.VarianceOnTarget
	case abs.GreaterThan(s.cfg.VarianceThresholdPct.Mul(decimal.NewFromInt(2))):
		return entity.VarianceCritical
	default:
		return entity.VarianceWarning
	}
}

// variancePct 承诺为0时退化：实际也为0记0，否则按符号记±100
func variancePct(variance, committed, actual decimal.Decimal) decimal.Decimal {
	if committed.IsZero() {
		if actual.IsZero() {
			return decimal.Zero
		}
		if actual.IsNegative() {
			return hundred.Neg()
		}
		return hundred
	}
	return variance.Div(committed).Mul(hundred).Round(2)
}
