package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	sixty     = decimal.NewFromInt(60)
	hundred   = decimal.NewFromInt(100)
	one       = decimal.NewFromInt(1)
	defShifts = decimal.NewFromInt(1)
	defHours  = decimal.NewFromInt(8)
)

// calendarProfile 日历期间画像：工作日数与平均班次/班时
type calendarProfile struct {
	WorkingDays   int
	ShiftsPerDay  decimal.Decimal
	HoursPerShift decimal.Decimal
}

// lineInputs 单线产能计算输入，场景分析会在此之上施加增量
type lineInputs struct {
	WorkingDays   int
	ShiftsPerDay  decimal.Decimal
	HoursPerShift decimal.Decimal
	ExtraHours    decimal.Decimal
	Operators     int
	Efficiency    decimal.Decimal
	Absenteeism   decimal.Decimal
}

// capacityAdjuster 场景对产能计算的修改面。nil 即基线。
type capacityAdjuster interface {
	AdjustLine(line entity.ProductionLine, in *lineInputs)
	AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal
	ExtraCapacityHours(p calendarProfile) decimal.Decimal
	CostImpact() decimal.Decimal
}

// AnalysisResult 一次产能分析的汇总结果
type AnalysisResult struct {
	PeriodStart           time.Time                 `json:"period_start"`
	PeriodEnd             time.Time                 `json:"period_end"`
	Lines                 []entity.CapacityAnalysis `json:"lines"`
	TotalCapacityHours    decimal.Decimal           `json:"total_capacity_hours"`
	TotalDemandHours      decimal.Decimal           `json:"total_demand_hours"`
	OverallUtilizationPct decimal.Decimal           `json:"overall_utilization_pct"`
	BottleneckCount       int                       `json:"bottleneck_count"`
	ExtraCapacityHours    decimal.Decimal           `json:"extra_capacity_hours,omitempty"`
}

// CapacityService 产线产能与负荷分析
type CapacityService struct {
	calendarRepo CalendarReader
	lineRepo     LineReader
	standardRepo StandardReader
	orderRepo    OrderStore
	scheduleRepo ScheduleStore
	capacityRepo CapacityStore
	dispatcher   event.Collector
	cfg          Config
}

func NewCapacityService(calendarRepo CalendarReader, lineRepo LineReader, standardRepo StandardReader, orderRepo OrderStore, scheduleRepo ScheduleStore, capacityRepo CapacityStore, dispatcher event.Collector, cfg Config) *CapacityService {
	return &CapacityService{
		calendarRepo: calendarRepo,
		lineRepo:     lineRepo,
		standardRepo: standardRepo,
		orderRepo:    orderRepo,
		scheduleRepo: scheduleRepo,
		capacityRepo: capacityRepo,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

// Analyze 对期间内的目标产线执行完整产能分析并落库；
// 瓶颈线收集一条过载通知。lineIDs 为空取全部激活产线。
func (s *CapacityService) Analyze(ctx context.Context, clientID string, start, end time.Time, lineIDs []string, scheduleID string) (*AnalysisResult, error) {
	result, err := s.run(ctx, clientID, start, end, lineIDs, scheduleID, nil)
	if err != nil {
		return nil, err
	}

	if err := s.capacityRepo.BatchCreate(ctx, result.Lines); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	for _, row := range result.Lines {
		if !row.IsBottleneck {
			continue
		}
		shortfall := row.DemandHours.Sub(row.CapacityHours)
		if shortfall.IsNegative() {
			shortfall = decimal.Zero
		}
		s.dispatcher.Collect(ctx, event.New(event.CapacityOverload, clientID, row.LineID, event.OverloadPayload{
			LineID:         row.LineID,
			LineCode:       row.LineCode,
			PeriodStart:    row.PeriodStart,
			PeriodEnd:      row.PeriodEnd,
			UtilizationPct: row.UtilizationPct,
			ShortfallHours: shortfall,
		}))
	}
	return result, nil
}

// Bottlenecks 按调用方阈值只返回瓶颈线，不落库
func (s *CapacityService) Bottlenecks(ctx context.Context, clientID string, start, end time.Time, threshold decimal.Decimal) ([]entity.CapacityAnalysis, error) {
	if threshold.LessThanOrEqual(decimal.Zero) {
		threshold = s.cfg.BottleneckThresholdPct
	}
	result, err := s.run(ctx, clientID, start, end, nil, "", nil)
	if err != nil {
		return nil, err
	}
	var bottlenecks []entity.CapacityAnalysis
	for _, row := range result.Lines {
		if row.UtilizationPct.GreaterThanOrEqual(threshold) {
			bottlenecks = append(bottlenecks, row)
		}
	}
	return bottlenecks, nil
}

// ExportAnalysis 导出期间内已落库的分析结果为xlsx
func (s *CapacityService) ExportAnalysis(ctx context.Context, clientID string, start, end time.Time) (*excelize.File, string, error) {
	rows, err := s.capacityRepo.ListByPeriod(ctx, clientID, start, end)
	if err != nil {
		return nil, "", fmt.Errorf("list analyses: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Capacity"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Line", "Period Start", "Period End", "Working Days", "Gross Hours",
		"Operators", "Efficiency", "Absenteeism", "Net Hours", "Capacity Hours",
		"Demand Hours", "Demand Units", "Utilization %", "Bottleneck"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		values := []interface{}{
			row.LineCode,
			row.PeriodStart.Format("2006-01-02"),
			row.PeriodEnd.Format("2006-01-02"),
			row.WorkingDays,
			row.GrossHours.InexactFloat64(),
			row.Operators,
			row.EfficiencyFactor.InexactFloat64(),
			row.AbsenteeismFactor.InexactFloat64(),
			row.NetHours.InexactFloat64(),
			row.CapacityHours.InexactFloat64(),
			row.DemandHours.InexactFloat64(),
			row.DemandUnits.InexactFloat64(),
			row.UtilizationPct.InexactFloat64(),
			row.IsBottleneck,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("capacity_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	return f, filename, nil
}

// run 分析核心：对每条线走完整12步计算。adj 非空时按场景增量修改输入。
func (s *CapacityService) run(ctx context.Context, clientID string, start, end time.Time, lineIDs []string, scheduleID string, adj capacityAdjuster) (*AnalysisResult, error) {
	if end.Before(start) {
		return nil, apperr.E(apperr.Validation, "period end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	lines, err := s.lineRepo.ListActive(ctx, clientID, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}

	profile, err := s.calendarProfile(ctx, clientID, start, end)
	if err != nil {
		return nil, err
	}

	demandHours, demandUnits, err := s.demandByLine(ctx, clientID, start, end, lines, scheduleID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &AnalysisResult{PeriodStart: start, PeriodEnd: end}
	for _, line := range lines {
		in := lineInputs{
			WorkingDays:   profile.WorkingDays,
			ShiftsPerDay:  profile.ShiftsPerDay,
			HoursPerShift: profile.HoursPerShift,
			Operators:     line.MaxOperators,
			Efficiency:    line.EfficiencyFactor,
			Absenteeism:   line.AbsenteeismFactor,
		}
		if in.Efficiency.IsZero() {
			in.Efficiency = s.cfg.DefaultEfficiency
		}
		if adj != nil {
			adj.AdjustLine(line, &in)
		}

		gross := decimal.NewFromInt(int64(in.WorkingDays)).
			Mul(in.ShiftsPerDay).
			Mul(in.HoursPerShift).
			Add(in.ExtraHours)
		net := gross.Mul(in.Efficiency).Mul(one.Sub(in.Absenteeism))
		capacity := net.Mul(decimal.NewFromInt(int64(in.Operators)))

		demand := demandHours[line.ID]
		if adj != nil {
			demand = adj.AdjustDemandHours(line.ID, demand)
			if demand.IsNegative() {
				demand = decimal.Zero
			}
		}

		utilization := decimal.Zero
		if capacity.IsPositive() {
			utilization = demand.Div(capacity).Mul(hundred).Round(2)
		}

		row := entity.CapacityAnalysis{
			ClientID:          clientID,
			LineID:            line.ID,
			LineCode:          line.Code,
			PeriodStart:       start,
			PeriodEnd:         end,
			AnalysisDate:      now,
			WorkingDays:       in.WorkingDays,
			ShiftsPerDay:      in.ShiftsPerDay,
			HoursPerShift:     in.HoursPerShift,
			GrossHours:        gross,
			Operators:         in.Operators,
			EfficiencyFactor:  in.Efficiency,
			AbsenteeismFactor: in.Absenteeism,
			NetHours:          net,
			CapacityHours:     capacity,
			DemandHours:       demand,
			DemandUnits:       demandUnits[line.ID],
			UtilizationPct:    utilization,
			IsBottleneck:      utilization.GreaterThanOrEqual(s.cfg.BottleneckThresholdPct),
		}
		result.Lines = append(result.Lines, row)
		result.TotalCapacityHours = result.TotalCapacityHours.Add(capacity)
		result.TotalDemandHours = result.TotalDemandHours.Add(demand)
		if row.IsBottleneck {
			result.BottleneckCount++
		}
	}

	if adj != nil {
		extra := adj.ExtraCapacityHours(profile)
		if extra.IsPositive() {
			result.ExtraCapacityHours = extra
			result.TotalCapacityHours = result.TotalCapacityHours.Add(extra)
		}
	}
	if result.TotalCapacityHours.IsPositive() {
		result.OverallUtilizationPct = result.TotalDemandHours.
			Div(result.TotalCapacityHours).Mul(hundred).Round(2)
	}
	return result, nil
}

// calendarProfile 从日历推工作日数与平均班次/班时；
// 无日历数据时工作日取日历天数的5/7，班次1班8小时。
func (s *CapacityService) calendarProfile(ctx context.Context, clientID string, start, end time.Time) (calendarProfile, error) {
	entries, err := s.calendarRepo.ListBetween(ctx, clientID, start, end)
	if err != nil {
		return calendarProfile{}, fmt.Errorf("list calendar: %w", err)
	}

	if len(entries) == 0 {
		span := int(end.Sub(start).Hours()/24) + 1
		wd := int(decimal.NewFromInt(int64(span)).
			Mul(decimal.NewFromInt(5)).
			Div(decimal.NewFromInt(7)).
			Round(0).IntPart())
		return calendarProfile{WorkingDays: wd, ShiftsPerDay: defShifts, HoursPerShift: defHours}, nil
	}

	workingDays := 0
	totalShifts := 0
	totalHours := decimal.Zero
	for _, e := range entries {
		if !e.IsWorkingDay {
			continue
		}
		workingDays++
		totalShifts += e.ShiftsAvailable
		totalHours = totalHours.Add(e.TotalHours())
	}

	p := calendarProfile{WorkingDays: workingDays, ShiftsPerDay: defShifts, HoursPerShift: defHours}
	if workingDays > 0 && totalShifts > 0 {
		p.ShiftsPerDay = decimal.NewFromInt(int64(totalShifts)).
			Div(decimal.NewFromInt(int64(workingDays))).Round(4)
		p.HoursPerShift = totalHours.
			Div(decimal.NewFromInt(int64(totalShifts))).Round(4)
	}
	return p, nil
}

// demandByLine 从已提交/生效排程明细汇总每线负荷：
// 负荷小时 = Σ 排产数量 × 款式总SAM / 60。
func (s *CapacityService) demandByLine(ctx context.Context, clientID string, start, end time.Time, lines []entity.ProductionLine, scheduleID string) (map[string]decimal.Decimal, map[string]decimal.Decimal, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}

	var details []entity.ScheduleDetail
	if scheduleID != "" {
		schedule, err := s.scheduleRepo.GetByID(ctx, clientID, scheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, apperr.E(apperr.NotFound, "schedule %s not found", scheduleID)
			}
			return nil, nil, err
		}
		inScope := make(map[string]bool, len(ids))
		for _, id := range ids {
			inScope[id] = true
		}
		for _, d := range schedule.Details {
			if inScope[d.LineID] && !d.ScheduledDate.Before(start) && !d.ScheduledDate.After(end) {
				details = append(details, d)
			}
		}
	} else {
		var err error
		details, err = s.scheduleRepo.DetailsByPeriodLines(ctx, clientID, ids, start, end)
		if err != nil {
			return nil, nil, fmt.Errorf("list schedule details: %w", err)
		}
	}

	samByOrder, err := s.samByOrder(ctx, clientID, details)
	if err != nil {
		return nil, nil, err
	}

	demandHours := make(map[string]decimal.Decimal, len(lines))
	demandUnits := make(map[string]decimal.Decimal, len(lines))
	for _, d := range details {
		hours := d.ScheduledQty.Mul(samByOrder[d.OrderID]).Div(sixty)
		demandHours[d.LineID] = demandHours[d.LineID].Add(hours)
		demandUnits[d.LineID] = demandUnits[d.LineID].Add(d.ScheduledQty)
	}
	return demandHours, demandUnits, nil
}

// samByOrder 每张订单的单件总SAM：订单覆盖值优先，否则取款式各工序SAM之和
func (s *CapacityService) samByOrder(ctx context.Context, clientID string, details []entity.ScheduleDetail) (map[string]decimal.Decimal, error) {
	orderIDs := make([]string, 0, len(details))
	seen := make(map[string]bool, len(details))
	for _, d := range details {
		if !seen[d.OrderID] {
			seen[d.OrderID] = true
			orderIDs = append(orderIDs, d.OrderID)
		}
	}
	if len(orderIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	orders, err := s.orderRepo.ListByIDs(ctx, clientID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	styles := make([]string, 0, len(orders))
	styleSeen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !styleSeen[o.Style] {
			styleSeen[o.Style] = true
			styles = append(styles, o.Style)
		}
	}

	standards, err := s.standardRepo.ListByStyles(ctx, clientID, styles)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	samByStyle := styleSAMs(standards)

	samByOrder := make(map[string]decimal.Decimal, len(orders))
	for _, o := range orders {
		if o.SAMOverride != nil && o.SAMOverride.IsPositive() {
			samByOrder[o.ID] = *o.SAMOverride
		} else {
			samByOrder[o.ID] = samByStyle[o.Style]
		}
	}
	return samByOrder, nil
}

// styleSAMs 逐款式聚合工序标准工时
func styleSAMs(standards []entity.ProductionStandard) map[string]decimal.Decimal {
	grouped := make(map[string][]entity.ProductionStandard)
	for _, std := range standards {
		grouped[std.Style] = append(grouped[std.Style], std)
	}
	sams := make(map[string]decimal.Decimal, len(grouped))
	for style, group := range grouped {
		sams[style] = entity.TotalSAM(group)
	}
	return sams
}
