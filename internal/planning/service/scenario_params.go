package service

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
)

// 场景参数按类型各自建型，统一实现 capacityAdjuster。
// COMBINED 嵌套其余类型做多约束组合。

// OvertimeParams 加班：目标线每工作日追加工时
type OvertimeParams struct {
	LineIDs     []string        `json:"line_ids,omitempty"`
	HoursPerDay decimal.Decimal `json:"hours_per_day"`
	CostPerHour decimal.Decimal `json:"cost_per_hour"`
}

func (p OvertimeParams) AdjustLine(line entity.ProductionLine, in *lineInputs) {
	if !lineTargeted(p.LineIDs, line.ID) {
		return
	}
	in.ExtraHours = in.ExtraHours.Add(
		decimal.NewFromInt(int64(in.WorkingDays)).Mul(p.HoursPerDay))
}

func (p OvertimeParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p OvertimeParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return decimal.Zero
}

func (p OvertimeParams) CostImpact() decimal.Decimal {
	return p.HoursPerDay.Mul(p.CostPerHour)
}

// SetupReductionParams 换款时间压缩：按换装占比折减负荷工时
type SetupReductionParams struct {
	SetupSharePct      decimal.Decimal `json:"setup_share_pct"`
	ReductionPct       decimal.Decimal `json:"reduction_pct"`
	ImplementationCost decimal.Decimal `json:"implementation_cost"`
}

func (p SetupReductionParams) AdjustLine(entity.ProductionLine, *lineInputs) {}

func (p SetupReductionParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	saved := p.SetupSharePct.Div(hundred).Mul(p.ReductionPct.Div(hundred))
	return demand.Mul(one.Sub(saved))
}

func (p SetupReductionParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return decimal.Zero
}

func (p SetupReductionParams) CostImpact() decimal.Decimal {
	return p.ImplementationCost
}

// SubcontractParams 外发：外协量折算为追加产能
type SubcontractParams struct {
	Quantity    decimal.Decimal `json:"quantity"`
	SAMPerUnit  decimal.Decimal `json:"sam_per_unit"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

func (p SubcontractParams) AdjustLine(entity.ProductionLine, *lineInputs) {}

func (p SubcontractParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p SubcontractParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return p.Quantity.Mul(p.SAMPerUnit).Div(sixty)
}

func (p SubcontractParams) CostImpact() decimal.Decimal {
	return p.Quantity.Mul(p.CostPerUnit)
}

// NewLineParams 新开产线：按日历画像折算整线追加产能
type NewLineParams struct {
	Operators   int             `json:"operators"`
	Efficiency  decimal.Decimal `json:"efficiency"`
	Absenteeism decimal.Decimal `json:"absenteeism"`
	SetupCost   decimal.Decimal `json:"setup_cost"`
}

func (p NewLineParams) AdjustLine(entity.ProductionLine, *lineInputs) {}

func (p NewLineParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p NewLineParams) ExtraCapacityHours(cal calendarProfile) decimal.Decimal {
	return decimal.NewFromInt(int64(cal.WorkingDays)).
		Mul(cal.ShiftsPerDay).
		Mul(cal.HoursPerShift).
		Mul(p.Efficiency).
		Mul(one.Sub(p.Absenteeism)).
		Mul(decimal.NewFromInt(int64(p.Operators)))
}

func (p NewLineParams) CostImpact() decimal.Decimal {
	return p.SetupCost
}

// ExtraShiftParams 加开班次
type ExtraShiftParams struct {
	LineIDs []string `json:"line_ids,omitempty"`
	Shifts  int      `json:"shifts"`
}

func (p ExtraShiftParams) AdjustLine(line entity.ProductionLine, in *lineInputs) {
	if !lineTargeted(p.LineIDs, line.ID) {
		return
	}
	in.ShiftsPerDay = in.ShiftsPerDay.Add(decimal.NewFromInt(int64(p.Shifts)))
}

func (p ExtraShiftParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p ExtraShiftParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return decimal.Zero
}

func (p ExtraShiftParams) CostImpact() decimal.Decimal {
	return decimal.Zero
}

// EfficiencyParams 效率提升
type EfficiencyParams struct {
	LineIDs        []string        `json:"line_ids,omitempty"`
	ImprovementPct decimal.Decimal `json:"improvement_pct"`
	TrainingCost   decimal.Decimal `json:"training_cost"`
}

func (p EfficiencyParams) AdjustLine(line entity.ProductionLine, in *lineInputs) {
	if !lineTargeted(p.LineIDs, line.ID) {
		return
	}
	improved := in.Efficiency.Mul(one.Add(p.ImprovementPct.Div(hundred)))
	if improved.GreaterThan(one) {
		improved = one
	}
	in.Efficiency = improved
}

func (p EfficiencyParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p EfficiencyParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return decimal.Zero
}

func (p EfficiencyParams) CostImpact() decimal.Decimal {
	return p.TrainingCost
}

// AbsenteeismParams 缺勤激增
type AbsenteeismParams struct {
	LineIDs  []string        `json:"line_ids,omitempty"`
	SpikePct decimal.Decimal `json:"spike_pct"`
}

func (p AbsenteeismParams) AdjustLine(line entity.ProductionLine, in *lineInputs) {
	if !lineTargeted(p.LineIDs, line.ID) {
		return
	}
	spiked := in.Absenteeism.Add(p.SpikePct.Div(hundred))
	if spiked.GreaterThan(one) {
		spiked = one
	}
	in.Absenteeism = spiked
}

func (p AbsenteeismParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	return demand
}

func (p AbsenteeismParams) ExtraCapacityHours(calendarProfile) decimal.Decimal {
	return decimal.Zero
}

func (p AbsenteeismParams) CostImpact() decimal.Decimal {
	return decimal.Zero
}

// CombinedParams 多约束组合，非空子项依次生效
type CombinedParams struct {
	Overtime       *OvertimeParams       `json:"overtime,omitempty"`
	SetupReduction *SetupReductionParams `json:"setup_reduction,omitempty"`
	Subcontract    *SubcontractParams    `json:"subcontract,omitempty"`
	NewLine        *NewLineParams        `json:"new_line,omitempty"`
	ExtraShift     *ExtraShiftParams     `json:"extra_shift,omitempty"`
	Efficiency     *EfficiencyParams     `json:"efficiency,omitempty"`
	Absenteeism    *AbsenteeismParams    `json:"absenteeism,omitempty"`
}

func (p CombinedParams) parts() []capacityAdjuster {
	var parts []capacityAdjuster
	if p.Overtime != nil {
		parts = append(parts, *p.Overtime)
	}
	if p.SetupReduction != nil {
		parts = append(parts, *p.SetupReduction)
	}
	if p.Subcontract != nil {
		parts = append(parts, *p.Subcontract)
	}
	if p.NewLine != nil {
		parts = append(parts, *p.NewLine)
	}
	if p.ExtraShift != nil {
		parts = append(parts, *p.ExtraShift)
	}
	if p.Efficiency != nil {
		parts = append(parts, *p.Efficiency)
	}
	if p.Absenteeism != nil {
		parts = append(parts, *p.Absenteeism)
	}
	return parts
}

func (p CombinedParams) AdjustLine(line entity.ProductionLine, in *lineInputs) {
	for _, part := range p.parts() {
		part.AdjustLine(line, in)
	}
}

func (p CombinedParams) AdjustDemandHours(lineID string, demand decimal.Decimal) decimal.Decimal {
	for _, part := range p.parts() {
		demand = part.AdjustDemandHours(lineID, demand)
	}
	return demand
}

func (p CombinedParams) ExtraCapacityHours(cal calendarProfile) decimal.Decimal {
	total := decimal.Zero
	for _, part := range p.parts() {
		total = total.Add(part.ExtraCapacityHours(cal))
	}
	return total
}

func (p CombinedParams) CostImpact() decimal.Decimal {
	total := decimal.Zero
	for _, part := range p.parts() {
		total = total.Add(part.CostImpact())
	}
	return total
}

// decodeScenarioParams 按类型解码参数JSON
func decodeScenarioParams(scenarioType, raw string) (capacityAdjuster, error) {
	if raw == "" {
		return defaultScenarioParams(scenarioType)
	}

	var (
		adj capacityAdjuster
		err error
	)
	switch scenarioType {
	case entity.ScenarioOvertime:
		var p OvertimeParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioSetupReduction:
		var p SetupReductionParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioSubcontract:
		var p SubcontractParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioNewLine:
		var p NewLineParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioExtraShift:
		var p ExtraShiftParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioEfficiency:
		var p EfficiencyParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioAbsenteeism:
		var p AbsenteeismParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	case entity.ScenarioCombined:
		var p CombinedParams
		err = json.Unmarshal([]byte(raw), &p)
		adj = p
	default:
		return nil, apperr.E(apperr.Validation, "unknown scenario type %s", scenarioType)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "malformed %s scenario params", scenarioType)
	}
	return adj, nil
}

// defaultScenarioParams 每个类型的默认参数集
func defaultScenarioParams(scenarioType string) (capacityAdjuster, error) {
	switch scenarioType {
	case entity.ScenarioOvertime:
		return OvertimeParams{
			HoursPerDay: decimal.NewFromInt(2),
			CostPerHour: decimal.NewFromInt(15),
		}, nil
	case entity.ScenarioSetupReduction:
		return SetupReductionParams{
			SetupSharePct:      decimal.NewFromInt(10),
			ReductionPct:       decimal.NewFromInt(25),
			ImplementationCost: decimal.NewFromInt(5000),
		}, nil
	case entity.ScenarioSubcontract:
		return SubcontractParams{
			Quantity:    decimal.NewFromInt(1000),
			SAMPerUnit:  decimal.NewFromInt(10),
			CostPerUnit: decimal.NewFromInt(8),
		}, nil
	case entity.ScenarioNewLine:
		return NewLineParams{
			Operators:   20,
			Efficiency:  decimal.NewFromFloat(0.80),
			Absenteeism: decimal.NewFromFloat(0.05),
			SetupCost:   decimal.NewFromInt(50000),
		}, nil
	case entity.ScenarioExtraShift:
		return ExtraShiftParams{Shifts: 1}, nil
	case entity.ScenarioEfficiency:
		return EfficiencyParams{
			ImprovementPct: decimal.NewFromInt(10),
			TrainingCost:   decimal.NewFromInt(3000),
		}, nil
	case entity.ScenarioAbsenteeism:
		return AbsenteeismParams{SpikePct: decimal.NewFromInt(10)}, nil
	case entity.ScenarioCombined:
		return CombinedParams{
			Overtime: &OvertimeParams{
				HoursPerDay: decimal.NewFromInt(2),
				CostPerHour: decimal.NewFromInt(15),
			},
			Efficiency: &EfficiencyParams{
				ImprovementPct: decimal.NewFromInt(10),
				TrainingCost:   decimal.NewFromInt(3000),
			},
		}, nil
	default:
		return nil, apperr.E(apperr.Validation, "unknown scenario type %s", scenarioType)
	}
}

// lineTargeted 空集合视为作用于全部产线
func lineTargeted(lineIDs []string, id string) bool {
	if len(lineIDs) == 0 {
		return true
	}
	for _, l := range lineIDs {
		if l == id {
			return true
		}
	}
	return false
}
