package entity

import (
	"time"
)

// 假设分析（what-if）场景类型
const (
	ScenarioOvertime       = "OVERTIME"
	ScenarioSetupReduction = "SETUP_REDUCTION"
	ScenarioSubcontract    = "SUBCONTRACT"
	ScenarioNewLine        = "NEW_LINE"
	ScenarioExtraShift     = "EXTRA_SHIFT"
	ScenarioEfficiency     = "EFFICIENCY_IMPROVEMENT"
	ScenarioAbsenteeism    = "ABSENTEEISM_SPIKE"
	ScenarioCombined       = "COMBINED"
)

// ScenarioTypes 全部场景类型，顺序即展示顺序
var ScenarioTypes = []string{
	ScenarioOvertime,
	ScenarioSetupReduction,
	ScenarioSubcontract,
	ScenarioNewLine,
	ScenarioExtraShift,
	ScenarioEfficiency,
	ScenarioAbsenteeism,
	ScenarioCombined,
}

// Scenario 假设分析场景：参数与结果均为按类型区分的JSON快照
type Scenario struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID       string    `json:"client_id" gorm:"size:32;not null;index"`
	Name           string    `json:"name" gorm:"size:128;not null"`
	Type           string    `json:"type" gorm:"size:32;not null"`
	BaseScheduleID *string   `json:"base_schedule_id" gorm:"type:uuid"`
	ParamsJSON     string    `json:"params" gorm:"column:params;type:jsonb"`
	ResultJSON     string    `json:"result" gorm:"column:result;type:jsonb"`
	Active         bool      `json:"active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Scenario) TableName() string {
	return "plan_scenarios"
}

// ValidScenarioType 场景类型校验
func ValidScenarioType(t string) bool {
	for _, s := range ScenarioTypes {
		if s == t {
			return true
		}
	}
	return false
}
