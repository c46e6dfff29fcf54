package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalendarEntry 工厂日历：每个租户每天一条
type CalendarEntry struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID        string          `json:"client_id" gorm:"size:32;not null;uniqueIndex:uq_calendar_client_date"`
	Date            time.Time       `json:"date" gorm:"type:date;not null;uniqueIndex:uq_calendar_client_date"`
	IsWorkingDay    bool            `json:"is_working_day" gorm:"default:true"`
	ShiftsAvailable int             `json:"shifts_available" gorm:"default:1"` // 0-3班
	Shift1Hours     decimal.Decimal `json:"shift1_hours" gorm:"type:decimal(5,2);default:8"`
	Shift2Hours     decimal.Decimal `json:"shift2_hours" gorm:"type:decimal(5,2);default:0"`
	Shift3Hours     decimal.Decimal `json:"shift3_hours" gorm:"type:decimal(5,2);default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (CalendarEntry) TableName() string {
	return "plan_calendar_entries"
}

// TotalHours 当天全部班次工时合计
func (c CalendarEntry) TotalHours() decimal.Decimal {
	return c.Shift1Hours.Add(c.Shift2Hours).Add(c.Shift3Hours)
}
