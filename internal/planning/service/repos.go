package service

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
)

// 服务层依赖的仓库读写面。gorm 实现见 repository 包；
// 测试用内存实现见 *_test.go。跨表多写的操作由仓库方法
// 整体包在一个事务里，服务层不拼事务。

type CalendarReader interface {
	ListBetween(ctx context.Context, clientID string, start, end time.Time) ([]entity.CalendarEntry, error)
}

type LineReader interface {
	ListActive(ctx context.Context, clientID string, lineIDs []string) ([]entity.ProductionLine, error)
}

type StandardReader interface {
	ListByStyles(ctx context.Context, clientID string, styles []string) ([]entity.ProductionStandard, error)
}

type BOMReader interface {
	ActiveHeaderByItem(ctx context.Context, clientID, parentItemCode string) (*entity.BOMHeader, error)
	ActiveHeaderByStyle(ctx context.Context, clientID, style string) (*entity.BOMHeader, error)
}

type StockReader interface {
	LatestByItems(ctx context.Context, clientID string, itemCodes []string) (map[string]entity.StockSnapshot, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, clientID, id string) (*entity.Order, error)
	ListByIDs(ctx context.Context, clientID string, ids []string) ([]entity.Order, error)
	ListByStatus(ctx context.Context, clientID string, statuses []string) ([]entity.Order, error)
	ListCompletedBetween(ctx context.Context, clientID string, start, end time.Time) ([]entity.Order, error)
}

type CheckStore interface {
	SaveRun(ctx context.Context, run *entity.CheckRun, checks []entity.ComponentCheck) error
	GetRun(ctx context.Context, clientID, id string) (*entity.CheckRun, error)
	ListRuns(ctx context.Context, clientID string, page, pageSize int) ([]entity.CheckRun, int64, error)
	ListChecksByRun(ctx context.Context, clientID, runID string) ([]entity.ComponentCheck, error)
	ListShortagesSince(ctx context.Context, clientID string, since time.Time) ([]entity.ComponentCheck, error)
}

type CapacityStore interface {
	BatchCreate(ctx context.Context, rows []entity.CapacityAnalysis) error
	ListByPeriod(ctx context.Context, clientID string, start, end time.Time) ([]entity.CapacityAnalysis, error)
}

type ScheduleStore interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	CreateWithOrders(ctx context.Context, schedule *entity.Schedule, orderIDs []string, orderStatus string) error
	GetByID(ctx context.Context, clientID, id string) (*entity.Schedule, error)
	List(ctx context.Context, clientID, status string, page, pageSize int) ([]entity.Schedule, int64, error)
	UpdateStatusCAS(ctx context.Context, clientID, id, fromStatus string, updates map[string]interface{}) (bool, error)
	CommitWithKPIs(ctx context.Context, clientID, id, fromStatus string, updates map[string]interface{}, commitments []entity.KPICommitment) (bool, error)
	DetailsByPeriodLines(ctx context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ScheduleDetail, error)
}

type ScenarioStore interface {
	Create(ctx context.Context, scenario *entity.Scenario) error
	GetByID(ctx context.Context, clientID, id string) (*entity.Scenario, error)
	List(ctx context.Context, clientID, scenarioType string, page, pageSize int) ([]entity.Scenario, int64, error)
	Update(ctx context.Context, scenario *entity.Scenario) error
}

type KPIStore interface {
	BatchCreateCommitments(ctx context.Context, commitments []entity.KPICommitment) error
	ListBySchedule(ctx context.Context, clientID, scheduleID string) ([]entity.KPICommitment, error)
	UpdateCommitment(ctx context.Context, commitment *entity.KPICommitment) error
	ListByPeriods(ctx context.Context, clientID, kpiKey string, limit int) ([]entity.KPICommitment, error)
	ListProductionRecords(ctx context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ProductionRecord, error)
}
