package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testClient = "acme"

// 表结构按迁移DDL手工建；uuid默认值换成sqlite的等价写法。
// 明细表有意不带client_id，租户过滤必须走排程头。
const testSchema = `
CREATE TABLE plan_schedules (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	name TEXT NOT NULL,
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	status TEXT NOT NULL DEFAULT 'DRAFT',
	committed_by TEXT,
	committed_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE plan_schedule_details (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	schedule_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	line_id TEXT NOT NULL,
	scheduled_date DATE NOT NULL,
	scheduled_qty NUMERIC NOT NULL,
	completed_qty NUMERIC DEFAULT 0,
	sequence INTEGER DEFAULT 1,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE plan_orders (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	order_number TEXT NOT NULL,
	style TEXT NOT NULL,
	quantity NUMERIC NOT NULL,
	required_date DATE NOT NULL,
	priority TEXT NOT NULL DEFAULT 'NORMAL',
	status TEXT NOT NULL DEFAULT 'DRAFT',
	sam_override NUMERIC,
	completed_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE plan_kpi_commitments (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	schedule_id TEXT NOT NULL,
	kpi_key TEXT NOT NULL,
	committed_value NUMERIC NOT NULL,
	actual_value NUMERIC,
	variance NUMERIC,
	variance_pct NUMERIC,
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE plan_scenarios (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	base_schedule_id TEXT,
	params TEXT,
	result TEXT,
	active BOOLEAN DEFAULT 1,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE plan_check_runs (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	run_code TEXT NOT NULL UNIQUE,
	orders_checked INTEGER DEFAULT 0,
	components_checked INTEGER DEFAULT 0,
	shortage_count INTEGER DEFAULT 0,
	started_at DATETIME,
	completed_at DATETIME,
	created_at DATETIME
);
CREATE TABLE plan_component_checks (
	id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	client_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	component_code TEXT NOT NULL,
	required_qty NUMERIC DEFAULT 0,
	available_qty NUMERIC DEFAULT 0,
	shortage_qty NUMERIC DEFAULT 0,
	status TEXT NOT NULL,
	checked_at DATETIME,
	created_at DATETIME
);
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
