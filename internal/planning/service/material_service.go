package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// availabilityBuffer 齐套判定的安全边际：可用量低于需求的1.1倍即判PARTIAL。
// 上游实现即为硬编码10%，保留为命名常量。
var availabilityBuffer = decimal.NewFromFloat(1.10)

// CheckRunResult 一次齐套检查的完整结果
type CheckRunResult struct {
	Run    entity.CheckRun         `json:"run"`
	Checks []entity.ComponentCheck `json:"checks"`
}

// ShortageTrendPoint 缺料趋势单日汇总
type ShortageTrendPoint struct {
	Date        time.Time       `json:"date"`
	Shortages   int             `json:"shortages"`
	ShortageQty decimal.Decimal `json:"shortage_qty"`
}

// MaterialCheckService 物料齐套检查（mini-MRP）
type MaterialCheckService struct {
	bom        *BOMService
	orderRepo  OrderStore
	stockRepo  StockReader
	checkRepo  CheckStore
	dispatcher event.Collector
	logger     *zap.Logger
}

func NewMaterialCheckService(bom *BOMService, orderRepo OrderStore, stockRepo StockReader, checkRepo CheckStore, dispatcher event.Collector, logger *zap.Logger) *MaterialCheckService {
	return &MaterialCheckService{
		bom:        bom,
		orderRepo:  orderRepo,
		stockRepo:  stockRepo,
		checkRepo:  checkRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RunCheck 对目标订单做齐套检查：展开BOM、汇总组件需求、对比最新库存、
// 分类缺料并逐 (订单, 组件) 落结果行。每次运行新建记录，历史保留。
func (s *MaterialCheckService) RunCheck(ctx context.Context, clientID string, orderIDs []string) (*CheckRunResult, error) {
	orders, err := s.orderRepo.ListByIDs(ctx, clientID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, apperr.E(apperr.NotFound, "no orders to check")
	}

	run := &entity.CheckRun{
		RunCode:   fmt.Sprintf("MRP-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8]),
		ClientID:  clientID,
		StartedAt: time.Now(),
	}

	// 展开每张订单的BOM，记录组件被哪些订单消耗；无BOM的订单跳过
	required := make(map[string]decimal.Decimal)
	consumers := make(map[string][]string)
	checked := 0
	for _, o := range orders {
		result, err := s.bom.ExplodeByStyle(ctx, clientID, o.Style, o.Quantity)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) || apperr.Is(err, apperr.EmptyBOM) {
				if s.logger != nil {
					s.logger.Debug("order skipped in material check",
						zap.String("order_id", o.ID), zap.String("style", o.Style))
				}
				continue
			}
			return nil, err
		}
		checked++
		for _, c := range result.Components {
			required[c.ComponentCode] = required[c.ComponentCode].Add(c.NetQty)
			consumers[c.ComponentCode] = append(consumers[c.ComponentCode], o.ID)
		}
	}

	codes := make([]string, 0, len(required))
	for code := range required {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	stock, err := s.stockRepo.LatestByItems(ctx, clientID, codes)
	if err != nil {
		return nil, fmt.Errorf("fetch stock: %w", err)
	}

	now := time.Now()
	shortageComponents := 0
	checks := make([]entity.ComponentCheck, 0, len(codes))
	for _, code := range codes {
		available := decimal.Zero
		if snap, ok := stock[code]; ok {
			available = snap.Available()
		}
		status, shortage := classifyAvailability(required[code], available)
		if status == entity.CheckStatusShortage {
			shortageComponents++
		}
		for _, orderID := range consumers[code] {
			checks = append(checks, entity.ComponentCheck{
				ClientID:      clientID,
				OrderID:       orderID,
				ComponentCode: code,
				RequiredQty:   required[code],
				AvailableQty:  available,
				ShortageQty:   shortage,
				Status:        status,
				CheckedAt:     now,
			})
		}
	}

	completed := time.Now()
	run.OrdersChecked = checked
	run.ComponentsChecked = len(codes)
	run.ShortageCount = shortageComponents
	run.CompletedAt = &completed
	if err := s.checkRepo.SaveRun(ctx, run, checks); err != nil {
		return nil, fmt.Errorf("persist check run: %w", err)
	}

	// 落库成功后才发缺料通知，失败的运行不对外报缺
	for _, chk := range checks {
		if chk.Status != entity.CheckStatusShortage {
			continue
		}
		s.dispatcher.Collect(ctx, event.New(event.ShortageDetected, clientID, run.ID, event.ShortagePayload{
			RunID:         run.ID,
			OrderID:       chk.OrderID,
			ComponentCode: chk.ComponentCode,
			RequiredQty:   chk.RequiredQty,
			AvailableQty:  chk.AvailableQty,
			ShortageQty:   chk.ShortageQty,
		}))
	}

	return &CheckRunResult{Run: *run, Checks: checks}, nil
}

// GetRun 取一次检查的运行记录及全部结果行
func (s *MaterialCheckService) GetRun(ctx context.Context, clientID, runID string) (*CheckRunResult, error) {
	run, err := s.checkRepo.GetRun(ctx, clientID, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "check run %s not found", runID)
		}
		return nil, err
	}
	checks, err := s.checkRepo.ListChecksByRun(ctx, clientID, runID)
	if err != nil {
		return nil, err
	}
	return &CheckRunResult{Run: *run, Checks: checks}, nil
}

// ListRuns 分页取历史检查
func (s *MaterialCheckService) ListRuns(ctx context.Context, clientID string, page, pageSize int) ([]entity.CheckRun, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.checkRepo.ListRuns(ctx, clientID, page, pageSize)
}

// ShortageTrend 近N天缺料按日汇总
func (s *MaterialCheckService) ShortageTrend(ctx context.Context, clientID string, days int) ([]ShortageTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)
	shortages, err := s.checkRepo.ListShortagesSince(ctx, clientID, since)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*ShortageTrendPoint)
	var order []string
	for _, c := range shortages {
		day := c.CheckedAt.Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			d, _ := time.Parse("2006-01-02", day)
			p = &ShortageTrendPoint{Date: d}
			byDay[day] = p
			order = append(order, day)
		}
		p.Shortages++
		p.ShortageQty = p.ShortageQty.Add(c.ShortageQty)
	}

	points := make([]ShortageTrendPoint, 0, len(order))
	for _, day := range order {
		points = append(points, *byDay[day])
	}
	return points, nil
}

// classifyAvailability 可用量分级：≤0 缺料；低于需求×1.1 部分齐套；其余齐套。
// shortage = max(0, required − available)。
func classifyAvailability(required, available decimal.Decimal) (string, decimal.Decimal) {
	shortage := required.Sub(available)
	if shortage.IsNegative() {
		shortage = decimal.Zero
	}
	switch {
	case available.LessThanOrEqual(decimal.Zero):
		return entity.CheckStatusShortage, shortage
	case available.LessThan(required.Mul(availabilityBuffer)):
		return entity.CheckStatusPartial, shortage
	default:
		return entity.CheckStatusOK, shortage
	}
}
