package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"gorm.io/gorm"
)

// ExplodedComponent 展开后的单个组件需求
type ExplodedComponent struct {
	ComponentCode string          `json:"component_code"`
	Unit          string          `json:"unit"`
	Category      string          `json:"category"`
	QuantityPer   decimal.Decimal `json:"quantity_per"`
	WastePct      decimal.Decimal `json:"waste_pct"`
	GrossQty      decimal.Decimal `json:"gross_qty"`
	NetQty        decimal.Decimal `json:"net_qty"`
}

// ExplosionResult 一次BOM展开的结果
type ExplosionResult struct {
	ParentItemCode  string              `json:"parent_item_code"`
	Style           string              `json:"style"`
	Quantity        decimal.Decimal     `json:"quantity"`
	Revision        string              `json:"revision"`
	Components      []ExplodedComponent `json:"components"`
	TotalComponents int                 `json:"total_components"`
}

// StyleDemand 批量展开输入：款式 + 数量
type StyleDemand struct {
	Style    string          `json:"style"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BOMService 物料清单展开（仅单层，不递归子装配）
type BOMService struct {
	bomRepo    BOMReader
	dispatcher event.Collector
}

func NewBOMService(bomRepo BOMReader, dispatcher event.Collector) *BOMService {
	return &BOMService{bomRepo: bomRepo, dispatcher: dispatcher}
}

// Explode 按父件展开：毛需求 = 数量 × 单件用量，净需求 = 毛需求 × (1 + 损耗率/100)
func (s *BOMService) Explode(ctx context.Context, clientID, parentItemCode string, qty decimal.Decimal) (*ExplosionResult, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.E(apperr.Validation, "explode quantity must be positive, got %s", qty)
	}

	header, err := s.bomRepo.ActiveHeaderByItem(ctx, clientID, parentItemCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "no active BOM for item %s", parentItemCode)
		}
		return nil, err
	}

	result, err := s.explodeHeader(header, qty)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Collect(ctx, event.New(event.BOMExploded, clientID, header.ID, event.BOMExplodedPayload{
		ParentItemCode:  parentItemCode,
		Quantity:        qty,
		TotalComponents: result.TotalComponents,
	}))
	return result, nil
}

// ExplodeByStyle 按款式展开，订单路径用
func (s *BOMService) ExplodeByStyle(ctx context.Context, clientID, style string, qty decimal.Decimal) (*ExplosionResult, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.E(apperr.Validation, "explode quantity must be positive, got %s", qty)
	}

	header, err := s.bomRepo.ActiveHeaderByStyle(ctx, clientID, style)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "no active BOM for style %s", style)
		}
		return nil, err
	}
	return s.explodeHeader(header, qty)
}

// ExplodeBatch 批量展开，无BOM或空BOM的款式跳过不报错
func (s *BOMService) ExplodeBatch(ctx context.Context, clientID string, demands []StyleDemand) ([]ExplosionResult, error) {
	results := make([]ExplosionResult, 0, len(demands))
	for _, d := range demands {
		r, err := s.ExplodeByStyle(ctx, clientID, d.Style, d.Quantity)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) || apperr.Is(err, apperr.EmptyBOM) {
				continue
			}
			return nil, err
		}
		results = append(results, *r)
	}
	return results, nil
}

// AggregateRequirements 跨展开结果按组件汇总净需求（求和，不取最大）
func (s *BOMService) AggregateRequirements(results []ExplosionResult) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range results {
		for _, c := range r.Components {
			totals[c.ComponentCode] = totals[c.ComponentCode].Add(c.NetQty)
		}
	}
	return totals
}

func (s *BOMService) explodeHeader(header *entity.BOMHeader, qty decimal.Decimal) (*ExplosionResult, error) {
	if len(header.Details) == 0 {
		return nil, apperr.E(apperr.EmptyBOM, "BOM %s for item %s has no component rows", header.ID, header.ParentItemCode)
	}

	components := make([]ExplodedComponent, 0, len(header.Details))
	for _, d := range header.Details {
		gross := qty.Mul(d.QuantityPer)
		components = append(components, ExplodedComponent{
			ComponentCode: d.ComponentCode,
			Unit:          d.Unit,
			Category:      d.Category,
			QuantityPer:   d.QuantityPer,
			WastePct:      d.WastePct,
			GrossQty:      gross,
			NetQty:        d.NetQuantity(gross),
		})
	}

	return &ExplosionResult{
		ParentItemCode:  header.ParentItemCode,
		Style:           header.Style,
		Quantity:        qty,
		Revision:        header.Revision,
		Components:      components,
		TotalComponents: len(components),
	}, nil
}
