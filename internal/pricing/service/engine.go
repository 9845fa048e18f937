package service

import (
	"erp_pricing_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// Base price sources recorded in the trace.
const (
	BaseListPrice     = "list_price"
	BaseStandardPrice = "standard_price"
)

// Fields a price can be derived from, recorded in the trace.
const (
	FieldFixedPrice    = "fixed_price"
	FieldPercentPrice  = "percent_price"
	FieldPriceDiscount = "price_discount"
	FieldTierDefault   = "tier_default"
)

// Product is the pricing view of a catalog product.
type Product struct {
	ID            int64
	Name          string
	ListPrice     float64
	StandardPrice *float64
	TemplateID    *int64
	UomID         *int64
}

// Rule is the pricing view of a pricelist item. Nil fields are absent.
type Rule struct {
	ID            int64
	FixedPrice    *float64
	PercentPrice  *float64
	PriceDiscount *float64
	ComputePrice  string
}

// Trace explains how a price was reached. It is returned to callers and never stored.
type Trace struct {
	BaseSource      string
	BasePrice       decimal.Decimal
	ListPrice       decimal.Decimal
	StandardPrice   *decimal.Decimal
	DirectFromCost  *decimal.Decimal
	TierID          int64
	RuleApplied     bool
	AppliedField    string
	RuleID          *int64
	ComputePrice    string
	DiscountPercent *decimal.Decimal
}

// ResolvedPrice is a final unit price rounded to two decimals.
type ResolvedPrice struct {
	ProductID int64
	TierID    int64
	Price     decimal.Decimal
	Trace     Trace
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Engine resolves unit prices. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	costDivisor  decimal.Decimal
	tierDefaults map[int64]decimal.Decimal
}

// NewEngine creates an engine. costDivisor turns cost into a floor price
// (cost / divisor); tierDefaults maps tier ids to a discount percentage used
// when no rule applies.
func NewEngine(costDivisor float64, tierDefaults map[int64]float64) *Engine {
	tiers := make(map[int64]decimal.Decimal, len(tierDefaults))
	for tier, pct := range tierDefaults {
		tiers[tier] = decimal.NewFromFloat(pct)
	}
	return &Engine{
		costDivisor:  decimal.NewFromFloat(costDivisor),
		tierDefaults: tiers,
	}
}

// Resolve computes the unit price of product under tierID. Only the first
// rule is considered; any further rules are ignored.
func (e *Engine) Resolve(product Product, tierID int64, rules []Rule) (ResolvedPrice, error) {
	if product.ListPrice < 0 {
		return ResolvedPrice{}, apperr.Validation("list price must not be negative").
			WithDetails(map[string]any{"productId": product.ID, "listPrice": product.ListPrice})
	}

	listPrice := decimal.NewFromFloat(product.ListPrice)
	trace := Trace{
		BaseSource: BaseListPrice,
		BasePrice:  listPrice,
		ListPrice:  listPrice,
		TierID:     tierID,
	}

	if product.StandardPrice != nil && e.costDivisor.IsPositive() {
		cost := decimal.NewFromFloat(*product.StandardPrice)
		direct := cost.Div(e.costDivisor)
		trace.StandardPrice = &cost
		trace.DirectFromCost = &direct
		if !direct.LessThan(listPrice) {
			trace.BaseSource = BaseStandardPrice
			trace.BasePrice = direct
		}
	}

	price, applied := e.applyRule(&trace, rules)
	if !applied {
		price = e.applyTierDefault(&trace, tierID)
	}

	return ResolvedPrice{
		ProductID: product.ID,
		TierID:    tierID,
		Price:     price.Round(2),
		Trace:     trace,
	}, nil
}

func (e *Engine) applyRule(trace *Trace, rules []Rule) (decimal.Decimal, bool) {
	if len(rules) == 0 {
		return decimal.Zero, false
	}

	rule := rules[0]
	ruleID := rule.ID
	trace.RuleID = &ruleID
	trace.ComputePrice = rule.ComputePrice
	base := trace.BasePrice

	switch {
	case rule.FixedPrice != nil:
		trace.RuleApplied = true
		trace.AppliedField = FieldFixedPrice
		return decimal.NewFromFloat(*rule.FixedPrice), true

	case rule.PercentPrice != nil:
		pct := decimal.NewFromFloat(*rule.PercentPrice)
		trace.RuleApplied = true
		trace.AppliedField = FieldPercentPrice
		trace.DiscountPercent = &pct
		return base.Mul(one.Sub(pct.Div(hundred))), true

	case rule.PriceDiscount != nil:
		// Magnitudes above 1 are percentages, anything else is a fraction.
		discount := decimal.NewFromFloat(*rule.PriceDiscount)
		if discount.Abs().GreaterThan(one) {
			discount = discount.Div(hundred)
		}
		pct := discount.Mul(hundred)
		trace.RuleApplied = true
		trace.AppliedField = FieldPriceDiscount
		trace.DiscountPercent = &pct
		return base.Mul(one.Sub(discount)), true
	}

	return decimal.Zero, false
}

func (e *Engine) applyTierDefault(trace *Trace, tierID int64) decimal.Decimal {
	pct, ok := e.tierDefaults[tierID]
	if !ok {
		trace.BaseSource = BaseListPrice
		trace.BasePrice = trace.ListPrice
		return trace.ListPrice
	}

	trace.AppliedField = FieldTierDefault
	trace.DiscountPercent = &pct
	return trace.BasePrice.Mul(one.Sub(pct.Div(hundred)))
}
