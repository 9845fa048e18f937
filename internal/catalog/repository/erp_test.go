package repository

import (
	"context"
	"testing"

	"erp_pricing_backend/platform/apperr"
)

type call struct {
	model  string
	method string
	args   []interface{}
	kwargs map[string]interface{}
}

type fakeCaller struct {
	calls   []call
	replies map[string]interface{}
}

func (f *fakeCaller) Call(_ context.Context, model, method string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	f.calls = append(f.calls, call{model: model, method: method, args: args, kwargs: kwargs})
	return f.replies[model+"."+method], nil
}

func TestFindProductMapsERPValues(t *testing.T) {
	caller := &fakeCaller{replies: map[string]interface{}{
		"product.product.search_read": []interface{}{
			map[string]interface{}{
				"id":              int64(5),
				"display_name":    "[RB-01] Roller blind",
				"default_code":    "RB-01",
				"list_price":      120.0,
				"standard_price":  false,
				"product_tmpl_id": []interface{}{int64(3), "Roller blind"},
				"uom_id":          []interface{}{int64(1), "Units"},
				"categ_id":        []interface{}{int64(9), "Blinds"},
			},
		},
	}}
	repo := NewERP(caller)

	product, err := repo.FindProduct(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.StandardPrice != nil {
		t.Fatal("false standard_price must map to absent cost")
	}
	if product.TemplateID == nil || *product.TemplateID != 3 {
		t.Fatalf("expected template 3, got %v", product.TemplateID)
	}
	if product.UomID == nil || *product.UomID != 1 {
		t.Fatalf("expected uom 1, got %v", product.UomID)
	}
	if product.CategoryName != "Blinds" || product.ListPrice != 120 {
		t.Fatalf("unexpected product: %+v", product)
	}
}

func TestFindProductMissingIsNotFound(t *testing.T) {
	repo := NewERP(&fakeCaller{replies: map[string]interface{}{
		"product.product.search_read": []interface{}{},
	}})

	if _, err := repo.FindProduct(context.Background(), 5); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindPricingRulesTreatsZeroAsAbsent(t *testing.T) {
	caller := &fakeCaller{replies: map[string]interface{}{
		"product.pricelist.item.search_read": []interface{}{
			map[string]interface{}{
				"id":              int64(11),
				"pricelist_id":    []interface{}{int64(2), "Wholesale"},
				"product_id":      false,
				"product_tmpl_id": []interface{}{int64(3), "Roller blind"},
				"fixed_price":     0.0,
				"percent_price":   10.0,
				"price_discount":  false,
				"compute_price":   "percentage",
			},
		},
	}}
	repo := NewERP(caller)
	template := int64(3)

	rules, err := repo.FindPricingRules(context.Background(), 2, 5, &template)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	rule := rules[0]
	if rule.FixedPrice != nil || rule.PriceDiscount != nil {
		t.Fatalf("zero and false amounts must be absent: %+v", rule)
	}
	if rule.PercentPrice == nil || *rule.PercentPrice != 10 {
		t.Fatalf("expected percent 10, got %v", rule.PercentPrice)
	}
	if rule.ProductID != nil || rule.TemplateID == nil {
		t.Fatalf("unexpected linkage: %+v", rule)
	}

	domain := caller.calls[0].args[0].([]interface{})
	if len(domain) != 4 || domain[1] != "|" {
		t.Fatalf("expected product-or-template domain, got %#v", domain)
	}
}

func TestFindTaxReturnsNilWhenMissing(t *testing.T) {
	repo := NewERP(&fakeCaller{replies: map[string]interface{}{
		"account.tax.search_read": []interface{}{},
	}})

	tax, err := repo.FindTax(context.Background(), 16, "sale")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tax != nil {
		t.Fatalf("expected no tax, got %+v", tax)
	}
}
