package repository

import (
	"context"
	"fmt"
	"strings"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/erp"
)

const (
	modelProduct       = "product.product"
	modelPricelistItem = "product.pricelist.item"
	modelTax           = "account.tax"
	modelPartner       = "res.partner"

	productNotFoundMessage = "product not found"
	partnerNotFoundMessage = "partner not found"
)

var productFields = []string{
	"id", "display_name", "default_code", "list_price", "standard_price",
	"product_tmpl_id", "uom_id", "categ_id",
}

var ruleFields = []string{
	"id", "pricelist_id", "product_id", "product_tmpl_id",
	"fixed_price", "percent_price", "price_discount", "compute_price",
}

// ERPRepository implements Repository over the ERP object endpoint.
type ERPRepository struct {
	erp erp.Caller
}

// NewERP creates a new ERP-backed catalog repository.
func NewERP(caller erp.Caller) *ERPRepository {
	return &ERPRepository{erp: caller}
}

// Compile-time check that ERPRepository implements Repository.
var _ Repository = (*ERPRepository)(nil)

// FindProduct reads a single product.
func (r *ERPRepository) FindProduct(ctx context.Context, id int64) (Product, error) {
	products, err := r.FindProducts(ctx, []int64{id})
	if err != nil {
		return Product{}, err
	}
	if len(products) == 0 {
		return Product{}, apperr.NotFound(productNotFoundMessage).WithDetails(map[string]any{"productId": id})
	}
	return products[0], nil
}

// FindProducts reads products by id. A search_read on id is used instead of
// read so unknown or archived ids are skipped rather than faulting.
func (r *ERPRepository) FindProducts(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	rows, err := erp.SearchRead(ctx, r.erp, modelProduct, erp.Query{
		Domain: []interface{}{erp.Cond("id", "in", ids)},
		Fields: productFields,
	})
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRecord(row))
	}
	return products, nil
}

// FindPricingRules returns the rules of pricelistID matching the product, or
// its template when one is known.
func (r *ERPRepository) FindPricingRules(ctx context.Context, pricelistID int64, productID int64, templateID *int64) ([]PricingRule, error) {
	domain := []interface{}{erp.Cond("pricelist_id", "=", pricelistID)}
	if templateID != nil {
		domain = append(domain, "|",
			erp.Cond("product_id", "=", productID),
			erp.Cond("product_tmpl_id", "=", *templateID),
		)
	} else {
		domain = append(domain, erp.Cond("product_id", "=", productID))
	}

	rows, err := erp.SearchRead(ctx, r.erp, modelPricelistItem, erp.Query{
		Domain: domain,
		Fields: ruleFields,
	})
	if err != nil {
		return nil, err
	}

	rules := make([]PricingRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, ruleFromRecord(row))
	}
	return rules, nil
}

// FindTax returns the first tax matching rate and usage, or nil when none exists.
func (r *ERPRepository) FindTax(ctx context.Context, rate float64, usage string) (*TaxRef, error) {
	rows, err := erp.SearchRead(ctx, r.erp, modelTax, erp.Query{
		Domain: []interface{}{
			erp.Cond("amount", "=", rate),
			erp.Cond("type_tax_use", "=", usage),
		},
		Fields: []string{"id", "name", "amount"},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	id, _ := rows[0].Int64("id")
	amount, _ := rows[0].Float("amount")
	return &TaxRef{ID: id, Name: rows[0].String("name"), Amount: amount}, nil
}

// FindPartner reads a customer with its pricelist.
func (r *ERPRepository) FindPartner(ctx context.Context, id int64) (Partner, error) {
	rows, err := erp.SearchRead(ctx, r.erp, modelPartner, erp.Query{
		Domain: []interface{}{erp.Cond("id", "=", id)},
		Fields: []string{"id", "display_name", "property_product_pricelist"},
		Limit:  1,
	})
	if err != nil {
		return Partner{}, err
	}
	if len(rows) == 0 {
		return Partner{}, apperr.NotFound(partnerNotFoundMessage).WithDetails(map[string]any{"partnerId": id})
	}

	partner := Partner{ID: id, Name: rows[0].String("display_name")}
	if pricelistID, ok := rows[0].Many2One("property_product_pricelist"); ok {
		partner.PricelistID = &pricelistID
	}
	return partner, nil
}

// ListProducts lists saleable products with optional name/code search and category filter.
func (r *ERPRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error) {
	domain := []interface{}{erp.Cond("sale_ok", "=", true)}
	if search := strings.TrimSpace(params.Search); search != "" {
		domain = append(domain, "|",
			erp.Cond("name", "ilike", search),
			erp.Cond("default_code", "ilike", search),
		)
	}
	if category := strings.TrimSpace(params.Category); category != "" {
		domain = append(domain, erp.Cond("categ_id.name", "ilike", category))
	}

	total, err := erp.SearchCount(ctx, r.erp, modelProduct, domain)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Product{}, 0, nil
	}

	rows, err := erp.SearchRead(ctx, r.erp, modelProduct, erp.Query{
		Domain: domain,
		Fields: productFields,
		Offset: params.Offset,
		Limit:  params.Limit,
		Order:  "name asc, id asc",
	})
	if err != nil {
		return nil, 0, err
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRecord(row))
	}
	return products, total, nil
}

// ReadProductImage returns the product's main image as base64.
func (r *ERPRepository) ReadProductImage(ctx context.Context, id int64) (string, error) {
	rows, err := erp.Read(ctx, r.erp, modelProduct, []int64{id}, []string{"image_1920"})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", apperr.NotFound(productNotFoundMessage).WithDetails(map[string]any{"productId": id})
	}

	image := rows[0].String("image_1920")
	if image == "" {
		return "", apperr.NotFound(fmt.Sprintf("product %d has no image", id))
	}
	return image, nil
}

func productFromRecord(row erp.Record) Product {
	id, _ := row.Int64("id")
	listPrice, _ := row.Float("list_price")

	product := Product{
		ID:           id,
		Name:         row.String("display_name"),
		DefaultCode:  row.String("default_code"),
		ListPrice:    listPrice,
		CategoryName: erp.Many2OneName(row["categ_id"]),
	}
	if cost, ok := row.Float("standard_price"); ok {
		product.StandardPrice = &cost
	}
	if templateID, ok := row.Many2One("product_tmpl_id"); ok {
		product.TemplateID = &templateID
	}
	if uomID, ok := row.Many2One("uom_id"); ok {
		product.UomID = &uomID
	}
	return product
}

func ruleFromRecord(row erp.Record) PricingRule {
	id, _ := row.Int64("id")
	pricelistID, _ := row.Many2One("pricelist_id")

	rule := PricingRule{
		ID:            id,
		PricelistID:   pricelistID,
		FixedPrice:    optionalAmount(row, "fixed_price"),
		PercentPrice:  optionalAmount(row, "percent_price"),
		PriceDiscount: optionalAmount(row, "price_discount"),
		ComputePrice:  row.String("compute_price"),
	}
	if productID, ok := row.Many2One("product_id"); ok {
		rule.ProductID = &productID
	}
	if templateID, ok := row.Many2One("product_tmpl_id"); ok {
		rule.TemplateID = &templateID
	}
	return rule
}

// optionalAmount reads a rule amount. The ERP stores unset amounts as 0.0 or
// false, and both mean the field does not apply.
func optionalAmount(row erp.Record, key string) *float64 {
	value, ok := row.Float(key)
	if !ok || value == 0 {
		return nil
	}
	return &value
}
