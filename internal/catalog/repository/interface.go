package repository

import (
	"context"
)

// Product is a sellable product variant as read from the ERP.
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	DefaultCode   string   `json:"defaultCode,omitempty"`
	ListPrice     float64  `json:"listPrice"`
	StandardPrice *float64 `json:"standardPrice,omitempty"`
	TemplateID    *int64   `json:"templateId,omitempty"`
	UomID         *int64   `json:"uomId,omitempty"`
	CategoryName  string   `json:"categoryName,omitempty"`
}

// PricingRule is one pricelist item bound to a product or its template.
// Nil numeric fields were absent (false or 0) on the ERP side.
type PricingRule struct {
	ID            int64
	PricelistID   int64
	ProductID     *int64
	TemplateID    *int64
	FixedPrice    *float64
	PercentPrice  *float64
	PriceDiscount *float64
	ComputePrice  string
}

// TaxRef identifies a tax record.
type TaxRef struct {
	ID     int64
	Name   string
	Amount float64
}

// Partner is the customer a quotation is issued to.
type Partner struct {
	ID          int64
	Name        string
	PricelistID *int64
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	Search   string
	Category string
	Offset   int
	Limit    int
}

// Repository defines catalog reads against the remote object store.
type Repository interface {
	// FindProduct returns the product or a NotFound error.
	FindProduct(ctx context.Context, id int64) (Product, error)
	// FindProducts returns the products that exist among ids, in no particular order.
	FindProducts(ctx context.Context, ids []int64) ([]Product, error)
	// FindPricingRules returns the pricelist items matching the product or its template.
	FindPricingRules(ctx context.Context, pricelistID int64, productID int64, templateID *int64) ([]PricingRule, error)
	// FindTax returns the first tax with the given rate and usage, or nil.
	FindTax(ctx context.Context, rate float64, usage string) (*TaxRef, error)
	// FindPartner returns the partner or a NotFound error.
	FindPartner(ctx context.Context, id int64) (Partner, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error)
	// ReadProductImage returns the base64 main image of a product.
	ReadProductImage(ctx context.Context, id int64) (string, error)
}
