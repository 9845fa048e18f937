package transport

type ResolvePriceQuery struct {
	PricelistID int64 `form:"pricelistId" validate:"required,min=1"`
}

type ResolvePricesRequest struct {
	PricelistID int64   `json:"pricelistId" validate:"required,min=1"`
	ProductIDs  []int64 `json:"productIds" validate:"required,min=1,max=200,dive,min=1"`
}

type PriceTraceResponse struct {
	BaseSource      string   `json:"baseSource"`
	BasePrice       float64  `json:"basePrice"`
	ListPrice       float64  `json:"listPrice"`
	StandardPrice   *float64 `json:"standardPrice,omitempty"`
	DirectFromCost  *float64 `json:"directFromCost,omitempty"`
	TierID          int64    `json:"tierId"`
	RuleApplied     bool     `json:"ruleApplied"`
	AppliedField    string   `json:"appliedField,omitempty"`
	RuleID          *int64   `json:"ruleId,omitempty"`
	ComputePrice    string   `json:"computePrice,omitempty"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

type ResolvedPriceResponse struct {
	ProductID   int64              `json:"productId"`
	PricelistID int64              `json:"pricelistId"`
	Price       float64            `json:"price"`
	Trace       PriceTraceResponse `json:"trace"`
}

type ResolvedPriceListResponse struct {
	Items []ResolvedPriceResponse `json:"items"`
}
