package transport

// Products

type ListProductsRequest struct {
	Search   string `form:"search" validate:"max=100"`
	Category string `form:"category" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ProductResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	DefaultCode   string   `json:"defaultCode,omitempty"`
	ListPrice     float64  `json:"listPrice"`
	StandardPrice *float64 `json:"standardPrice,omitempty"`
	TemplateID    *int64   `json:"templateId,omitempty"`
	UomID         *int64   `json:"uomId,omitempty"`
	CategoryName  string   `json:"categoryName,omitempty"`
}

type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// Pricing rules

type ListPricingRulesRequest struct {
	PricelistID int64 `form:"pricelistId" validate:"required,min=1"`
}

type PricingRuleResponse struct {
	ID            int64    `json:"id"`
	PricelistID   int64    `json:"pricelistId"`
	ProductID     *int64   `json:"productId,omitempty"`
	TemplateID    *int64   `json:"templateId,omitempty"`
	FixedPrice    *float64 `json:"fixedPrice,omitempty"`
	PercentPrice  *float64 `json:"percentPrice,omitempty"`
	PriceDiscount *float64 `json:"priceDiscount,omitempty"`
	ComputePrice  string   `json:"computePrice,omitempty"`
}

type PricingRuleListResponse struct {
	ProductID   int64                 `json:"productId"`
	PricelistID int64                 `json:"pricelistId"`
	Items       []PricingRuleResponse `json:"items"`
}
