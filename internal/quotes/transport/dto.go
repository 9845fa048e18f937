package transport

// Line kinds accepted on the wire.
const (
	LineKindProduct = "product"
	LineKindNote    = "note"
)

type QuotationLineRequest struct {
	Kind        string   `json:"kind" validate:"required,oneof=product note"`
	ProductID   int64    `json:"productId" validate:"min=0"`
	Description string   `json:"description" validate:"max=2000"`
	Quantity    float64  `json:"quantity" validate:"min=0"`
	UnitPrice   *float64 `json:"unitPrice,omitempty" validate:"omitempty,min=0"`
}

type CreateQuotationRequest struct {
	PartnerID         int64                  `json:"partnerId" validate:"required,min=1"`
	PricelistID       int64                  `json:"pricelistId" validate:"required,min=1"`
	InvoiceAddressID  *int64                 `json:"invoiceAddressId,omitempty" validate:"omitempty,min=1"`
	ShippingAddressID *int64                 `json:"shippingAddressId,omitempty" validate:"omitempty,min=1"`
	Lines             []QuotationLineRequest `json:"lines" validate:"max=500,dive"`
}

type ReplaceLinesRequest struct {
	Lines []QuotationLineRequest `json:"lines" validate:"max=500,dive"`
}

type TotalsResponse struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type QuotationResponse struct {
	ID      int64          `json:"id"`
	LineIDs []int64        `json:"lineIds"`
	Totals  TotalsResponse `json:"totals"`
}

type ReplaceLinesResponse struct {
	QuotationID  int64          `json:"quotationId"`
	Status       string         `json:"status"`
	Mode         string         `json:"mode"`
	LinesDeleted int            `json:"linesDeleted"`
	LinesCreated int            `json:"linesCreated"`
	Totals       TotalsResponse `json:"totals"`
}

type QuotationTotalsResponse struct {
	QuotationID int64          `json:"quotationId"`
	Totals      TotalsResponse `json:"totals"`
}
