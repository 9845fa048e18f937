package repository

import "context"

// LineKind distinguishes priced lines from display-only notes.
type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindNote    LineKind = "note"
)

// OrderHeader holds the fields a quotation is created with.
type OrderHeader struct {
	PartnerID         int64
	PricelistID       int64
	InvoiceAddressID  *int64
	ShippingAddressID *int64
}

// Order is the stored quotation header.
type Order struct {
	ID          int64
	Name        string
	PartnerID   int64
	PricelistID int64
	State       string
}

// Quotation states whose lines may still be rewritten.
const (
	StateDraft = "draft"
	StateSent  = "sent"
)

// Editable reports whether the order is still a quotation.
func (o Order) Editable() bool {
	return o.State == StateDraft || o.State == StateSent
}

// OrderLine is one line to be written to a quotation. Note lines carry only
// the description.
type OrderLine struct {
	Kind        LineKind
	ProductID   int64
	Description string
	Quantity    float64
	UnitPrice   float64
	UomID       *int64
	TaxIDs      []int64
}

// Totals are the amounts computed by the ERP for a quotation.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Repository is the order side of the remote object store.
type Repository interface {
	CreateOrder(ctx context.Context, header OrderHeader) (int64, error)
	CreateOrderLine(ctx context.Context, orderID int64, line OrderLine) (int64, error)
	ListOrderLineIDs(ctx context.Context, orderID int64) ([]int64, error)
	// DeleteOrderLine reports whether the ERP confirmed the deletion.
	DeleteOrderLine(ctx context.Context, lineID int64) (bool, error)
	ReadOrderTotals(ctx context.Context, orderID int64) (Totals, error)
	// GetOrder returns the header or a NotFound error.
	GetOrder(ctx context.Context, orderID int64) (Order, error)
}

// LineReplacer is implemented by stores that can swap every line of an order
// in a single write.
type LineReplacer interface {
	ReplaceOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error
}
