package repository

import (
	"context"

	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/erp"
)

const (
	modelOrder     = "sale.order"
	modelOrderLine = "sale.order.line"

	quotationNotFoundMessage = "quotation not found"
)

// ERPRepository implements Repository over sale.order and sale.order.line.
type ERPRepository struct {
	erp erp.Caller
}

// NewERP creates a new ERP-backed order repository.
func NewERP(caller erp.Caller) *ERPRepository {
	return &ERPRepository{erp: caller}
}

// Compile-time checks.
var (
	_ Repository   = (*ERPRepository)(nil)
	_ LineReplacer = (*ERPRepository)(nil)
)

// CreateOrder creates a draft sale order. Invoice and shipping addresses
// default to the partner.
func (r *ERPRepository) CreateOrder(ctx context.Context, header OrderHeader) (int64, error) {
	invoiceID := header.PartnerID
	if header.InvoiceAddressID != nil {
		invoiceID = *header.InvoiceAddressID
	}
	shippingID := header.PartnerID
	if header.ShippingAddressID != nil {
		shippingID = *header.ShippingAddressID
	}

	return erp.Create(ctx, r.erp, modelOrder, map[string]interface{}{
		"partner_id":          header.PartnerID,
		"pricelist_id":        header.PricelistID,
		"partner_invoice_id":  invoiceID,
		"partner_shipping_id": shippingID,
	})
}

// CreateOrderLine appends a line to orderID.
func (r *ERPRepository) CreateOrderLine(ctx context.Context, orderID int64, line OrderLine) (int64, error) {
	values := lineValues(line)
	values["order_id"] = orderID
	return erp.Create(ctx, r.erp, modelOrderLine, values)
}

// ListOrderLineIDs returns the ids of every line on orderID.
func (r *ERPRepository) ListOrderLineIDs(ctx context.Context, orderID int64) ([]int64, error) {
	return erp.Search(ctx, r.erp, modelOrderLine, []interface{}{erp.Cond("order_id", "=", orderID)}, 0)
}

// DeleteOrderLine unlinks a single line.
func (r *ERPRepository) DeleteOrderLine(ctx context.Context, lineID int64) (bool, error) {
	return erp.Unlink(ctx, r.erp, modelOrderLine, []int64{lineID})
}

// ReadOrderTotals reads the amounts the ERP computed for orderID.
func (r *ERPRepository) ReadOrderTotals(ctx context.Context, orderID int64) (Totals, error) {
	rows, err := erp.Read(ctx, r.erp, modelOrder, []int64{orderID}, []string{"amount_untaxed", "amount_tax", "amount_total"})
	if err != nil {
		return Totals{}, err
	}
	if len(rows) == 0 {
		return Totals{}, apperr.NotFound(quotationNotFoundMessage).WithDetails(map[string]any{"quotationId": orderID})
	}

	subtotal, _ := rows[0].Float("amount_untaxed")
	tax, _ := rows[0].Float("amount_tax")
	total, _ := rows[0].Float("amount_total")
	return Totals{Subtotal: subtotal, Tax: tax, Total: total}, nil
}

// GetOrder reads the quotation header.
func (r *ERPRepository) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	rows, err := erp.SearchRead(ctx, r.erp, modelOrder, erp.Query{
		Domain: []interface{}{erp.Cond("id", "=", orderID)},
		Fields: []string{"id", "name", "partner_id", "pricelist_id", "state"},
		Limit:  1,
	})
	if err != nil {
		return Order{}, err
	}
	if len(rows) == 0 {
		return Order{}, apperr.NotFound(quotationNotFoundMessage).WithDetails(map[string]any{"quotationId": orderID})
	}

	partnerID, _ := rows[0].Many2One("partner_id")
	pricelistID, _ := rows[0].Many2One("pricelist_id")
	return Order{
		ID:          orderID,
		Name:        rows[0].String("name"),
		PartnerID:   partnerID,
		PricelistID: pricelistID,
		State:       rows[0].String("state"),
	}, nil
}

// ReplaceOrderLines clears and recreates every line of orderID in one write,
// which the ERP applies in a single transaction.
func (r *ERPRepository) ReplaceOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error {
	commands := make([]interface{}, 0, len(lines)+1)
	commands = append(commands, erp.CommandClear())
	for _, line := range lines {
		commands = append(commands, erp.CommandCreate(lineValues(line)))
	}
	return erp.Write(ctx, r.erp, modelOrder, []int64{orderID}, map[string]interface{}{
		"order_line": commands,
	})
}

func lineValues(line OrderLine) map[string]interface{} {
	if line.Kind == LineKindNote {
		return map[string]interface{}{
			"display_type": "line_note",
			"name":         line.Description,
		}
	}

	values := map[string]interface{}{
		"product_id":      line.ProductID,
		"name":            line.Description,
		"product_uom_qty": line.Quantity,
		"price_unit":      line.UnitPrice,
	}
	if line.UomID != nil {
		values["product_uom"] = *line.UomID
	}
	if len(line.TaxIDs) > 0 {
		values["tax_id"] = []interface{}{erp.CommandSet(line.TaxIDs)}
	}
	return values
}
