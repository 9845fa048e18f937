package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"erp_pricing_backend/internal/quotes/repository"
	"erp_pricing_backend/internal/quotes/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/lock"
	"erp_pricing_backend/platform/logger"
	"erp_pricing_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

// Product is the quotation view of a catalog product.
type Product struct {
	ID    int64
	Name  string
	UomID *int64
}

// CatalogReader is the narrow view of the catalog quotations need.
// Implemented by an adapter in internal/adapters over the catalog repository.
type CatalogReader interface {
	FindProducts(ctx context.Context, ids []int64) ([]Product, error)
	// PartnerExists returns a NotFound error when the partner is unknown.
	PartnerExists(ctx context.Context, id int64) error
	// FindTaxID returns the id of the first tax matching rate and usage, or nil.
	FindTaxID(ctx context.Context, rate float64, usage string) (*int64, error)
}

// PriceResolver fills in unit prices for lines that omit one.
// Implemented by an adapter over the pricing service.
type PriceResolver interface {
	ResolveUnitPrices(ctx context.Context, productIDs []int64, pricelistID int64) (map[int64]float64, error)
}

// Options holds quotation settings.
type Options struct {
	SalesTaxRate    float64
	SalesTaxUsage   string
	LineReplaceMode string
	LockTTL         time.Duration
}

// OptionsFromConfig reads Options from the quotes configuration.
func OptionsFromConfig(cfg config.QuotesConfig) Options {
	return Options{
		SalesTaxRate:    cfg.GetSalesTaxRate(),
		SalesTaxUsage:   cfg.GetSalesTaxUsage(),
		LineReplaceMode: cfg.GetLineReplaceMode(),
		LockTTL:         cfg.GetQuoteLockTTL(),
	}
}

// Status values returned by ReplaceLines.
const (
	StatusReplaced = "replaced"
)

// Service assembles quotations and keeps their lines in sync.
type Service struct {
	repo    repository.Repository
	catalog CatalogReader
	prices  PriceResolver // nil means every product line must carry a unit price
	locker  lock.Locker
	opts    Options
	log     *logger.Logger
}

// New creates a new quotes service.
func New(repo repository.Repository, catalog CatalogReader, locker lock.Locker, opts Options, log *logger.Logger) *Service {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.LineReplaceMode == "" {
		opts.LineReplaceMode = config.LineReplaceLegacy
	}
	return &Service{repo: repo, catalog: catalog, locker: locker, opts: opts, log: log}
}

// SetPriceResolver injects the price resolver (set after construction to break circular deps).
func (s *Service) SetPriceResolver(resolver PriceResolver) {
	s.prices = resolver
}

// Create creates a quotation header and its lines, then returns the totals
// computed by the ERP. Every line is planned before anything is written, so
// unknown products or partners fail without leaving a header behind. A
// failure while writing lines is not rolled back; the error details carry the
// quotation id and how many lines were written.
func (s *Service) Create(ctx context.Context, req transport.CreateQuotationRequest) (*transport.QuotationResponse, error) {
	if err := s.catalog.PartnerExists(ctx, req.PartnerID); err != nil {
		return nil, err
	}

	lines, err := s.planLines(ctx, req.Lines, req.PricelistID, false)
	if err != nil {
		return nil, err
	}

	orderID, err := s.repo.CreateOrder(ctx, repository.OrderHeader{
		PartnerID:         req.PartnerID,
		PricelistID:       req.PricelistID,
		InvoiceAddressID:  req.InvoiceAddressID,
		ShippingAddressID: req.ShippingAddressID,
	})
	if err != nil {
		return nil, err
	}

	lineIDs := make([]int64, 0, len(lines))
	for i, line := range lines {
		lineID, err := s.repo.CreateOrderLine(ctx, orderID, line)
		if err != nil {
			s.log.Warn("quotation left partially written", "quotationId", orderID, "linesCreated", len(lineIDs), "error", err)
			return nil, withProgress(err, map[string]any{
				"quotationId":  orderID,
				"linesCreated": len(lineIDs),
				"failedLine":   i,
			})
		}
		lineIDs = append(lineIDs, lineID)
	}

	totals, err := s.repo.ReadOrderTotals(ctx, orderID)
	if err != nil {
		return nil, withProgress(err, map[string]any{"quotationId": orderID, "linesCreated": len(lineIDs)})
	}

	s.log.Info("quotation created", "quotationId", orderID, "partnerId", req.PartnerID, "lines", len(lineIDs))
	return &transport.QuotationResponse{
		ID:      orderID,
		LineIDs: lineIDs,
		Totals:  toTotalsResponse(totals),
	}, nil
}

// ReplaceLines swaps every line of a quotation for a new set while holding
// the quotation's lock. Priced lines get the configured sales tax when the
// ERP has one. With the atomic mode the swap is a single write; otherwise
// lines are deleted one by one and recreated.
func (s *Service) ReplaceLines(ctx context.Context, quotationID int64, req transport.ReplaceLinesRequest) (*transport.ReplaceLinesResponse, error) {
	lease, err := s.locker.Acquire(ctx, lockKey(quotationID), s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, apperr.Conflict("quotation is being updated by another request").
				WithDetails(map[string]any{"quotationId": quotationID})
		}
		return nil, apperr.Wrap(apperr.KindInternal, "acquire quotation lock", err)
	}
	stopKeepAlive := lease.KeepAlive(ctx, s.opts.LockTTL/3)
	defer func() {
		stopKeepAlive()
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("release quotation lock failed", "quotationId", quotationID, "error", err)
		}
	}()

	order, err := s.repo.GetOrder(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !order.Editable() {
		return nil, apperr.Conflict("quotation is no longer editable").
			WithDetails(map[string]any{"quotationId": quotationID, "state": order.State})
	}

	lines, err := s.planLines(ctx, req.Lines, order.PricelistID, true)
	if err != nil {
		return nil, err
	}

	result := &transport.ReplaceLinesResponse{
		QuotationID: quotationID,
		Status:      StatusReplaced,
	}

	replacer, atomic := s.repo.(repository.LineReplacer)
	if atomic && s.opts.LineReplaceMode == config.LineReplaceAtomic {
		result.Mode = config.LineReplaceAtomic
		if err := s.holdLease(ctx, lease, result); err != nil {
			return nil, err
		}
		if err := replacer.ReplaceOrderLines(ctx, quotationID, lines); err != nil {
			return nil, err
		}
		result.LinesCreated = len(lines)
	} else {
		result.Mode = config.LineReplaceLegacy
		if err := s.replaceLegacy(ctx, lease, lines, result); err != nil {
			return nil, err
		}
	}

	totals, err := s.repo.ReadOrderTotals(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	result.Totals = toTotalsResponse(totals)

	s.log.Info("quotation lines replaced",
		"quotationId", quotationID,
		"mode", result.Mode,
		"deleted", result.LinesDeleted,
		"created", result.LinesCreated,
	)
	return result, nil
}

// replaceLegacy deletes every current line, then creates the new ones. A
// deletion the ERP does not confirm is logged and the flow continues. The
// lease is refreshed before every write and the flow stops once it is lost.
func (s *Service) replaceLegacy(ctx context.Context, lease *lock.Lease, lines []repository.OrderLine, result *transport.ReplaceLinesResponse) error {
	quotationID := result.QuotationID
	existing, err := s.repo.ListOrderLineIDs(ctx, quotationID)
	if err != nil {
		return err
	}

	for _, lineID := range existing {
		if err := s.holdLease(ctx, lease, result); err != nil {
			return err
		}
		deleted, err := s.repo.DeleteOrderLine(ctx, lineID)
		if err != nil {
			return withProgress(err, map[string]any{
				"quotationId":  quotationID,
				"linesDeleted": result.LinesDeleted,
				"linesCreated": 0,
			})
		}
		if !deleted {
			s.log.Warn("quotation line deletion not confirmed", "quotationId", quotationID, "lineId", lineID)
			continue
		}
		result.LinesDeleted++
	}

	for i, line := range lines {
		if err := s.holdLease(ctx, lease, result); err != nil {
			return err
		}
		if _, err := s.repo.CreateOrderLine(ctx, quotationID, line); err != nil {
			return withProgress(err, map[string]any{
				"quotationId":  quotationID,
				"linesDeleted": result.LinesDeleted,
				"linesCreated": result.LinesCreated,
				"failedLine":   i,
			})
		}
		result.LinesCreated++
	}
	return nil
}

// holdLease refreshes the quotation lock before a write. A lost lease means
// another request may be rewriting the same lines.
func (s *Service) holdLease(ctx context.Context, lease *lock.Lease, result *transport.ReplaceLinesResponse) error {
	err := lease.Refresh(ctx)
	if err == nil {
		return nil
	}
	details := map[string]any{
		"quotationId":  result.QuotationID,
		"linesDeleted": result.LinesDeleted,
		"linesCreated": result.LinesCreated,
	}
	if errors.Is(err, lock.ErrLost) {
		s.log.Warn("quotation lock lost during replace", "quotationId", result.QuotationID,
			"deleted", result.LinesDeleted, "created", result.LinesCreated)
		return apperr.Conflict("quotation lock expired during update").WithDetails(details)
	}
	return apperr.Wrap(apperr.KindInternal, "refresh quotation lock", err).WithDetails(details)
}

// Totals returns the ERP's totals for a quotation.
func (s *Service) Totals(ctx context.Context, quotationID int64) (*transport.QuotationTotalsResponse, error) {
	totals, err := s.repo.ReadOrderTotals(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return &transport.QuotationTotalsResponse{
		QuotationID: quotationID,
		Totals:      toTotalsResponse(totals),
	}, nil
}

// planLines validates requested lines and turns them into order lines. It
// performs every lookup up front: products, missing unit prices and, when
// withTax is set, the sales tax.
func (s *Service) planLines(ctx context.Context, reqs []transport.QuotationLineRequest, pricelistID int64, withTax bool) ([]repository.OrderLine, error) {
	productIDs := make([]int64, 0, len(reqs))
	unpriced := make([]int64, 0)
	for i, req := range reqs {
		switch req.Kind {
		case transport.LineKindNote:
			if sanitize.Text(req.Description) == "" {
				return nil, lineError(i, "note line requires a description")
			}
		case transport.LineKindProduct:
			if req.ProductID <= 0 {
				return nil, lineError(i, "product line requires a product id")
			}
			if req.Quantity <= 0 {
				return nil, lineError(i, "product line requires a positive quantity")
			}
			productIDs = append(productIDs, req.ProductID)
			if req.UnitPrice == nil {
				unpriced = append(unpriced, req.ProductID)
			}
		default:
			return nil, lineError(i, "unknown line kind "+strconv.Quote(req.Kind))
		}
	}

	products, err := s.loadProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	prices := map[int64]float64{}
	if len(unpriced) > 0 {
		if s.prices == nil {
			return nil, apperr.Validation("unit price is required for every product line")
		}
		prices, err = s.prices.ResolveUnitPrices(ctx, unpriced, pricelistID)
		if err != nil {
			return nil, err
		}
	}

	var taxIDs []int64
	if withTax && len(productIDs) > 0 {
		taxID, err := s.catalog.FindTaxID(ctx, s.opts.SalesTaxRate, s.opts.SalesTaxUsage)
		if err != nil {
			return nil, err
		}
		if taxID != nil {
			taxIDs = []int64{*taxID}
		} else {
			s.log.Warn("sales tax not found; lines created without tax", "rate", s.opts.SalesTaxRate, "usage", s.opts.SalesTaxUsage)
		}
	}

	lines := make([]repository.OrderLine, len(reqs))
	for i, req := range reqs {
		if req.Kind == transport.LineKindNote {
			lines[i] = repository.OrderLine{Kind: repository.LineKindNote, Description: sanitize.Text(req.Description)}
			continue
		}

		product := products[req.ProductID]
		description := sanitize.Text(req.Description)
		if description == "" {
			description = product.Name
		}

		unitPrice, ok := prices[req.ProductID]
		if req.UnitPrice != nil {
			unitPrice, ok = *req.UnitPrice, true
		}
		if !ok {
			return nil, apperr.Internal("price not resolved").WithDetails(map[string]any{"productId": req.ProductID})
		}

		lines[i] = repository.OrderLine{
			Kind:        repository.LineKindProduct,
			ProductID:   req.ProductID,
			Description: description,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			UomID:       product.UomID,
			TaxIDs:      taxIDs,
		}
	}
	return lines, nil
}

func (s *Service) loadProducts(ctx context.Context, ids []int64) (map[int64]Product, error) {
	byID := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	products, err := s.catalog.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		byID[p.ID] = p
	}

	missing := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, id := range ids {
		if _, ok := byID[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, apperr.NotFound("product not found").WithDetails(map[string]any{"productIds": missing})
	}
	return byID, nil
}

func lineError(index int, message string) error {
	return apperr.Validation(message).WithDetails(map[string]any{"line": index})
}

// withProgress attaches write progress to err, keeping its kind. Untyped
// errors are treated as upstream failures.
func withProgress(err error, details map[string]any) error {
	if domainErr, ok := apperr.As(err); ok {
		return &apperr.Error{
			Kind:    domainErr.Kind,
			Message: domainErr.Message,
			Op:      domainErr.Op,
			Err:     err,
			Details: details,
		}
	}
	return apperr.Upstream("erp call failed", err).WithDetails(details)
}

func lockKey(quotationID int64) string {
	return "quotation:" + strconv.FormatInt(quotationID, 10)
}

func toTotalsResponse(t repository.Totals) transport.TotalsResponse {
	return transport.TotalsResponse{
		Subtotal: roundAmount(t.Subtotal),
		Tax:      roundAmount(t.Tax),
		Total:    roundAmount(t.Total),
	}
}

func roundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
