package submission

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
	"github.com/tillworks/tillpoint-backend/pkg/metrics"
)

// tabStore is the slice of the tab store the service consumes.
type tabStore interface {
	ActiveTab(sc enums.SaleContext) (*pos.Tab, error)
	ClearActiveTab(sc enums.SaleContext) error
}

// guard is the redis surface used for the in-flight submission lock.
type guard interface {
	SubmissionKey(saleContext, tabID string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// orderAPI is the remote order surface.
type orderAPI interface {
	CreateOrder(ctx context.Context, payload OrderPayload) (int64, error)
	ConfirmOrder(ctx context.Context, orderID int64) error
	CancelOrder(ctx context.Context, orderID int64) error
}

// Result reports what a successful submission produced.
type Result struct {
	OrderID int64              `json:"order_id"`
	Change  decimal.Decimal    `json:"change"`
	Rows    []pos.PaymentEntry `json:"payments"`
}

// Service drives order submission for the active tab of a context.
type Service interface {
	Submit(ctx context.Context, sc enums.SaleContext) (*Result, error)
	Confirm(ctx context.Context, orderID int64) error
	Cancel(ctx context.Context, orderID int64) error
}

type service struct {
	store       tabStore
	guard       guard
	remote      orderAPI
	checkout    *metrics.CheckoutMetrics
	log         *logger.Logger
	inFlightTTL time.Duration
}

// NewService wires the submission flow.
func NewService(store tabStore, guard guard, remote orderAPI, checkout *metrics.CheckoutMetrics, log *logger.Logger, inFlightTTL time.Duration) (Service, error) {
	if store == nil {
		return nil, errors.New("tab store is required")
	}
	if remote == nil {
		return nil, errors.New("order client is required")
	}
	if inFlightTTL <= 0 {
		inFlightTTL = 30 * time.Second
	}
	return &service{
		store:       store,
		guard:       guard,
		remote:      remote,
		checkout:    checkout,
		log:         log,
		inFlightTTL: inFlightTTL,
	}, nil
}

// Submit settles the active tab's payments against its payable, posts
// the order, and clears the tab on success. A failed post leaves the
// composition untouched so the cashier can retry. A second submit for
// the same tab while one is in flight is rejected.
func (s *service) Submit(ctx context.Context, sc enums.SaleContext) (*Result, error) {
	started := time.Now()

	tab, err := s.store.ActiveTab(sc)
	if err != nil {
		return nil, err
	}
	if len(tab.Cart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot submit an empty order")
	}

	totals := pos.ComputeTotals(tab)
	settled := pos.SettlePayments(totals.Payable, tab.Details.Payments)

	if s.guard != nil {
		key := s.guard.SubmissionKey(sc.String(), tab.ID.String())
		acquired, guardErr := s.guard.SetNX(ctx, key, started.Unix(), s.inFlightTTL)
		if guardErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, guardErr, "acquire submission guard")
		}
		if !acquired {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "submission already in flight for this tab")
		}
		defer func() {
			if delErr := s.guard.Del(context.WithoutCancel(ctx), key); delErr != nil && s.log != nil {
				s.log.Warn(s.log.WithTabID(ctx, tab.ID.String()), "release submission guard failed")
			}
		}()
	}

	orderID, err := s.remote.CreateOrder(ctx, buildPayload(tab, settled.Rows, totals, sc))
	s.checkout.ObserveSubmission(sc.String(), time.Since(started))
	if err != nil {
		s.checkout.IncSubmissionFailure(sc.String())
		if s.log != nil {
			s.log.Error(s.log.WithSaleContext(ctx, sc.String()), "order submission failed", err)
		}
		return nil, err
	}

	s.checkout.IncSubmissionSuccess(sc.String())
	if settled.Change.IsPositive() {
		s.checkout.IncChangeAbsorbed()
	}
	if err := s.store.ClearActiveTab(sc); err != nil && s.log != nil {
		s.log.Error(ctx, "clear submitted tab failed", err)
	}

	return &Result{OrderID: orderID, Change: settled.Change, Rows: settled.Rows}, nil
}

func (s *service) Confirm(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.remote.ConfirmOrder(ctx, orderID)
}

func (s *service) Cancel(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.remote.CancelOrder(ctx, orderID)
}

// buildPayload flattens a settled tab into the order-creation body.
// Quantities are expressed in base units so the back office never sees
// the terminal's unit-conversion bookkeeping.
func buildPayload(tab *pos.Tab, settled []pos.PaymentEntry, totals pos.Totals, sc enums.SaleContext) OrderPayload {
	payload := OrderPayload{
		Items:          make([]OrderItem, 0, len(tab.Cart)),
		Payments:       make([]OrderPayment, 0, len(settled)),
		Remark:         tab.Details.Remark,
		GlobalDiscount: totals.GlobalDiscount,
		SaleContext:    sc.String(),
	}
	for _, line := range tab.Cart {
		qty := decimal.NewFromInt(int64(line.Qty)).Mul(line.QtyMultiplier)
		payload.Items = append(payload.Items, OrderItem{
			ProductID: line.ProductID,
			Quantity:  qty,
			UnitPrice: line.UnitPrice.Div(line.QtyMultiplier),
		})
	}
	for _, p := range settled {
		payload.Payments = append(payload.Payments, OrderPayment{
			PaymentMethodID: p.MethodID,
			Amount:          p.Amount,
			ReferenceID:     p.ReferenceID,
		})
	}
	for _, c := range tab.Details.OtherCharges {
		payload.OtherCharges = append(payload.OtherCharges, OrderCharge{
			OtherChargeID: c.ChargeID,
			Amount:        c.Amount,
		})
	}
	if tab.Customer != nil {
		id := tab.Customer.ID
		payload.CustomerID = &id
	}
	if tab.Details.CarGateID != nil {
		gate := *tab.Details.CarGateID
		payload.CarGateID = &gate
	}
	return payload
}
