package orderedit

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/internal/submission"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/metrics"
)

// updater is the remote surface a committed edit is written through.
type updater interface {
	UpdateOrder(ctx context.Context, orderID int64, payload submission.OrderPayload) error
}

// Service manages edit sessions over historical orders. Mutations
// that move the payable re-run the pending-payment rebalance so the
// allocation tracks the remaining amount; payment-row edits are taken
// as supplied, so a manually entered amount survives until the payable
// next moves.
type Service interface {
	Begin(order Order) (*Session, error)
	Get(sessionID uuid.UUID) (*Session, error)
	Totals(sessionID uuid.UUID) (Totals, error)
	SetLineQty(sessionID uuid.UUID, productID int64, qty decimal.Decimal) (*Session, error)
	SetLineDiscount(sessionID uuid.UUID, productID int64, discount decimal.Decimal) (*Session, error)
	SetGlobalDiscount(sessionID uuid.UUID, amount decimal.Decimal) (*Session, error)
	AddPaymentRow(sessionID uuid.UUID, row pos.PaymentEntry) (*Session, error)
	UpdatePaymentRow(sessionID uuid.UUID, paymentID string, patch pos.PaymentPatch) (*Session, error)
	RemovePaymentRow(sessionID uuid.UUID, paymentID string) (*Session, error)
	Commit(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Discard(sessionID uuid.UUID)
}

type service struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	remote   updater
	checkout *metrics.CheckoutMetrics
}

// NewService wires the edit-session manager.
func NewService(remote updater, checkout *metrics.CheckoutMetrics) (Service, error) {
	if remote == nil {
		return nil, errors.New("order updater is required")
	}
	return &service{
		sessions: make(map[uuid.UUID]*Session),
		remote:   remote,
		checkout: checkout,
	}, nil
}

// Begin opens an edit session for an editable order. Historical rows
// missing a payment id are assigned one so later mutations can address
// them; rows missing a status are treated as completed, since anything
// already on a created order has been tendered.
func (s *service) Begin(order Order) (*Session, error) {
	if !order.Status.Editable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not editable in its current status")
	}
	for i := range order.Payments {
		if order.Payments[i].PaymentID == "" {
			order.Payments[i].PaymentID = uuid.NewString()
		}
		if order.Payments[i].Status == "" {
			order.Payments[i].Status = enums.PaymentEntryStatusCompleted
		}
	}
	session := &Session{ID: uuid.New(), Order: order}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session.clone(), nil
}

func (s *service) Get(sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edit session not found")
	}
	return session.clone(), nil
}

func (s *service) Totals(sessionID uuid.UUID) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Totals{}, pkgerrors.New(pkgerrors.CodeNotFound, "edit session not found")
	}
	return session.TotalsView(), nil
}

// mutate runs fn on a copy of the session and swaps the copy in. When
// rebalance is set the pending rows are re-divided against the new
// payable first; a rebalance failure rejects the whole mutation.
// Payment-row mutations pass false so they never clobber an amount the
// caller just supplied.
func (s *service) mutate(sessionID uuid.UUID, rebalance bool, fn func(session *Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edit session not found")
	}

	next := session.clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if rebalance {
		totals := next.TotalsView()
		rows, outcome, err := pos.RebalancePendingPayments(totals.Payable, next.Order.Payments)
		if err != nil {
			return nil, err
		}
		next.Order.Payments = rows
		s.checkout.IncRebalance(string(outcome))
	}

	s.sessions[sessionID] = next
	return next.clone(), nil
}

func (s *service) SetLineQty(sessionID uuid.UUID, productID int64, qty decimal.Decimal) (*Session, error) {
	if qty.IsNegative() {
		qty = decimal.Zero
	}
	return s.mutate(sessionID, true, func(session *Session) error {
		for i := range session.Order.Lines {
			if session.Order.Lines[i].ProductID != productID {
				continue
			}
			if qty.IsZero() {
				session.Order.Lines = append(session.Order.Lines[:i], session.Order.Lines[i+1:]...)
			} else {
				session.Order.Lines[i].Qty = qty
			}
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
	})
}

func (s *service) SetLineDiscount(sessionID uuid.UUID, productID int64, discount decimal.Decimal) (*Session, error) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return s.mutate(sessionID, true, func(session *Session) error {
		for i := range session.Order.Lines {
			if session.Order.Lines[i].ProductID == productID {
				session.Order.Lines[i].Discount = discount
				return nil
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
	})
}

func (s *service) SetGlobalDiscount(sessionID uuid.UUID, amount decimal.Decimal) (*Session, error) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return s.mutate(sessionID, true, func(session *Session) error {
		session.Order.GlobalDiscount = amount
		return nil
	})
}

// AddPaymentRow appends a pending allocation. Duplicate methods are
// allowed here: an order's history can legitimately hold several rows
// for the same method.
func (s *service) AddPaymentRow(sessionID uuid.UUID, row pos.PaymentEntry) (*Session, error) {
	if row.Amount.IsNegative() {
		row.Amount = decimal.Zero
	}
	if row.PaymentID == "" {
		row.PaymentID = uuid.NewString()
	}
	row.Status = enums.PaymentEntryStatusPending
	if row.Role == "" {
		row.Role = enums.PaymentRoleStandard
	}
	return s.mutate(sessionID, false, func(session *Session) error {
		session.Order.Payments = append(session.Order.Payments, row)
		return nil
	})
}

func (s *service) UpdatePaymentRow(sessionID uuid.UUID, paymentID string, patch pos.PaymentPatch) (*Session, error) {
	return s.mutate(sessionID, false, func(session *Session) error {
		idx := session.paymentIndex(paymentID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment row not found")
		}
		row := &session.Order.Payments[idx]
		if row.Status.Completed() && patch.Amount != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed payments cannot be amended")
		}
		applyPatch(row, patch)
		return nil
	})
}

// RemovePaymentRow drops a pending allocation. Completed rows stay:
// reversing settled money is a refund, handled upstream.
func (s *service) RemovePaymentRow(sessionID uuid.UUID, paymentID string) (*Session, error) {
	return s.mutate(sessionID, false, func(session *Session) error {
		idx := session.paymentIndex(paymentID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment row not found")
		}
		if session.Order.Payments[idx].Status.Completed() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed payments cannot be removed")
		}
		session.Order.Payments = append(session.Order.Payments[:idx], session.Order.Payments[idx+1:]...)
		return nil
	})
}

// Commit settles the edited rows against the payable and writes the
// order back. Overpayment is absorbed the same way a new submission
// absorbs it. The session survives a failed write so the edit can be
// retried.
func (s *service) Commit(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edit session not found")
	}
	next := session.clone()
	s.mu.Unlock()

	totals := next.TotalsView()
	settled := pos.SettlePayments(totals.Payable, next.Order.Payments)
	next.Order.Payments = settled.Rows
	if settled.Change.IsPositive() {
		s.checkout.IncChangeAbsorbed()
	}

	if err := s.remote.UpdateOrder(ctx, next.Order.ID, buildUpdatePayload(next)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return next, nil
}

func (s *service) Discard(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func applyPatch(row *pos.PaymentEntry, patch pos.PaymentPatch) {
	if patch.Amount != nil {
		amount := *patch.Amount
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		row.Amount = amount
	}
	if patch.ReferenceID != nil {
		row.ReferenceID = *patch.ReferenceID
	}
	if patch.QRPayload != nil {
		row.QRPayload = *patch.QRPayload
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
}

func buildUpdatePayload(session *Session) submission.OrderPayload {
	order := session.Order
	payload := submission.OrderPayload{
		Items:          make([]submission.OrderItem, 0, len(order.Lines)),
		Payments:       make([]submission.OrderPayment, 0, len(order.Payments)),
		Remark:         order.Remark,
		GlobalDiscount: order.GlobalDiscount,
	}
	for _, l := range order.Lines {
		payload.Items = append(payload.Items, submission.OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Qty,
			UnitPrice: l.UnitPrice,
		})
	}
	for _, p := range order.Payments {
		payload.Payments = append(payload.Payments, submission.OrderPayment{
			PaymentMethodID: p.MethodID,
			Amount:          p.Amount,
			ReferenceID:     p.ReferenceID,
		})
	}
	for _, c := range order.Charges {
		payload.OtherCharges = append(payload.OtherCharges, submission.OrderCharge{
			OtherChargeID: c.ChargeID,
			Amount:        c.Amount,
		})
	}
	payload.CustomerID = order.CustomerID
	payload.CarGateID = order.CarGateID
	return payload
}
