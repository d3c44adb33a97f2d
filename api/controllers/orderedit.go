package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/api/responses"
	"github.com/tillworks/tillpoint-backend/api/validators"
	"github.com/tillworks/tillpoint-backend/internal/orderedit"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

type editSessionResponse struct {
	Session *orderedit.Session `json:"session"`
	Totals  orderedit.Totals   `json:"totals"`
}

func writeEditSession(w http.ResponseWriter, sess *orderedit.Session) {
	responses.WriteSuccess(w, editSessionResponse{Session: sess, Totals: sess.TotalsView()})
}

// BeginOrderEdit opens an amendment session for a previously
// submitted order.
func BeginOrderEdit(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderedit.Order
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Begin(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Location", "/api/v1/order-edits/"+sess.ID.String())
		responses.WriteSuccessStatus(w, http.StatusCreated, editSessionResponse{Session: sess, Totals: sess.TotalsView()})
	}
}

// GetOrderEdit returns the working copy and its derived totals.
func GetOrderEdit(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Get(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

type editLineQtyRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
}

// SetEditLineQty changes a line quantity inside an edit session. Zero
// removes the line. Pending payment rows are rebalanced against the
// new payable.
func SetEditLineQty(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload editLineQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.SetLineQty(sessionID, payload.ProductID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

type editLineDiscountRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
}

// SetEditLineDiscount changes a per-line discount inside an edit session.
func SetEditLineDiscount(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload editLineDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.SetLineDiscount(sessionID, payload.ProductID, payload.Discount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

// SetEditGlobalDiscount changes the order-level discount inside an
// edit session.
func SetEditGlobalDiscount(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.SetGlobalDiscount(sessionID, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

type editPaymentRowRequest struct {
	MethodID    int64           `json:"method_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	QRPayload   string          `json:"qr_payload"`
}

// AddEditPaymentRow appends a pending payment row to an edit session.
// Unlike the live cart, the same method can appear more than once.
func AddEditPaymentRow(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload editPaymentRowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row := pos.PaymentEntry{
			MethodID:    payload.MethodID,
			Name:        payload.Name,
			Amount:      payload.Amount,
			ReferenceID: payload.ReferenceID,
			QRPayload:   payload.QRPayload,
		}
		sess, err := svc.AddPaymentRow(sessionID, row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

// UpdateEditPaymentRow patches a pending payment row in an edit session.
func UpdateEditPaymentRow(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID := chi.URLParam(r, "paymentID")
		if paymentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required"))
			return
		}
		var payload updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch := pos.PaymentPatch{
			Amount:      payload.Amount,
			ReferenceID: payload.ReferenceID,
			QRPayload:   payload.QRPayload,
		}
		sess, err := svc.UpdatePaymentRow(sessionID, paymentID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

// RemoveEditPaymentRow drops a pending payment row from an edit session.
func RemoveEditPaymentRow(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID := chi.URLParam(r, "paymentID")
		if paymentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required"))
			return
		}
		sess, err := svc.RemovePaymentRow(sessionID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

// CommitOrderEdit settles the session and pushes the amended order
// upstream. The session ends on success.
func CommitOrderEdit(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Commit(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeEditSession(w, sess)
	}
}

// DiscardOrderEdit abandons the session without touching the order.
func DiscardOrderEdit(svc orderedit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		svc.Discard(sessionID)
		responses.WriteSuccess(w, map[string]string{"session_id": sessionID.String()})
	}
}
