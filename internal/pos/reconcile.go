package pos

import (
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

// ErrOverCommitted marks an edit whose completed payments already
// exceed the payable with no pending rows left to shrink. The caller
// has to remove or amend a historical row before saving.
var ErrOverCommitted = pkgerrors.New(
	pkgerrors.CodeStateConflict,
	"completed payments exceed the payable amount",
)

// SettleResult is the outcome of settling a new order's payments.
type SettleResult struct {
	Rows []PaymentEntry
	// Change is the overpayment absorbed out of the rows.
	Change decimal.Decimal
	// AbsorberMethodID is the method whose row took the reduction, or
	// zero when nothing was absorbed.
	AbsorberMethodID int64
}

// SettlePayments reconciles tendered payments against the payable at
// submit time. Overpayment is deducted from the first change-absorbing
// row, or the last row when no method absorbs change, floored at zero.
// Rows left at or below zero are dropped so the submitted order never
// carries empty allocations.
func SettlePayments(payable decimal.Decimal, rows []PaymentEntry) SettleResult {
	out := SettleResult{
		Rows:   append([]PaymentEntry(nil), rows...),
		Change: decimal.Zero,
	}
	if len(out.Rows) == 0 {
		return out
	}

	total := SumPayments(out.Rows)
	excess := total.Sub(payable)
	if excess.IsPositive() {
		idx := len(out.Rows) - 1
		for i, p := range out.Rows {
			if p.Role == enums.PaymentRoleChangeAbsorber {
				idx = i
				break
			}
		}
		reduced := out.Rows[idx].Amount.Sub(excess)
		if reduced.IsNegative() {
			reduced = decimal.Zero
		}
		out.Change = out.Rows[idx].Amount.Sub(reduced)
		out.AbsorberMethodID = out.Rows[idx].MethodID
		out.Rows[idx].Amount = reduced
	}

	kept := out.Rows[:0]
	for _, p := range out.Rows {
		if p.Amount.IsPositive() {
			kept = append(kept, p)
		}
	}
	out.Rows = kept
	return out
}

// RebalanceOutcome names what a pending-payment rebalance did.
type RebalanceOutcome string

const (
	// RebalanceNoop means the allocation already matched the payable.
	RebalanceNoop RebalanceOutcome = "noop"
	// RebalanceSplit means the remainder was divided across pending rows.
	RebalanceSplit RebalanceOutcome = "split"
	// RebalanceSynthesized means a cash row was created to carry the
	// remainder because no pending row existed.
	RebalanceSynthesized RebalanceOutcome = "synthesized"
	// RebalanceZeroed means pending rows were zeroed because completed
	// payments already covered the payable.
	RebalanceZeroed RebalanceOutcome = "zeroed"
)

// RebalancePendingPayments re-divides the unsettled remainder of an
// edited order across its pending rows. Completed rows are never
// touched. Amounts are rounded to two decimal places with the last
// pending row absorbing the rounding remainder, so the rows always sum
// exactly to the remainder. When the full planned allocation exceeds
// the payable, pending rows are zeroed rather than split; when
// completed rows alone exceed it and nothing pending is left to
// shrink, ErrOverCommitted is returned and the input is not modified.
func RebalancePendingPayments(payable decimal.Decimal, rows []PaymentEntry) ([]PaymentEntry, RebalanceOutcome, error) {
	remaining := payable.Sub(SumCompletedPayments(rows))

	pending := make([]int, 0, len(rows))
	for i, p := range rows {
		if !p.Status.Completed() {
			pending = append(pending, i)
		}
	}

	switch {
	case SumPayments(rows).GreaterThan(payable) && len(pending) > 0:
		out := append([]PaymentEntry(nil), rows...)
		changed := false
		for _, i := range pending {
			if !out[i].Amount.IsZero() {
				changed = true
			}
			out[i].Amount = decimal.Zero
		}
		if !changed {
			return out, RebalanceNoop, nil
		}
		return out, RebalanceZeroed, nil

	case remaining.IsPositive() && len(pending) > 0:
		out := append([]PaymentEntry(nil), rows...)
		share := remaining.Div(decimal.NewFromInt(int64(len(pending)))).Round(2)
		allocated := decimal.Zero
		for n, i := range pending {
			if n == len(pending)-1 {
				out[i].Amount = remaining.Sub(allocated)
				break
			}
			out[i].Amount = share
			allocated = allocated.Add(share)
		}
		return out, RebalanceSplit, nil

	case remaining.IsPositive():
		out := append([]PaymentEntry(nil), rows...)
		out = append(out, PaymentEntry{
			MethodID: DefaultCashMethodID,
			Name:     DefaultCashMethodName,
			Amount:   remaining,
			Role:     enums.PaymentRoleStandard,
			Status:   enums.PaymentEntryStatusPending,
		})
		return out, RebalanceSynthesized, nil

	case remaining.IsNegative():
		return nil, "", ErrOverCommitted

	default:
		return append([]PaymentEntry(nil), rows...), RebalanceNoop, nil
	}
}
