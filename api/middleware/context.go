package middleware

import "context"

type ctxKey int

const (
	ctxTerminalID ctxKey = iota
	ctxCashier
)

// TerminalIDFromContext returns the authenticated terminal id, or "".
func TerminalIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxTerminalID).(string)
	return v
}

// CashierFromContext returns the authenticated cashier name, or "".
func CashierFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxCashier).(string)
	return v
}
