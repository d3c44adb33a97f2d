package submission

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

type stubGuard struct {
	acquired bool
	taken    bool
	released []string
}

func (g *stubGuard) SubmissionKey(saleContext, tabID string) string {
	return "tlp:submission:" + saleContext + ":" + tabID
}

func (g *stubGuard) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	if g.taken {
		return false, nil
	}
	g.acquired = true
	return true, nil
}

func (g *stubGuard) Del(_ context.Context, keys ...string) error {
	g.released = append(g.released, keys...)
	return nil
}

type stubOrderAPI struct {
	payload   OrderPayload
	createErr error
	orderID   int64
	confirmed []int64
	cancelled []int64
}

func (a *stubOrderAPI) CreateOrder(_ context.Context, payload OrderPayload) (int64, error) {
	a.payload = payload
	if a.createErr != nil {
		return 0, a.createErr
	}
	return a.orderID, nil
}

func (a *stubOrderAPI) ConfirmOrder(_ context.Context, orderID int64) error {
	a.confirmed = append(a.confirmed, orderID)
	return nil
}

func (a *stubOrderAPI) CancelOrder(_ context.Context, orderID int64) error {
	a.cancelled = append(a.cancelled, orderID)
	return nil
}

func seedStore(t *testing.T) *pos.Store {
	t.Helper()
	store := pos.NewStore(nil)
	sc := enums.SaleContextRetail
	p := pos.Product{ID: 5, Name: "Cement", Price: decimal.NewFromInt(1000)}
	require.NoError(t, store.AddToCart(sc, p, "Box of 10", decimal.NewFromInt(10)))
	require.NoError(t, store.AddPayment(sc, pos.PaymentEntry{
		MethodID: 1,
		Name:     "Cash",
		Amount:   decimal.NewFromInt(12000),
		Role:     enums.PaymentRoleChangeAbsorber,
	}))
	return store
}

func TestSubmitSettlesAndClearsTab(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	guard := &stubGuard{}
	remote := &stubOrderAPI{orderID: 41}
	svc, err := NewService(store, guard, remote, nil, nil, time.Second)
	require.NoError(t, err)

	res, err := svc.Submit(context.Background(), enums.SaleContextRetail)
	require.NoError(t, err)
	assert.Equal(t, int64(41), res.OrderID)
	// Payable 10000, tendered 12000: the absorber keeps 10000 and the
	// terminal owes 2000 change.
	assert.True(t, res.Change.Equal(decimal.NewFromInt(2000)), "change %s", res.Change)
	require.Len(t, res.Rows, 1)
	assert.True(t, res.Rows[0].Amount.Equal(decimal.NewFromInt(10000)))

	tab, err := store.ActiveTab(enums.SaleContextRetail)
	require.NoError(t, err)
	assert.Empty(t, tab.Cart, "submitted tab must be cleared")
	assert.True(t, guard.acquired)
	assert.Len(t, guard.released, 1)
}

func TestSubmitBuildsBaseUnitPayload(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	remote := &stubOrderAPI{orderID: 1}
	svc, err := NewService(store, &stubGuard{}, remote, nil, nil, time.Second)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), enums.SaleContextRetail)
	require.NoError(t, err)

	require.Len(t, remote.payload.Items, 1)
	item := remote.payload.Items[0]
	assert.Equal(t, int64(5), item.ProductID)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(10)), "quantity %s", item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(1000)), "unit price %s", item.UnitPrice)
	assert.Equal(t, "retail", remote.payload.SaleContext)
}

func TestSubmitFailureLeavesTabUntouched(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	remote := &stubOrderAPI{createErr: pkgerrors.New(pkgerrors.CodeDependency, "back office down")}
	svc, err := NewService(store, &stubGuard{}, remote, nil, nil, time.Second)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), enums.SaleContextRetail)
	require.Error(t, err)

	tab, tabErr := store.ActiveTab(enums.SaleContextRetail)
	require.NoError(t, tabErr)
	assert.Len(t, tab.Cart, 1, "failed submission must preserve the composition")
	assert.Len(t, tab.Details.Payments, 1)
}

func TestSubmitRejectsWhileInFlight(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	svc, err := NewService(store, &stubGuard{taken: true}, &stubOrderAPI{}, nil, nil, time.Second)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), enums.SaleContextRetail)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeIdempotency, appErr.Code())
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	store := pos.NewStore(nil)
	svc, err := NewService(store, &stubGuard{}, &stubOrderAPI{}, nil, nil, time.Second)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), enums.SaleContextRetail)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestConfirmAndCancelValidateOrderID(t *testing.T) {
	t.Parallel()

	remote := &stubOrderAPI{}
	svc, err := NewService(pos.NewStore(nil), &stubGuard{}, remote, nil, nil, time.Second)
	require.NoError(t, err)

	require.Error(t, svc.Confirm(context.Background(), 0))
	require.Error(t, svc.Cancel(context.Background(), -4))

	require.NoError(t, svc.Confirm(context.Background(), 9))
	require.NoError(t, svc.Cancel(context.Background(), 9))
	assert.Equal(t, []int64{9}, remote.confirmed)
	assert.Equal(t, []int64{9}, remote.cancelled)
}

func TestClientCreateOrderChecksIsSuccess(t *testing.T) {
	t.Parallel()

	// Covered through remoteRejection: a 200 response with
	// isSuccess=false must surface as a dependency error.
	err := remoteRejection("order creation rejected", orderResponse{
		Message: "credit limit exceeded",
		Detail:  "customer 12",
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
	assert.Equal(t, "credit limit exceeded: customer 12", appErr.Details())
}
