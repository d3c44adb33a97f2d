package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

func TestClientProducts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Cement","sku":"CEM-1","price":"1000","total_current_stock":40,
			 "unit_conversions":[{"id":10,"name":"Pallet","conversion_rate":"50"}]}
		]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "secret")
	require.NoError(t, err)

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Cement", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimalFromString(t, "1000")))
	require.Len(t, products[0].UnitConversions, 1)
	assert.True(t, products[0].UnitConversions[0].ConversionRate.Equal(decimalFromString(t, "50")))
}

func TestClientCustomersEncodesSearchTerm(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.Equal(t, "Sari & Sons Co.", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":4,"name":"Sari & Sons Co."}]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	customers, err := client.Customers(context.Background(), "Sari & Sons Co.")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Sari & Sons Co.", customers[0].Name)
}

func TestClientPaymentMethodsCarryRoles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment-methods", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Cash","role":"change_absorber"},
			{"id":2,"name":"Card","role":"standard"}
		]`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	methods, err := client.PaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, enums.PaymentRoleChangeAbsorber, methods[0].Role)
	assert.Equal(t, enums.PaymentRoleStandard, methods[1].Role)
}

func TestClientSurfacesRemoteFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Products(context.Background())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("   ", "key")
	require.Error(t, err)
}
