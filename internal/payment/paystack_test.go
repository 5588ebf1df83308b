package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPaystackVerifySuccess(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"status":true,"message":"Verification successful","data":{"id":4099260516,"status":"success","reference":"ref-1","amount":10000,"currency":"ghs"}}`)
	gw := NewPaystack(srv.URL, "sk_test", srv.Client(), nil)

	v, err := gw.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.EqualValues(t, 10000, v.AmountMinorUnits)
	assert.Equal(t, "GHS", v.Currency)
	assert.Equal(t, "4099260516", v.TransactionID)
}

func TestPaystackVerifyFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"declined":     {http.StatusOK, `{"status":true,"data":{"id":1,"status":"failed","amount":10000,"currency":"GHS"}}`},
		"status false": {http.StatusOK, `{"status":false,"message":"Transaction reference not found"}`},
		"http error":   {http.StatusBadRequest, `{"status":false}`},
		"bad json":     {http.StatusOK, `not json`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body)
			gw := NewPaystack(srv.URL, "sk_test", srv.Client(), nil)
			_, err := gw.Verify(context.Background(), "ref-1")
			require.ErrorIs(t, err, domain.ErrGatewayUnsuccessful)
		})
	}
}

func TestPaystackTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := NewPaystack(url, "sk_test", nil, nil)
	_, err := gw.Verify(context.Background(), "ref-1")
	require.ErrorIs(t, err, domain.ErrGatewayUnsuccessful)
}

func TestPaystackEmptyReference(t *testing.T) {
	gw := NewPaystack("http://unused", "sk_test", nil, nil)
	_, err := gw.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrGatewayUnsuccessful)
}
