package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twilio/twilio-go/client"
)

type recorder struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recorder) Notify(_ context.Context, destination, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, destination+"|"+message)
	return r.err
}

func TestDispatcherSendsInBackground(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, time.Second, nil)

	d.Dispatch("+233200000000", "hello")
	d.Dispatch("", "dropped")
	d.Wait()

	assert.Equal(t, []string{"+233200000000|hello"}, rec.sent)
}

func TestDispatcherLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0)
	d := NewDispatcher(&recorder{err: errors.New("boom")}, time.Second, logger)

	d.Dispatch("+233200000000", "hello")
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "error=boom")
}

func TestDispatcherDropsAfterWait(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0)
	rec := &recorder{}
	d := NewDispatcher(rec, time.Second, logger)

	d.Dispatch("+233200000000", "before")
	d.Wait()
	d.Dispatch("+233200000000", "after")
	d.Wait()

	rec.mu.Lock()
	assert.Equal(t, []string{"+233200000000|before"}, rec.sent)
	rec.mu.Unlock()
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "dropped after shutdown")
}

func TestDispatcherConcurrentDispatchAndWait(t *testing.T) {
	d := NewDispatcher(&recorder{}, time.Second, nil)

	var senders sync.WaitGroup
	for i := 0; i < 8; i++ {
		senders.Add(1)
		go func() {
			defer senders.Done()
			for j := 0; j < 50; j++ {
				d.Dispatch("+233200000000", "hello")
			}
		}()
	}
	d.Wait()
	senders.Wait()
	d.Wait()
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestTwilioPostsForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(srv.URL, "AC123", "secret", "+15550000000", srv.Client())
	require.NoError(t, err)
	require.NoError(t, tw.Notify(context.Background(), "+233200000000", "hi"))
	assert.Equal(t, "+233200000000", got.Get("To"))
	assert.Equal(t, "+15550000000", got.Get("From"))
	assert.Equal(t, "hi", got.Get("Body"))
}

func TestTwilioErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"invalid To","status":400}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(srv.URL, "AC123", "secret", "+1", srv.Client())
	require.NoError(t, err)
	err = tw.Notify(context.Background(), "bad", "hi")
	require.Error(t, err)

	var apiErr *client.TwilioRestError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 21211, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestTwilioSkipsCanceledContext(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tw, err := NewTwilio(srv.URL, "AC123", "secret", "+1", srv.Client())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, tw.Notify(ctx, "+233200000000", "hi"), context.Canceled)
	assert.Zero(t, calls)
}

func TestNewTwilioRejectsBadURL(t *testing.T) {
	_, err := NewTwilio("not a url", "AC123", "secret", "+1", nil)
	require.Error(t, err)
}

func TestOrderReceivedMessage(t *testing.T) {
	o := domain.Order{
		ID:         "o-1",
		TotalCents: 11500,
		Items: []domain.LineItem{
			{Name: "Shirt", Quantity: 2, Size: "M"},
			{Name: "Cap", Quantity: 1},
		},
		ShippingAddress: domain.ShippingAddress{FirstName: "Ama", LastName: "Mensah", Phone: "+233200000000"},
	}
	msg := OrderReceived(o, "GHS")
	assert.True(t, strings.HasPrefix(msg, "NEW ORDER RECEIVED"))
	assert.Contains(t, msg, "Total: GHS 115.00")
	assert.Contains(t, msg, "Ama Mensah (+233200000000)")
	assert.Contains(t, msg, "- Shirt x2 (M)")
	assert.Contains(t, msg, "- Cap x1")
}
