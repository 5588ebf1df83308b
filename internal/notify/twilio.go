package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const DefaultTwilioURL = "https://api.twilio.com"

// Twilio sends SMS through the Twilio REST client.
type Twilio struct {
	rest *twilio.RestClient
	from string
}

// NewTwilio builds a sender for accountSID. A baseURL other than
// DefaultTwilioURL redirects every API call to that host.
func NewTwilio(baseURL, accountSID, authToken, from string, httpClient *http.Client) (*Twilio, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL != "" && baseURL != DefaultTwilioURL {
		target, err := url.Parse(baseURL)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("twilio base url %q: invalid", baseURL)
		}
		next := httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rebased := *httpClient
		rebased.Transport = hostRewriter{target: target, next: next}
		httpClient = &rebased
	}

	c := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(accountSID)
	return &Twilio{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
		from: from,
	}, nil
}

func (t *Twilio) Notify(ctx context.Context, destination, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(t.from)
	params.SetBody(message)

	if _, err := t.rest.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

// hostRewriter sends requests built for api.twilio.com to another host.
type hostRewriter struct {
	target *url.URL
	next   http.RoundTripper
}

func (h hostRewriter) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = h.target.Scheme
	r.URL.Host = h.target.Host
	r.Host = h.target.Host
	return h.next.RoundTrip(r)
}

var _ Notifier = (*Twilio)(nil)
