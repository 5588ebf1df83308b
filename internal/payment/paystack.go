package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
)

const DefaultPaystackURL = "https://api.paystack.co"

// Paystack verifies transactions with GET {base}/transaction/verify/{reference}.
type Paystack struct {
	baseURL string
	secret  string
	client  *http.Client
	logger  *log.Logger
}

func NewPaystack(baseURL, secret string, client *http.Client, logger *log.Logger) *Paystack {
	if baseURL == "" {
		baseURL = DefaultPaystackURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Paystack{baseURL: strings.TrimRight(baseURL, "/"), secret: secret, client: client, logger: logger}
}

type paystackResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        json.Number `json:"id"`
		Status    string      `json:"status"`
		Reference string      `json:"reference"`
		Amount    json.Number `json:"amount"`
		Currency  string      `json:"currency"`
	} `json:"data"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (Verdict, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Verdict{}, fmt.Errorf("empty reference: %w", domain.ErrGatewayUnsuccessful)
	}
	endpoint := p.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("build request: %v: %w", err, domain.ErrGatewayUnsuccessful)
	}
	req.Header.Set("Authorization", "Bearer "+p.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Printf("paystack: verify reference=%s transport error=%v", reference, err)
		return Verdict{}, fmt.Errorf("paystack transport: %v: %w", err, domain.ErrGatewayUnsuccessful)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verdict{}, fmt.Errorf("paystack read body: %v: %w", err, domain.ErrGatewayUnsuccessful)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Printf("paystack: verify reference=%s status=%d", reference, resp.StatusCode)
		return Verdict{}, fmt.Errorf("paystack status %d: %w", resp.StatusCode, domain.ErrGatewayUnsuccessful)
	}

	var parsed paystackResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("paystack decode: %v: %w", err, domain.ErrGatewayUnsuccessful)
	}
	verdict := Verdict{
		Success:       parsed.Status && parsed.Data.Status == "success",
		Currency:      strings.ToUpper(parsed.Data.Currency),
		TransactionID: parsed.Data.ID.String(),
		Reference:     parsed.Data.Reference,
		Status:        parsed.Data.Status,
	}
	if !verdict.Success {
		p.logger.Printf("paystack: verify reference=%s declined status=%q message=%q", reference, parsed.Data.Status, parsed.Message)
		return verdict, fmt.Errorf("paystack reported %q: %w", parsed.Data.Status, domain.ErrGatewayUnsuccessful)
	}
	amount, err := strconv.ParseInt(parsed.Data.Amount.String(), 10, 64)
	if err != nil {
		return verdict, fmt.Errorf("paystack amount %q: %w", parsed.Data.Amount, domain.ErrGatewayUnsuccessful)
	}
	verdict.AmountMinorUnits = amount
	p.logger.Printf("paystack: verified reference=%s amount=%d currency=%s transaction_id=%s", reference, amount, verdict.Currency, verdict.TransactionID)
	return verdict, nil
}

var _ Gateway = (*Paystack)(nil)
