// Package payment talks to the card payment provider.
package payment

import "context"

// Verdict is the provider's answer for one payment reference.
type Verdict struct {
	Success          bool
	AmountMinorUnits int64
	Currency         string
	TransactionID    string
	Reference        string
	Status           string
}

// Gateway verifies a payment reference. Every failure, whether transport,
// HTTP status or a declined charge, is returned wrapping domain.ErrGatewayUnsuccessful.
// Implementations do not retry.
type Gateway interface {
	Verify(ctx context.Context, reference string) (Verdict, error)
}
