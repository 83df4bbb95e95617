package memory

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	iapandroid "github.com/code-payments/inapppurchase/iap/android"
	"github.com/code-payments/inapppurchase/receipt"
)

var ErrUnknownReceipt = errors.New("unknown receipt")

// Verifier accepts receipts it has been told about. Android receipts are
// matched on their purchase token, anything else on the whole receipt.
type Verifier struct {
	mu       sync.RWMutex
	accepted map[string]struct{}
}

func NewVerifier() *Verifier {
	return &Verifier{
		accepted: map[string]struct{}{},
	}
}

var _ receipt.Verifier = (*Verifier)(nil)

func (v *Verifier) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.accepted = map[string]struct{}{}
}

// Accept registers a purchase token or opaque receipt as valid.
func (v *Verifier) Accept(value string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.accepted[value] = struct{}{}
}

func (v *Verifier) VerifyReceipt(_ context.Context, r string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, ok := v.accepted[key(r)]
	return ok, nil
}

func (v *Verifier) GetReceiptIdentifier(_ context.Context, r string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	k := key(r)
	if _, ok := v.accepted[k]; !ok {
		return nil, ErrUnknownReceipt
	}

	id := sha256.Sum256([]byte(k))
	return id[:], nil
}

func key(r string) string {
	if fields, err := iapandroid.ParseReceipt(r); err == nil && fields.PurchaseToken != "" {
		return fields.PurchaseToken
	}
	return r
}
