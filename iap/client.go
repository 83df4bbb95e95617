package iap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Operation names shared by every Client implementation.
const (
	OpGetProducts      = "getProducts"
	OpBuy              = "buy"
	OpSubscribe        = "subscribe"
	OpConsume          = "consume"
	OpRestorePurchases = "restorePurchases"
	OpGetReceipt       = "getReceipt"
)

// Client is the platform-neutral purchase API. Each call is an independent
// request/response against the native store; no state is kept between calls.
//
// Validation failures are returned as *validation.Error before any native call
// is made. Native failures are returned as *bridge.NativeError. Nothing is
// retried.
type Client interface {
	// GetProducts returns the details of the known products among ids, in
	// request order.
	GetProducts(ctx context.Context, ids []string) ([]*Product, error)

	// Buy starts the purchase flow for a one-time product.
	Buy(ctx context.Context, productID string) (*Purchase, error)

	// Subscribe starts the purchase flow for a subscription.
	Subscribe(ctx context.Context, productID string) (*Purchase, error)

	// Consume marks a purchase as used so it can be bought again and returns
	// the native acknowledgement. Only Android has a notion of consumption.
	Consume(ctx context.Context, productType, receipt, signature string) (json.RawMessage, error)

	// RestorePurchases returns the completed, non-consumed purchases of the
	// current account.
	RestorePurchases(ctx context.Context) ([]*RestoredPurchase, error)

	// GetReceipt returns the platform's application receipt, or an empty
	// string where receipts are delivered with each purchase instead.
	GetReceipt(ctx context.Context) (string, error)
}

type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformAndroid
	PlatformIOS
	PlatformUnsupported
)

func (p Platform) String() string {
	switch p {
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	case PlatformUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	case "unsupported", "browser":
		return PlatformUnsupported, nil
	default:
		return PlatformUnknown, fmt.Errorf("unknown platform: %q", s)
	}
}

// Decode implements envconfig.Decoder.
func (p *Platform) Decode(value string) error {
	parsed, err := ParsePlatform(value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
