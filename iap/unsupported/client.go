package unsupported

import (
	"context"
	"encoding/json"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/iap"
)

// client is used when no native billing module is available. Every operation
// is forwarded to the unsupported adapter and fails with
// validation.ErrPlatformNotSupported, arguments are not inspected.
type client struct {
	native bridge.Adapter
}

func NewClient() iap.Client {
	return &client{
		native: bridge.NewUnsupportedAdapter(),
	}
}

func (c *client) GetProducts(ctx context.Context, ids []string) ([]*iap.Product, error) {
	_, err := c.native.Invoke(ctx, iap.OpGetProducts)
	return nil, err
}

func (c *client) Buy(ctx context.Context, productID string) (*iap.Purchase, error) {
	_, err := c.native.Invoke(ctx, iap.OpBuy)
	return nil, err
}

func (c *client) Subscribe(ctx context.Context, productID string) (*iap.Purchase, error) {
	_, err := c.native.Invoke(ctx, iap.OpSubscribe)
	return nil, err
}

func (c *client) Consume(ctx context.Context, productType, receipt, signature string) (json.RawMessage, error) {
	_, err := c.native.Invoke(ctx, iap.OpConsume)
	return nil, err
}

func (c *client) RestorePurchases(ctx context.Context) ([]*iap.RestoredPurchase, error) {
	_, err := c.native.Invoke(ctx, iap.OpRestorePurchases)
	return nil, err
}

func (c *client) GetReceipt(ctx context.Context) (string, error) {
	_, err := c.native.Invoke(ctx, iap.OpGetReceipt)
	return "", err
}
