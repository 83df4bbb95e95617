package android

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/chunk"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/validation"
)

// MaxSkuDetailsBatch caps the product ids sent per getSkuDetails call. The
// store accepts 20, one slot is kept free.
const MaxSkuDetailsBatch = 19

const (
	actionInit             = "init"
	actionGetSkuDetails    = "getSkuDetails"
	actionBuy              = "buy"
	actionSubscribe        = "subscribe"
	actionConsumePurchase  = "consumePurchase"
	actionRestorePurchases = "restorePurchases"
)

type client struct {
	log    *zap.Logger
	native bridge.Adapter
}

// NewClient returns the Android iap.Client. Every call that reaches the store
// first runs the idempotent init handshake.
func NewClient(log *zap.Logger, native bridge.Adapter) iap.Client {
	return &client{
		log:    log,
		native: native,
	}
}

func (c *client) init(ctx context.Context) error {
	_, err := c.native.Invoke(ctx, actionInit)
	return err
}

func (c *client) GetProducts(ctx context.Context, ids []string) ([]*iap.Product, error) {
	if !validation.IsValidProductIDList(ids) {
		return nil, validation.ErrInvalidProductIDList
	}

	if err := c.init(ctx); err != nil {
		return nil, err
	}

	batches, err := chunk.Chunk(ids, MaxSkuDetailsBatch)
	if err != nil {
		return nil, err
	}

	// Batches run one after another; the native side is not assumed to
	// handle concurrent queries.
	products := make([]*iap.Product, 0, len(ids))
	for _, batch := range batches {
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		res, err := c.native.Invoke(ctx, actionGetSkuDetails, args...)
		if err != nil {
			return nil, err
		}

		var details []*skuDetails
		if len(res) > 0 {
			if err := json.Unmarshal(res, &details); err != nil {
				return nil, errors.Wrap(err, "failed to decode sku details")
			}
		}

		for _, d := range details {
			if d == nil {
				continue
			}
			products = append(products, d.toProduct())
		}
	}

	c.log.Debug("Fetched sku details",
		zap.Int("num_requested", len(ids)),
		zap.Int("num_batches", len(batches)),
		zap.Int("num_found", len(products)),
	)

	return products, nil
}

func (c *client) Buy(ctx context.Context, productID string) (*iap.Purchase, error) {
	return c.pay(ctx, actionBuy, productID)
}

func (c *client) Subscribe(ctx context.Context, productID string) (*iap.Purchase, error) {
	return c.pay(ctx, actionSubscribe, productID)
}

func (c *client) pay(ctx context.Context, action, productID string) (*iap.Purchase, error) {
	if !validation.IsValidNonEmptyString(productID) {
		return nil, validation.ErrInvalidProductID
	}

	if err := c.init(ctx); err != nil {
		return nil, err
	}

	res, err := c.native.Invoke(ctx, action, productID)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, errors.Errorf("%s returned no purchase", action)
	}

	p, err := decodePurchase(res)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s result", action)
	}

	return &iap.Purchase{
		ProductID:     p.ProductID,
		TransactionID: p.PurchaseToken,
		Receipt:       p.receipt,
		Signature:     p.Signature,
		Type:          p.Type,
		ProductType:   p.Type,
	}, nil
}

func (c *client) Consume(ctx context.Context, productType, receipt, signature string) (json.RawMessage, error) {
	if !validation.IsValidNonEmptyString(productType) {
		return nil, validation.ErrInvalidProductType
	}
	if !validation.IsValidNonEmptyString(receipt) {
		return nil, validation.ErrInvalidReceipt
	}
	if !validation.IsValidNonEmptyString(signature) {
		return nil, validation.ErrInvalidSignature
	}

	if err := c.init(ctx); err != nil {
		return nil, err
	}

	return c.native.Invoke(ctx, actionConsumePurchase, productType, receipt, signature)
}

func (c *client) RestorePurchases(ctx context.Context) ([]*iap.RestoredPurchase, error) {
	if err := c.init(ctx); err != nil {
		return nil, err
	}

	res, err := c.native.Invoke(ctx, actionRestorePurchases)
	if err != nil {
		return nil, err
	}

	restored := []*iap.RestoredPurchase{}
	if len(res) == 0 {
		return restored, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(res, &records); err != nil {
		return nil, errors.Wrap(err, "failed to decode restored purchases")
	}

	for i, record := range records {
		p, err := decodePurchase(record)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode restored purchase %d", i)
		}

		restored = append(restored, p.toRestoredPurchase())
	}

	return restored, nil
}

// GetReceipt always returns an empty string. Android receipts are part of
// each Purchase and RestoredPurchase.
func (c *client) GetReceipt(_ context.Context) (string, error) {
	return "", nil
}
