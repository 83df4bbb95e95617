package ios

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/validation"
)

const (
	actionGetProducts      = "getProducts"
	actionBuy              = "buy"
	actionRestorePurchases = "restorePurchases"
	actionGetReceipt       = "getReceipt"
)

type client struct {
	log    *zap.Logger
	native bridge.Adapter
}

// NewClient returns the iOS iap.Client.
func NewClient(log *zap.Logger, native bridge.Adapter) iap.Client {
	return &client{
		log:    log,
		native: native,
	}
}

type productsResponse struct {
	Products []*struct {
		ProductID      string              `json:"productId"`
		Title          string              `json:"title"`
		Description    string              `json:"description"`
		Price          string              `json:"price"`
		Currency       string              `json:"currency"`
		PriceAsDecimal decimal.NullDecimal `json:"priceAsDecimal"`
	} `json:"products"`
}

func (c *client) GetProducts(ctx context.Context, ids []string) ([]*iap.Product, error) {
	if !validation.IsValidProductIDList(ids) {
		return nil, validation.ErrInvalidProductIDList
	}

	// The whole list goes as a single argument.
	res, err := c.native.Invoke(ctx, actionGetProducts, ids)
	if err != nil {
		return nil, err
	}

	products := []*iap.Product{}
	if len(res) == 0 {
		return products, nil
	}

	var resp productsResponse
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode products")
	}

	c.log.Debug("Fetched products",
		zap.Int("num_requested", len(ids)),
		zap.Int("num_found", len(resp.Products)),
	)

	for _, p := range resp.Products {
		if p == nil {
			continue
		}
		products = append(products, &iap.Product{
			ProductID:      p.ProductID,
			Title:          p.Title,
			Description:    p.Description,
			Price:          p.Price,
			Currency:       p.Currency,
			PriceAsDecimal: p.PriceAsDecimal,
		})
	}

	return products, nil
}

type buyResponse struct {
	ProductID     string `json:"productId"`
	TransactionID string `json:"transactionId"`
	Receipt       string `json:"receipt"`
}

func (c *client) Buy(ctx context.Context, productID string) (*iap.Purchase, error) {
	if !validation.IsValidNonEmptyString(productID) {
		return nil, validation.ErrInvalidProductID
	}

	res, err := c.native.Invoke(ctx, actionBuy, productID)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, errors.New("buy returned no purchase")
	}

	var resp buyResponse
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode buy result")
	}

	return &iap.Purchase{
		ProductID:     resp.ProductID,
		TransactionID: resp.TransactionID,
		Receipt:       resp.Receipt,
	}, nil
}

// Subscribe is Buy; StoreKit makes no distinction.
func (c *client) Subscribe(ctx context.Context, productID string) (*iap.Purchase, error) {
	return c.Buy(ctx, productID)
}

// Consume does nothing. StoreKit has no consumption step, the arguments are
// ignored.
func (c *client) Consume(_ context.Context, _, _, _ string) (json.RawMessage, error) {
	return nil, nil
}

type restoreResponse struct {
	Transactions []*struct {
		ProductID        string          `json:"productId"`
		Date             json.RawMessage `json:"date"`
		TransactionID    string          `json:"transactionId"`
		TransactionState int             `json:"transactionState"`
	} `json:"transactions"`
}

func (c *client) RestorePurchases(ctx context.Context) ([]*iap.RestoredPurchase, error) {
	res, err := c.native.Invoke(ctx, actionRestorePurchases)
	if err != nil {
		return nil, err
	}

	restored := []*iap.RestoredPurchase{}
	if len(res) == 0 {
		return restored, nil
	}

	var resp restoreResponse
	if err := json.Unmarshal(res, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode restored transactions")
	}

	for _, tx := range resp.Transactions {
		if tx == nil {
			continue
		}

		rp := &iap.RestoredPurchase{
			ProductID:     tx.ProductID,
			State:         iap.Present(tx.TransactionState),
			Date:          iap.Present(tx.Date),
			TransactionID: tx.TransactionID,
		}

		var err error
		rp.PurchasedAt, err = iap.ParseTimestamp(rp.Date)
		if err != nil {
			c.log.Debug("Unrecognized transaction date",
				zap.String("transaction_id", tx.TransactionID),
				zap.ByteString("date", rp.Date),
			)
		}

		restored = append(restored, rp)
	}

	return restored, nil
}

func (c *client) GetReceipt(ctx context.Context) (string, error) {
	res, err := c.native.Invoke(ctx, actionGetReceipt)
	if err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", nil
	}

	var resp struct {
		Receipt string `json:"receipt"`
	}
	if err := json.Unmarshal(res, &resp); err != nil {
		return "", errors.Wrap(err, "failed to decode receipt")
	}
	return resp.Receipt, nil
}
