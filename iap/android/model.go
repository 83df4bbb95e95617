package android

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/code-payments/inapppurchase/iap"
)

type skuDetails struct {
	ProductID      string              `json:"productId"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Price          string              `json:"price"`
	Type           string              `json:"type"`
	Currency       string              `json:"currency"`
	PriceAsDecimal decimal.NullDecimal `json:"priceAsDecimal"`
}

func (d *skuDetails) toProduct() *iap.Product {
	return &iap.Product{
		ProductID:      d.ProductID,
		Title:          d.Title,
		Description:    d.Description,
		Price:          d.Price,
		Currency:       d.Currency,
		PriceAsDecimal: d.PriceAsDecimal,
		Type:           d.Type,
	}
}

// Receipt is the receipt document handed out for Android purchases. Values
// are carried over from the store untouched; fields the store did not report
// are left out.
type Receipt struct {
	OrderID       json.RawMessage `json:"orderId,omitempty"`
	PackageName   json.RawMessage `json:"packageName,omitempty"`
	ProductID     json.RawMessage `json:"productId,omitempty"`
	PurchaseTime  json.RawMessage `json:"purchaseTime,omitempty"`
	PurchaseState json.RawMessage `json:"purchaseState,omitempty"`
	PurchaseToken json.RawMessage `json:"purchaseToken,omitempty"`
}

// ReceiptFields is the decoded form of a Receipt, used by receipt verifiers.
type ReceiptFields struct {
	OrderID       string `json:"orderId"`
	PackageName   string `json:"packageName"`
	ProductID     string `json:"productId"`
	PurchaseTime  int64  `json:"purchaseTime"`
	PurchaseState int    `json:"purchaseState"`
	PurchaseToken string `json:"purchaseToken"`
}

// ParseReceipt decodes a receipt produced by the Android client.
func ParseReceipt(receipt string) (*ReceiptFields, error) {
	var fields ReceiptFields
	if err := json.Unmarshal([]byte(receipt), &fields); err != nil {
		return nil, err
	}
	return &fields, nil
}

type purchase struct {
	OrderID       string `json:"orderId"`
	ProductID     string `json:"productId"`
	PurchaseToken string `json:"purchaseToken"`
	Signature     string `json:"signature"`
	Type          string `json:"type"`

	PurchaseState json.RawMessage `json:"purchaseState"`
	PurchaseTime  json.RawMessage `json:"purchaseTime"`

	// Only some native versions report these for restored purchases.
	State json.RawMessage `json:"state"`
	Date  json.RawMessage `json:"date"`

	receipt string
}

func decodePurchase(payload []byte) (*purchase, error) {
	var p purchase
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}

	var r Receipt
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(&r)
	if err != nil {
		return nil, err
	}
	p.receipt = string(encoded)

	return &p, nil
}

func (p *purchase) toRestoredPurchase() *iap.RestoredPurchase {
	rp := &iap.RestoredPurchase{
		ProductID:     p.ProductID,
		TransactionID: p.OrderID,
		Type:          p.Type,
		ProductType:   p.Type,
		Signature:     p.Signature,
		Receipt:       p.receipt,
	}

	rp.State = iap.Present(p.State)
	if rp.State == nil {
		rp.State = iap.Present(p.PurchaseState)
	}

	rp.Date = iap.Present(p.Date)
	if rp.Date == nil {
		rp.Date = iap.Present(p.PurchaseTime)
	}
	rp.PurchasedAt, _ = iap.ParseTimestamp(rp.Date)

	return rp
}
