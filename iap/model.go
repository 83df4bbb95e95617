package iap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID      string              `json:"productId"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Price          string              `json:"price"`
	Currency       string              `json:"currency,omitempty"`
	PriceAsDecimal decimal.NullDecimal `json:"priceAsDecimal"`

	// Android only.
	Type string `json:"type,omitempty"`
}

// Purchase is the outcome of Buy or Subscribe.
//
// Receipt is the native opaque receipt on iOS. On Android it is a JSON
// document assembled from the purchase fields reported by the store.
type Purchase struct {
	ProductID     string `json:"productId"`
	TransactionID string `json:"transactionId"`
	Receipt       string `json:"receipt"`

	// Android only.
	Signature   string `json:"signature,omitempty"`
	Type        string `json:"type,omitempty"`
	ProductType string `json:"productType,omitempty"`
}

// RestoredPurchase is one record of RestorePurchases. State and Date are the
// native values as reported, a number or a string depending on the store.
type RestoredPurchase struct {
	ProductID     string          `json:"productId"`
	State         json.RawMessage `json:"state,omitempty"`
	Date          json.RawMessage `json:"date,omitempty"`
	TransactionID string          `json:"transactionId"`

	// PurchasedAt is Date decoded with ParseTimestamp, zero when Date is
	// absent or in a format ParseTimestamp does not recognize.
	PurchasedAt time.Time `json:"-"`

	// Android only.
	Type        string `json:"type,omitempty"`
	ProductType string `json:"productType,omitempty"`
	Signature   string `json:"signature,omitempty"`
	Receipt     string `json:"receipt,omitempty"`
}

// StateCode returns State as an integer. ok is false when the state is absent
// or not numeric, for example "REFUNDED".
func (p *RestoredPurchase) StateCode() (code int, ok bool) {
	if IsAbsent(p.State) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(p.State, &f); err != nil {
		return 0, false
	}
	return int(f), true
}

// StateString returns State as text, numbers included.
func (p *RestoredPurchase) StateString() string {
	if IsAbsent(p.State) {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.State, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(p.State))
}

// IsAbsent reports whether raw is missing or JSON null.
func IsAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// Present returns raw, or nil when it is absent.
func Present(raw json.RawMessage) json.RawMessage {
	if IsAbsent(raw) {
		return nil
	}
	return raw
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp decodes a native date value. Numbers, and strings holding
// only digits, are milliseconds since the Unix epoch; other strings are RFC
// 3339 or the "2006-01-02 15:04:05 -0700" form StoreKit dates print as. An
// absent or null value yields the zero time.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	if IsAbsent(raw) {
		return time.Time{}, nil
	}
	raw = bytes.TrimSpace(raw)

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("invalid date %s: %w", raw, err)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}
