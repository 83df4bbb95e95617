package iap

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	for _, tc := range []struct {
		raw      string
		expected time.Time
	}{
		{raw: ``, expected: time.Time{}},
		{raw: `null`, expected: time.Time{}},
		{raw: `""`, expected: time.Time{}},
		{raw: `1709296200000`, expected: ts},
		{raw: `"1709296200000"`, expected: ts},
		{raw: `"2024-03-01T12:30:00Z"`, expected: ts},
		{raw: `"2024-03-01 12:30:00 +0000"`, expected: ts},
		{raw: `"2024-03-01 14:30:00 +0200"`, expected: ts},
	} {
		actual, err := ParseTimestamp(json.RawMessage(tc.raw))
		require.NoError(t, err, tc.raw)
		require.True(t, tc.expected.Equal(actual), "%s: %v", tc.raw, actual)
	}

	for _, raw := range []string{`"yesterday"`, `{}`, `true`} {
		_, err := ParseTimestamp(json.RawMessage(raw))
		require.Error(t, err, raw)
	}
}

func TestRestoredPurchase_State(t *testing.T) {
	for _, tc := range []struct {
		raw    string
		code   int
		ok     bool
		asText string
	}{
		{raw: ``, asText: ""},
		{raw: `null`, asText: ""},
		{raw: `2`, code: 2, ok: true, asText: "2"},
		{raw: `"REFUNDED"`, asText: "REFUNDED"},
	} {
		p := &RestoredPurchase{State: json.RawMessage(tc.raw)}
		code, ok := p.StateCode()
		require.Equal(t, tc.ok, ok, tc.raw)
		require.Equal(t, tc.code, code, tc.raw)
		require.Equal(t, tc.asText, p.StateString(), tc.raw)
	}
}

func TestRestoredPurchase_JSON(t *testing.T) {
	p := &RestoredPurchase{
		ProductID:     "sku",
		State:         json.RawMessage(`"REFUNDED"`),
		Date:          json.RawMessage(`"2024-03-01 12:30:00 +0000"`),
		TransactionID: "tx",
		PurchasedAt:   time.Now(),
	}
	encoded, err := json.Marshal(p)
	require.NoError(t, err)
	require.JSONEq(t, `{"productId":"sku","state":"REFUNDED","date":"2024-03-01 12:30:00 +0000","transactionId":"tx"}`, string(encoded))
}

func TestParsePlatform(t *testing.T) {
	for input, expected := range map[string]Platform{
		"android":     PlatformAndroid,
		" Android ":   PlatformAndroid,
		"ios":         PlatformIOS,
		"IOS":         PlatformIOS,
		"unsupported": PlatformUnsupported,
		"browser":     PlatformUnsupported,
	} {
		p, err := ParsePlatform(input)
		require.NoError(t, err)
		require.Equal(t, expected, p)
	}

	_, err := ParsePlatform("windows")
	require.Error(t, err)

	var p Platform
	require.NoError(t, p.Decode("ios"))
	require.Equal(t, PlatformIOS, p)
	require.Equal(t, "ios", p.String())
}

func TestProduct_JSON(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"a","title":"t","description":"d","price":"$0.99","currency":"USD","priceAsDecimal":0.99}`), &p))
	require.True(t, p.PriceAsDecimal.Valid)
	require.True(t, decimal.RequireFromString("0.99").Equal(p.PriceAsDecimal.Decimal))

	p = Product{}
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"a"}`), &p))
	require.False(t, p.PriceAsDecimal.Valid)
}
