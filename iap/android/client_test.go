package android

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/bridge/memory"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/iap/tests"
	"github.com/code-payments/inapppurchase/validation"
)

func newTestClient() (iap.Client, *memory.Bridge) {
	b := memory.NewBridge()
	return NewClient(zap.NewNop(), bridge.NewAndroidAdapter(zap.NewNop(), b)), b
}

func TestAndroid_Client(t *testing.T) {
	c, b := newTestClient()
	tests.RunClientTests(t, c, b, b.Reset)
}

func TestAndroid_GetProducts(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("getSkuDetails", []map[string]any{
		{"productId": "com.test.prod1", "title": "prod1 title", "description": "prod1 description", "price": "$0.99", "type": "inapp", "currency": "USD"},
		{"productId": "com.test.prod2", "title": "prod2 title", "description": "prod2 description", "price": "$1.99", "type": "subs", "currency": "USD", "priceAsDecimal": 1.99},
	})

	ids := []string{"com.test.prod1", "com.test.prod2"}
	products, err := c.GetProducts(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, &iap.Product{
		ProductID:   "com.test.prod1",
		Title:       "prod1 title",
		Description: "prod1 description",
		Price:       "$0.99",
		Currency:    "USD",
		Type:        "inapp",
	}, products[0])
	assert.Equal(t, "com.test.prod2", products[1].ProductID)
	assert.True(t, products[1].PriceAsDecimal.Valid)
	assert.True(t, decimal.RequireFromString("1.99").Equal(products[1].PriceAsDecimal.Decimal))

	require.Equal(t, []string{"init", "getSkuDetails"}, b.Actions())
	for _, call := range b.Calls() {
		require.Equal(t, bridge.ServiceAndroid, call.Service)
	}
	require.Empty(t, b.CallsTo("init")[0].Args)
	require.Equal(t, []any{"com.test.prod1", "com.test.prod2"}, b.CallsTo("getSkuDetails")[0].Args)
}

func TestAndroid_GetProducts_Batched(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Handle("getSkuDetails", func(args []any) (any, any) {
		details := make([]map[string]any, len(args))
		for i, id := range args {
			details[i] = map[string]any{"productId": id, "title": fmt.Sprintf("title %v", id)}
		}
		return details, nil
	})

	ids := make([]string, 21)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}

	products, err := c.GetProducts(context.Background(), ids)
	require.NoError(t, err)

	calls := b.CallsTo("getSkuDetails")
	require.Len(t, calls, 2)
	require.Len(t, calls[0].Args, 19)
	require.Equal(t, "1", calls[0].Args[0])
	require.Equal(t, "19", calls[0].Args[18])
	require.Equal(t, []any{"20", "21"}, calls[1].Args)

	require.Len(t, products, 21)
	for i, p := range products {
		require.Equal(t, ids[i], p.ProductID)
	}

	require.Equal(t, []string{"init", "getSkuDetails", "getSkuDetails"}, b.Actions())
}

func TestAndroid_GetProducts_BatchFailureAborts(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)

	batch := 0
	b.Handle("getSkuDetails", func(args []any) (any, any) {
		batch++
		if batch == 2 {
			return nil, map[string]any{"code": 5, "message": "Error retrieving SKU details"}
		}
		return []map[string]any{{"productId": args[0]}}, nil
	})

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("sku%d", i)
	}

	products, err := c.GetProducts(context.Background(), ids)
	require.Nil(t, products)
	code, ok := bridge.ErrorCode(err)
	require.True(t, ok)
	require.Equal(t, 5, code)

	// The third batch is never sent.
	require.Len(t, b.CallsTo("getSkuDetails"), 2)
}

func TestAndroid_GetProducts_NoDetails(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("getSkuDetails", nil)

	products, err := c.GetProducts(context.Background(), []string{"unknown"})
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)
}

func TestAndroid_InitFailureShortCircuits(t *testing.T) {
	c, b := newTestClient()
	b.Fail("init", map[string]any{"code": -1, "message": "Billing cannot be initialized"})
	b.Succeed("getSkuDetails", []any{})
	b.Succeed("buy", map[string]any{})
	b.Succeed("restorePurchases", []any{})
	b.Succeed("consumePurchase", map[string]any{})

	ctx := context.Background()

	_, err := c.GetProducts(ctx, []string{"a"})
	require.Error(t, err)
	_, err = c.Buy(ctx, "a")
	require.Error(t, err)
	_, err = c.Subscribe(ctx, "a")
	require.Error(t, err)
	_, err = c.Consume(ctx, "inapp", "{}", "sig")
	require.Error(t, err)
	_, err = c.RestorePurchases(ctx)
	require.Error(t, err)

	code, ok := bridge.ErrorCode(err)
	require.True(t, ok)
	require.Equal(t, -1, code)

	require.Equal(t, []string{"init", "init", "init", "init", "init"}, b.Actions())
}

func TestAndroid_Buy(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)

	purchaseTime := time.Now().UnixMilli()
	b.Succeed("buy", map[string]any{
		"orderId":       "_some_order_id_",
		"packageName":   "com.test",
		"productId":     "sku1",
		"purchaseTime":  purchaseTime,
		"purchaseState": 0,
		"purchaseToken": "_some_purchase_token_",
		"signature":     "_some_signature_",
		"type":          "inapp",
		"receipt":       `{"original":"json"}`,
	})

	purchase, err := c.Buy(context.Background(), "sku1")
	require.NoError(t, err)

	assert.Equal(t, "sku1", purchase.ProductID)
	assert.Equal(t, "_some_purchase_token_", purchase.TransactionID)
	assert.Equal(t, "_some_signature_", purchase.Signature)
	assert.Equal(t, "inapp", purchase.Type)
	assert.Equal(t, "inapp", purchase.ProductType)

	var receipt map[string]any
	require.NoError(t, json.Unmarshal([]byte(purchase.Receipt), &receipt))
	require.Equal(t, map[string]any{
		"orderId":       "_some_order_id_",
		"packageName":   "com.test",
		"productId":     "sku1",
		"purchaseTime":  float64(purchaseTime),
		"purchaseState": float64(0),
		"purchaseToken": "_some_purchase_token_",
	}, receipt)

	fields, err := ParseReceipt(purchase.Receipt)
	require.NoError(t, err)
	require.Equal(t, &ReceiptFields{
		OrderID:       "_some_order_id_",
		PackageName:   "com.test",
		ProductID:     "sku1",
		PurchaseTime:  purchaseTime,
		PurchaseState: 0,
		PurchaseToken: "_some_purchase_token_",
	}, fields)

	calls := b.CallsTo("buy")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"sku1"}, calls[0].Args)
	require.Equal(t, []string{"init", "buy"}, b.Actions())
}

func TestAndroid_Buy_PartialNativeFields(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("buy", map[string]any{
		"orderId":       "_some_order_id_",
		"purchaseToken": "_some_purchase_token_",
	})

	purchase, err := c.Buy(context.Background(), "sku1")
	require.NoError(t, err)
	require.JSONEq(t, `{"orderId":"_some_order_id_","purchaseToken":"_some_purchase_token_"}`, purchase.Receipt)
	require.Empty(t, purchase.Signature)
}

func TestAndroid_Buy_NoResult(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("buy", nil)

	_, err := c.Buy(context.Background(), "sku1")
	require.Error(t, err)
	_, ok := bridge.ErrorCode(err)
	require.False(t, ok)
}

func TestAndroid_Subscribe(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("subscribe", map[string]any{
		"productId":     "sub1",
		"purchaseToken": "tok",
		"type":          "subs",
	})

	purchase, err := c.Subscribe(context.Background(), "sub1")
	require.NoError(t, err)
	require.Equal(t, "tok", purchase.TransactionID)
	require.Equal(t, "subs", purchase.Type)

	require.Equal(t, []string{"init", "subscribe"}, b.Actions())
	require.Equal(t, []any{"sub1"}, b.CallsTo("subscribe")[0].Args)
}

func TestAndroid_Consume(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("consumePurchase", map[string]any{
		"transactionId": "_some_order_id_",
		"productId":     "sku1",
		"token":         "_some_purchase_token_",
	})

	ack, err := c.Consume(context.Background(), "inapp", `{"purchaseToken":"_some_purchase_token_"}`, "_some_signature_")
	require.NoError(t, err)
	require.JSONEq(t, `{"transactionId":"_some_order_id_","productId":"sku1","token":"_some_purchase_token_"}`, string(ack))

	calls := b.CallsTo("consumePurchase")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"inapp", `{"purchaseToken":"_some_purchase_token_"}`, "_some_signature_"}, calls[0].Args)
}

func TestAndroid_Consume_InvalidArgument(t *testing.T) {
	c, b := newTestClient()
	ctx := context.Background()

	_, err := c.Consume(ctx, "", "receipt", "signature")
	require.ErrorIs(t, err, validation.ErrInvalidProductType)

	_, err = c.Consume(ctx, "inapp", "", "signature")
	require.ErrorIs(t, err, validation.ErrInvalidReceipt)

	_, err = c.Consume(ctx, "inapp", "receipt", "")
	require.ErrorIs(t, err, validation.ErrInvalidSignature)

	// The type is checked first.
	_, err = c.Consume(ctx, "", "", "")
	require.ErrorIs(t, err, validation.ErrInvalidProductType)

	require.Empty(t, b.Calls())
}

func TestAndroid_RestorePurchases(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)

	purchaseTime := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	b.Succeed("restorePurchases", []map[string]any{
		{
			"orderId":       "order1",
			"packageName":   "com.test",
			"productId":     "sku1",
			"purchaseTime":  purchaseTime.UnixMilli(),
			"purchaseState": 0,
			"purchaseToken": "tok1",
			"signature":     "sig1",
			"type":          "inapp",
		},
		{
			"orderId":   "order2",
			"productId": "sku2",
			"state":     1,
			"date":      "2024-03-02T00:00:00Z",
			"type":      "subs",
		},
	})

	restored, err := c.RestorePurchases(context.Background())
	require.NoError(t, err)
	require.Len(t, restored, 2)

	assert.Equal(t, "sku1", restored[0].ProductID)
	assert.Equal(t, "order1", restored[0].TransactionID)
	state, ok := restored[0].StateCode()
	assert.True(t, ok)
	assert.Equal(t, 0, state)
	assert.JSONEq(t, `1709296200000`, string(restored[0].Date))
	assert.True(t, purchaseTime.Equal(restored[0].PurchasedAt))
	assert.Equal(t, "inapp", restored[0].Type)
	assert.Equal(t, "sig1", restored[0].Signature)
	assert.JSONEq(t, `{"orderId":"order1","packageName":"com.test","productId":"sku1","purchaseTime":1709296200000,"purchaseState":0,"purchaseToken":"tok1"}`, restored[0].Receipt)

	assert.Equal(t, "sku2", restored[1].ProductID)
	state, ok = restored[1].StateCode()
	assert.True(t, ok)
	assert.Equal(t, 1, state)
	assert.True(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC).Equal(restored[1].PurchasedAt))
	assert.Equal(t, "subs", restored[1].ProductType)

	require.Equal(t, []string{"init", "restorePurchases"}, b.Actions())
}

func TestAndroid_RestorePurchases_NativeValuesPassThrough(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("restorePurchases", []map[string]any{
		{
			"orderId":   "order1",
			"productId": "sku1",
			"state":     "REFUNDED",
			"date":      "2024-03-01 12:30:00 +0000",
		},
		{
			"orderId":       "order2",
			"productId":     "sku2",
			"purchaseState": "PENDING",
			"purchaseTime":  "not a date",
			"purchaseToken": "tok2",
		},
	})

	restored, err := c.RestorePurchases(context.Background())
	require.NoError(t, err)
	require.Len(t, restored, 2)

	_, ok := restored[0].StateCode()
	assert.False(t, ok)
	assert.Equal(t, "REFUNDED", restored[0].StateString())
	assert.JSONEq(t, `"2024-03-01 12:30:00 +0000"`, string(restored[0].Date))
	assert.True(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).Equal(restored[0].PurchasedAt))

	assert.Equal(t, "PENDING", restored[1].StateString())
	assert.JSONEq(t, `"not a date"`, string(restored[1].Date))
	assert.True(t, restored[1].PurchasedAt.IsZero())
	assert.JSONEq(t, `{"orderId":"order2","productId":"sku2","purchaseTime":"not a date","purchaseState":"PENDING","purchaseToken":"tok2"}`, restored[1].Receipt)
}

func TestAndroid_GetReceipt(t *testing.T) {
	c, b := newTestClient()
	b.Succeed("init", nil)
	b.Succeed("buy", map[string]any{"productId": "sku1", "purchaseToken": "tok"})

	for i := 0; i < 3; i++ {
		receipt, err := c.GetReceipt(context.Background())
		require.NoError(t, err)
		require.Equal(t, "", receipt)

		_, err = c.Buy(context.Background(), "sku1")
		require.NoError(t, err)
	}

	require.Empty(t, b.CallsTo("getReceipt"))
}
