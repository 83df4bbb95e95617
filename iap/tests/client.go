package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/bridge/memory"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/validation"
)

// nativeActions covers every action either native module understands.
var nativeActions = []string{
	"init",
	"getSkuDetails",
	"getProducts",
	"buy",
	"subscribe",
	"consumePurchase",
	"restorePurchases",
	"getReceipt",
}

// RunClientTests runs the behaviour shared by every native iap.Client against
// c, whose bridge is b.
func RunClientTests(t *testing.T, c iap.Client, b *memory.Bridge, teardown func()) {
	for _, tf := range []func(t *testing.T, c iap.Client, b *memory.Bridge){
		testGetProducts_InvalidArgument,
		testBuy_InvalidArgument,
		testSubscribe_InvalidArgument,
		testNativeErrorCode,
		testNativeErrorWithoutCode,
		testRestorePurchases_Empty,
		testContextCanceled,
	} {
		tf(t, c, b)
		teardown()
	}
}

func testGetProducts_InvalidArgument(t *testing.T, c iap.Client, b *memory.Bridge) {
	for _, ids := range [][]string{nil, {}, {""}, {"com.test.prod1", ""}} {
		products, err := c.GetProducts(context.Background(), ids)
		require.ErrorIs(t, err, validation.ErrInvalidProductIDList)
		require.Equal(t, "invalid argument - productIds must be an array of strings", err.Error())
		require.Nil(t, products)
	}
	require.Empty(t, b.Calls())
}

func testBuy_InvalidArgument(t *testing.T, c iap.Client, b *memory.Bridge) {
	purchase, err := c.Buy(context.Background(), "")
	require.ErrorIs(t, err, validation.ErrInvalidProductID)
	require.Nil(t, purchase)
	require.Empty(t, b.Calls())
}

func testSubscribe_InvalidArgument(t *testing.T, c iap.Client, b *memory.Bridge) {
	purchase, err := c.Subscribe(context.Background(), "")
	require.ErrorIs(t, err, validation.ErrInvalidProductID)
	require.Nil(t, purchase)
	require.Empty(t, b.Calls())
}

func failAll(b *memory.Bridge, failure any) {
	for _, action := range nativeActions {
		b.Fail(action, failure)
	}
}

func testNativeErrorCode(t *testing.T, c iap.Client, b *memory.Bridge) {
	failAll(b, map[string]any{"code": -1, "message": "Billing cannot be initialized"})
	ctx := context.Background()

	requireCode := func(err error) {
		t.Helper()

		var nerr *bridge.NativeError
		require.ErrorAs(t, err, &nerr)
		require.Equal(t, "Billing cannot be initialized", nerr.Message)

		code, ok := bridge.ErrorCode(err)
		require.True(t, ok)
		require.Equal(t, -1, code)
	}

	_, err := c.GetProducts(ctx, []string{"com.test.prod1"})
	requireCode(err)

	_, err = c.Buy(ctx, "com.test.prod1")
	requireCode(err)

	_, err = c.Subscribe(ctx, "com.test.prod1")
	requireCode(err)

	_, err = c.RestorePurchases(ctx)
	requireCode(err)
}

func testNativeErrorWithoutCode(t *testing.T, c iap.Client, b *memory.Bridge) {
	failAll(b, "Error retrieving purchase details")

	_, err := c.RestorePurchases(context.Background())
	require.EqualError(t, err, "Error retrieving purchase details")

	_, ok := bridge.ErrorCode(err)
	require.False(t, ok)
}

func testRestorePurchases_Empty(t *testing.T, c iap.Client, b *memory.Bridge) {
	b.Succeed("init", nil)
	b.Succeed("restorePurchases", nil)

	restored, err := c.RestorePurchases(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	require.Empty(t, restored)
}

func testContextCanceled(t *testing.T, c iap.Client, b *memory.Bridge) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetProducts(ctx, []string{"com.test.prod1"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = c.RestorePurchases(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Empty(t, b.Calls())
}
