package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/inapppurchase/receipt"
)

// ValidReceiptFunc returns a receipt the verifier under test must accept.
type ValidReceiptFunc func() string

func RunGenericVerifierTests(t *testing.T, v receipt.Verifier, validReceiptFunc ValidReceiptFunc, teardown func()) {
	for _, testFunc := range []func(t *testing.T, v receipt.Verifier, validReceiptFunc ValidReceiptFunc){
		testValidReceipt,
		testInvalidReceipt,
	} {
		testFunc(t, v, validReceiptFunc)
		teardown()
	}
}

func testValidReceipt(t *testing.T, v receipt.Verifier, validReceiptFunc ValidReceiptFunc) {
	ctx := context.Background()
	validReceipt := validReceiptFunc()

	identifier, err := v.GetReceiptIdentifier(ctx, validReceipt)
	require.NoError(t, err)
	require.NotEmpty(t, identifier)

	again, err := v.GetReceiptIdentifier(ctx, validReceipt)
	require.NoError(t, err)
	require.Equal(t, identifier, again)

	valid, err := v.VerifyReceipt(ctx, validReceipt)
	require.NoError(t, err)
	require.True(t, valid, "expected receipt to be valid")
}

func testInvalidReceipt(t *testing.T, v receipt.Verifier, _ ValidReceiptFunc) {
	ctx := context.Background()

	// Just use the word "invalid" as an invalid receipt.
	for _, invalidReceipt := range []string{"invalid", "", "{}"} {
		valid, err := v.VerifyReceipt(ctx, invalidReceipt)
		require.NoError(t, err)
		require.False(t, valid, "expected %q to be invalid", invalidReceipt)
	}
}
