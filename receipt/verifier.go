package receipt

import "context"

// Verifier checks, server side, the receipts that iap.Client hands out.
type Verifier interface {

	// VerifyReceipt takes a receipt as returned in iap.Purchase.Receipt (a
	// JSON document on Android, a base64 PKCS#7 blob on iOS) and reports
	// whether it is a valid, completed purchase of an accepted product.
	VerifyReceipt(ctx context.Context, receipt string) (bool, error)

	// GetReceiptIdentifier returns a stable identifier for the purchase the
	// receipt proves, suitable for deduplication.
	GetReceiptIdentifier(ctx context.Context, receipt string) ([]byte, error)
}
