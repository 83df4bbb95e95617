package apple

import (
	"context"

	"github.com/devsisters/go-applereceipt"
	"github.com/devsisters/go-applereceipt/applepki"
	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/receipt"
)

// Verifier decodes App Store receipts locally, checking the PKCS#7 signature
// against Apple's root certificates.
type Verifier struct {
	log *zap.Logger

	// BundleID is the app's bundle identifier, e.g. "com.example.app".
	bundleID string

	// Products are the product identifiers a receipt may prove.
	products map[string]struct{}
}

func NewVerifier(log *zap.Logger, bundleID string, products []string) receipt.Verifier {
	set := make(map[string]struct{}, len(products))
	for _, p := range products {
		set[p] = struct{}{}
	}

	return &Verifier{
		log:      log,
		bundleID: bundleID,
		products: set,
	}
}

func (v *Verifier) VerifyReceipt(ctx context.Context, encodedReceipt string) (bool, error) {
	decoded, err := applereceipt.DecodeBase64(encodedReceipt, applepki.CertPool())
	if err != nil {
		// Not returning an error here, an undecodable receipt is simply invalid.
		v.log.Debug("Failed to decode receipt", zap.Error(err))
		return false, nil
	}

	if decoded.BundleIdentifier != v.bundleID {
		v.log.Debug("Receipt is for another bundle", zap.String("bundle_id", decoded.BundleIdentifier))
		return false, nil
	}

	for _, iap := range decoded.InAppPurchaseReceipts {
		if _, ok := v.products[iap.ProductIdentifier]; ok {
			return true, nil
		}
	}

	return false, nil
}

func (v *Verifier) GetReceiptIdentifier(ctx context.Context, encodedReceipt string) ([]byte, error) {
	decoded, err := applereceipt.DecodeBase64(encodedReceipt, applepki.CertPool())
	if err != nil {
		return nil, err
	}

	return decoded.SHA1Hash, nil
}
