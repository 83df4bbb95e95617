package android

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/option"

	iapandroid "github.com/code-payments/inapppurchase/iap/android"
	"github.com/code-payments/inapppurchase/receipt"
)

// PurchasesAPI is the subset of the Google Play Developer API used for
// verification.
type PurchasesAPI interface {
	GetProduct(ctx context.Context, packageName, productID, token string) (*androidpublisher.ProductPurchase, error)
	GetSubscription(ctx context.Context, packageName, subscriptionID, token string) (*androidpublisher.SubscriptionPurchase, error)
}

// Verifier uses the Google Play Developer API to verify Android receipts.
type Verifier struct {
	log *zap.Logger
	api PurchasesAPI

	// PackageName is the Android app's package name.
	packageName string

	products      map[string]struct{}
	subscriptions map[string]struct{}
}

// NewVerifier returns a Verifier accepting purchases of the given one-time
// products and subscriptions.
func NewVerifier(log *zap.Logger, api PurchasesAPI, pkgName string, products, subscriptions []string) receipt.Verifier {
	return &Verifier{
		log:           log,
		api:           api,
		packageName:   pkgName,
		products:      toSet(products),
		subscriptions: toSet(subscriptions),
	}
}

func (v *Verifier) VerifyReceipt(ctx context.Context, encodedReceipt string) (bool, error) {
	fields, err := iapandroid.ParseReceipt(encodedReceipt)
	if err != nil {
		// Malformed receipts are invalid, not a verification failure.
		return false, nil
	}

	log := v.log.With(
		zap.String("product_id", fields.ProductID),
		zap.String("order_id", fields.OrderID),
	)

	if fields.PurchaseToken == "" {
		return false, nil
	}
	if fields.PackageName != "" && fields.PackageName != v.packageName {
		log.Debug("Receipt is for another package", zap.String("package_name", fields.PackageName))
		return false, nil
	}

	if _, ok := v.subscriptions[fields.ProductID]; ok {
		sub, err := v.api.GetSubscription(ctx, v.packageName, fields.ProductID, fields.PurchaseToken)
		if err != nil {
			// If the API call fails (e.g., 404 purchase token not found), return false.
			log.Debug("Subscription lookup failed", zap.Error(err))
			return false, nil
		}

		// PaymentState: 0 pending, 1 received, 2 free trial, 3 deferred.
		if sub.PaymentState == nil || *sub.PaymentState == 0 {
			return false, nil
		}
		return sub.ExpiryTimeMillis > time.Now().UnixMilli(), nil
	}

	if _, ok := v.products[fields.ProductID]; !ok {
		log.Debug("Receipt is for an unknown product")
		return false, nil
	}

	purchase, err := v.api.GetProduct(ctx, v.packageName, fields.ProductID, fields.PurchaseToken)
	if err != nil {
		log.Debug("Product lookup failed", zap.Error(err))
		return false, nil
	}

	// 0 = purchased, anything else indicates a canceled or pending purchase.
	return purchase.PurchaseState == 0, nil
}

func (v *Verifier) GetReceiptIdentifier(_ context.Context, encodedReceipt string) ([]byte, error) {
	fields, err := iapandroid.ParseReceipt(encodedReceipt)
	if err != nil {
		return nil, err
	}
	if fields.PurchaseToken == "" {
		return nil, fmt.Errorf("receipt has no purchase token")
	}

	return []byte(fields.PurchaseToken), nil
}

// PlayAPI implements PurchasesAPI against the live Google Play Developer API.
// The service is created on first use.
type PlayAPI struct {
	serviceAccountJSON []byte

	mu  sync.Mutex
	svc *androidpublisher.Service
}

func NewPlayAPI(serviceAccountJSON []byte) *PlayAPI {
	return &PlayAPI{serviceAccountJSON: serviceAccountJSON}
}

func (p *PlayAPI) service(ctx context.Context) (*androidpublisher.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.svc != nil {
		return p.svc, nil
	}

	svc, err := androidpublisher.NewService(ctx,
		option.WithCredentialsJSON(p.serviceAccountJSON),
		option.WithScopes(androidpublisher.AndroidpublisherScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create android publisher client: %w", err)
	}
	p.svc = svc
	return svc, nil
}

func (p *PlayAPI) GetProduct(ctx context.Context, packageName, productID, token string) (*androidpublisher.ProductPurchase, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Purchases.Products.Get(packageName, productID, token).Context(ctx).Do()
}

func (p *PlayAPI) GetSubscription(ctx context.Context, packageName, subscriptionID, token string) (*androidpublisher.SubscriptionPurchase, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Purchases.Subscriptions.Get(packageName, subscriptionID, token).Context(ctx).Do()
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
