package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/bridge/memory"
	"github.com/code-payments/inapppurchase/config"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/iap/platform"
	"github.com/code-payments/inapppurchase/receipt"
	receiptandroid "github.com/code-payments/inapppurchase/receipt/android"
	receiptapple "github.com/code-payments/inapppurchase/receipt/apple"
	"github.com/code-payments/inapppurchase/validation"
)

const usage = `usage: iap <command> [args]

commands:
  products <id...>                      fetch product details
  buy <id>                              buy a product
  subscribe <id>                        subscribe to a product
  consume <type> <receipt> <signature>  consume a purchase (android)
  restore                               restore purchases
  receipt                               fetch the application receipt (ios)
  verify <receipt>                      verify a receipt with the store`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	var b bridge.Bridge
	if cfg.Platform != iap.PlatformUnsupported {
		fixture, err := memory.LoadFixtureFile(cfg.Fixtures)
		if err != nil {
			logger.Fatal("Failed to load fixtures", zap.Error(err), zap.String("path", cfg.Fixtures))
		}
		b = memory.NewBridgeFromFixture(fixture)
	}

	client, err := platform.NewClient(logger, cfg.Platform, b)
	if err != nil {
		logger.Fatal("Failed to create client", zap.Error(err))
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var result any
	switch cmd {
	case "products":
		result, err = client.GetProducts(ctx, args)
	case "buy":
		result, err = client.Buy(ctx, arg(args, 0))
	case "subscribe":
		result, err = client.Subscribe(ctx, arg(args, 0))
	case "consume":
		result, err = client.Consume(ctx, arg(args, 0), arg(args, 1), arg(args, 2))
	case "restore":
		result, err = client.RestorePurchases(ctx)
	case "receipt":
		result, err = client.GetReceipt(ctx)
	case "verify":
		result, err = verify(ctx, logger, cfg, arg(args, 0))
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printJSON(result)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

type verifyResult struct {
	Valid      bool   `json:"valid"`
	Identifier string `json:"identifier,omitempty"`
}

func verify(ctx context.Context, logger *zap.Logger, cfg *config.Config, r string) (*verifyResult, error) {
	var verifier receipt.Verifier
	switch cfg.Platform {
	case iap.PlatformAndroid:
		if cfg.Play.ServiceAccountFile == "" {
			return nil, fmt.Errorf("PLAY_SERVICE_ACCOUNT_FILE is not set")
		}
		serviceAccount, err := os.ReadFile(cfg.Play.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account: %w", err)
		}
		verifier = receiptandroid.NewVerifier(
			logger,
			receiptandroid.NewPlayAPI(serviceAccount),
			cfg.Play.PackageName,
			cfg.Play.Products,
			cfg.Play.Subscriptions,
		)
	case iap.PlatformIOS:
		if cfg.AppStore.BundleID == "" {
			return nil, fmt.Errorf("APPSTORE_BUNDLE_ID is not set")
		}
		verifier = receiptapple.NewVerifier(logger, cfg.AppStore.BundleID, cfg.AppStore.Products)
	default:
		return nil, validation.ErrPlatformNotSupported
	}

	valid, err := verifier.VerifyReceipt(ctx, r)
	if err != nil {
		return nil, err
	}
	if !valid {
		return &verifyResult{}, nil
	}

	id, err := verifier.GetReceiptIdentifier(ctx, r)
	if err != nil {
		return nil, err
	}
	return &verifyResult{Valid: true, Identifier: base58.Encode(id)}, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal("Failed to encode result:", err)
	}
}

func printError(err error) {
	out := map[string]any{"message": err.Error()}
	if code, ok := bridge.ErrorCode(err); ok {
		out["errorCode"] = code
	}
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
