package platform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/bridge"
	"github.com/code-payments/inapppurchase/iap"
	"github.com/code-payments/inapppurchase/iap/android"
	"github.com/code-payments/inapppurchase/iap/ios"
	"github.com/code-payments/inapppurchase/iap/unsupported"
)

var ErrMissingBridge = errors.New("native platform requires a bridge")

// NewClient returns the iap.Client for p. The platform is chosen explicitly by
// the caller; nothing is detected at runtime. b may be nil only for
// iap.PlatformUnsupported.
func NewClient(log *zap.Logger, p iap.Platform, b bridge.Bridge) (iap.Client, error) {
	switch p {
	case iap.PlatformAndroid:
		if b == nil {
			return nil, ErrMissingBridge
		}
		return android.NewClient(log, bridge.NewAndroidAdapter(log, b)), nil
	case iap.PlatformIOS:
		if b == nil {
			return nil, ErrMissingBridge
		}
		return ios.NewClient(log, bridge.NewIOSAdapter(log, b)), nil
	case iap.PlatformUnsupported:
		return unsupported.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown platform: %s", p)
	}
}
