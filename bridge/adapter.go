package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/code-payments/inapppurchase/validation"
)

// Adapter turns one native action into a blocking request/response call.
//
// Invoke resolves exactly once per call. Failures reported by the native side
// are returned as *NativeError. There is no cancellation: once dispatched, the
// native action runs to completion. If ctx ends first Invoke returns ctx.Err()
// and the eventual native outcome is discarded. Invoke sets no timeout of its
// own.
type Adapter interface {
	Invoke(ctx context.Context, action string, args ...any) (json.RawMessage, error)
}

type NativeAdapter struct {
	log     *zap.Logger
	bridge  Bridge
	service string
}

func NewNativeAdapter(log *zap.Logger, bridge Bridge, service string) *NativeAdapter {
	return &NativeAdapter{
		log:     log,
		bridge:  bridge,
		service: service,
	}
}

func NewAndroidAdapter(log *zap.Logger, bridge Bridge) Adapter {
	return NewNativeAdapter(log, bridge, ServiceAndroid)
}

func NewIOSAdapter(log *zap.Logger, bridge Bridge) Adapter {
	return NewNativeAdapter(log, bridge, ServiceIOS)
}

type outcome struct {
	payload json.RawMessage
	err     error
}

func (a *NativeAdapter) Invoke(ctx context.Context, action string, args ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}

	log := a.log.With(
		zap.String("service", a.service),
		zap.String("action", action),
		zap.String("call_id", uuid.NewString()),
	)

	done := make(chan outcome, 1)
	var once sync.Once
	settle := func(callback string, o outcome) {
		settled := false
		once.Do(func() {
			done <- o
			settled = true
		})
		if !settled {
			log.Warn("Bridge invoked more than one callback, dropping", zap.String("callback", callback))
		}
	}

	log.Debug("Dispatching native action", zap.Int("num_args", len(args)))

	a.bridge.Exec(
		func(payload []byte) {
			settle("success", outcome{payload: normalizePayload(payload)})
		},
		func(payload []byte) {
			settle("failure", outcome{err: newNativeError(payload)})
		},
		a.service,
		action,
		args,
	)

	select {
	case o := <-done:
		if o.err != nil {
			log.Debug("Native action failed", zap.Error(o.err))
			return nil, o.err
		}
		log.Debug("Native action succeeded")
		return o.payload, nil
	case <-ctx.Done():
		log.Debug("Stopped waiting for native action", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

// normalizePayload copies payload out of the bridge's buffer. JSON null is
// treated the same as no value.
func normalizePayload(payload []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return append(json.RawMessage(nil), trimmed...)
}

type unsupportedAdapter struct{}

// NewUnsupportedAdapter returns the adapter used when no native billing module
// is present. Every invocation fails with validation.ErrPlatformNotSupported.
func NewUnsupportedAdapter() Adapter {
	return unsupportedAdapter{}
}

func (unsupportedAdapter) Invoke(_ context.Context, _ string, _ ...any) (json.RawMessage, error) {
	return nil, validation.ErrPlatformNotSupported
}
