package memory

import (
	"encoding/json"
	"sync"

	"github.com/code-payments/inapppurchase/bridge"
)

// Handler serves one native action. When failure is non-nil it is JSON
// encoded and delivered to the failure callback, otherwise result is encoded
// and delivered to the success callback. A nil result succeeds with no value.
type Handler func(args []any) (result any, failure any)

type Call struct {
	Service string
	Action  string
	Args    []any
}

// Bridge is an in-process bridge.Bridge whose native side is scripted per
// action. Every Exec is recorded.
type Bridge struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	async    bool
}

func NewBridge() *Bridge {
	return &Bridge{
		handlers: map[string]Handler{},
	}
}

// Reset drops all handlers and recorded calls.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = map[string]Handler{}
	b.calls = nil
}

// Handle registers h for action, replacing any previous handler.
func (b *Bridge) Handle(action string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[action] = h
}

// Succeed makes action always succeed with result.
func (b *Bridge) Succeed(action string, result any) {
	b.Handle(action, func(_ []any) (any, any) {
		return result, nil
	})
}

// Fail makes action always fail with failure.
func (b *Bridge) Fail(action string, failure any) {
	b.Handle(action, func(_ []any) (any, any) {
		return nil, failure
	})
}

// SetAsync controls whether callbacks are delivered from a separate goroutine
// instead of before Exec returns.
func (b *Bridge) SetAsync(async bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.async = async
}

// Calls returns every recorded Exec, in dispatch order.
func (b *Bridge) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Call(nil), b.calls...)
}

// CallsTo returns the recorded Execs of action, in dispatch order.
func (b *Bridge) CallsTo(action string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var calls []Call
	for _, c := range b.calls {
		if c.Action == action {
			calls = append(calls, c)
		}
	}
	return calls
}

// Actions returns the recorded action names, in dispatch order.
func (b *Bridge) Actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	actions := make([]string, len(b.calls))
	for i, c := range b.calls {
		actions[i] = c.Action
	}
	return actions
}

func (b *Bridge) Exec(success, failure bridge.Callback, service, action string, args []any) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Service: service,
		Action:  action,
		Args:    append([]any(nil), args...),
	})
	h, ok := b.handlers[action]
	async := b.async
	b.mu.Unlock()

	deliver := func() {
		if !ok {
			failure(mustEncode(map[string]any{"message": "Invalid action: " + action}))
			return
		}

		result, fail := h(args)
		if fail != nil {
			failure(mustEncode(fail))
			return
		}
		if result == nil {
			success(nil)
			return
		}

		payload, err := json.Marshal(result)
		if err != nil {
			failure(mustEncode(map[string]any{"message": err.Error()}))
			return
		}
		success(payload)
	}

	if async {
		go deliver()
	} else {
		deliver()
	}
}

func mustEncode(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}
