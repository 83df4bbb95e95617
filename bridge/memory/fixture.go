package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture scripts a Bridge from YAML:
//
//	catalog:
//	  - productId: com.example.coins
//	    title: Coins
//	    price: "$0.99"
//	actions:
//	  init: {}
//	  buy:
//	    result: {productId: com.example.coins, purchaseToken: tok}
//	  restorePurchases:
//	    error: {code: 6, message: Billing unavailable}
//
// Catalog entries answer getSkuDetails and getProducts lookups by productId,
// in request order. Actions answer with a fixed result or error.
type Fixture struct {
	Catalog []map[string]any         `yaml:"catalog"`
	Actions map[string]FixtureAction `yaml:"actions"`
}

type FixtureAction struct {
	Result any `yaml:"result"`
	Error  any `yaml:"error"`
}

func LoadFixtureFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// NewBridgeFromFixture returns a Bridge scripted by f.
func NewBridgeFromFixture(f *Fixture) *Bridge {
	b := NewBridge()

	if f.Catalog != nil {
		b.Handle("getSkuDetails", func(args []any) (any, any) {
			return f.lookup(args), nil
		})
		b.Handle("getProducts", func(args []any) (any, any) {
			var ids []any
			if len(args) > 0 {
				ids, _ = args[0].([]any)
				if strs, ok := args[0].([]string); ok {
					for _, id := range strs {
						ids = append(ids, id)
					}
				}
			}
			return map[string]any{"products": f.lookup(ids)}, nil
		})
	}

	for action, a := range f.Actions {
		a := a
		b.Handle(action, func(_ []any) (any, any) {
			return a.Result, a.Error
		})
	}

	return b
}

func (f *Fixture) lookup(ids []any) []map[string]any {
	products := []map[string]any{}
	for _, id := range ids {
		for _, p := range f.Catalog {
			if p["productId"] == id {
				products = append(products, p)
				break
			}
		}
	}
	return products
}
