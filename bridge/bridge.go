package bridge

// Plugin namespaces of the native billing modules.
const (
	ServiceAndroid = "InAppBillingV3"
	ServiceIOS     = "PaymentsPlugin"
)

// Callback receives the JSON encoding of a native value. A nil payload means
// the native side completed without a value.
type Callback func(payload []byte)

// Bridge is the invocation primitive supplied by the host runtime and
// implemented on the native side.
//
// Exec must invoke exactly one of success or failure, exactly once. It may do
// so before returning or later from any goroutine.
type Bridge interface {
	Exec(success, failure Callback, service, action string, args []any)
}

// BridgeFunc adapts a function to the Bridge interface.
type BridgeFunc func(success, failure Callback, service, action string, args []any)

func (f BridgeFunc) Exec(success, failure Callback, service, action string, args []any) {
	f(success, failure, service, action, args)
}
