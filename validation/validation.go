package validation

// Code identifies a validation failure raised before any native call.
type Code int

const (
	CodeInvalidProductIDList Code = 101
	CodeInvalidProductID     Code = 102
	CodeInvalidProductType   Code = 103
	CodeInvalidReceipt       Code = 104
	CodeInvalidSignature     Code = 105
	CodePlatformNotSupported Code = 106
)

var messages = map[Code]string{
	CodeInvalidProductIDList: "invalid argument - productIds must be an array of strings",
	CodeInvalidProductID:     "invalid argument - productId must be a string",
	CodeInvalidProductType:   "invalid argument - product type must be a string",
	CodeInvalidReceipt:       "invalid argument - receipt must be a string of a json",
	CodeInvalidSignature:     "invalid argument - signature must be a string",
	CodePlatformNotSupported: "platform not supported",
}

// Message returns the fixed human-readable message for the code, or an empty
// string for codes outside the table.
func (c Code) Message() string {
	return messages[c]
}

// Error is a validation failure. The package-level Err values are the only
// instances handed out, so callers can compare with errors.Is.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	return e.Code.Message()
}

var (
	ErrInvalidProductIDList = &Error{Code: CodeInvalidProductIDList}
	ErrInvalidProductID     = &Error{Code: CodeInvalidProductID}
	ErrInvalidProductType   = &Error{Code: CodeInvalidProductType}
	ErrInvalidReceipt       = &Error{Code: CodeInvalidReceipt}
	ErrInvalidSignature     = &Error{Code: CodeInvalidSignature}
	ErrPlatformNotSupported = &Error{Code: CodePlatformNotSupported}
)

// IsValidNonEmptyString reports whether val is a string of length >= 1.
func IsValidNonEmptyString(val any) bool {
	s, ok := val.(string)
	return ok && len(s) > 0
}

// IsValidProductIDList reports whether val is a non-empty list whose elements
// are all non-empty strings. Both []string and []any are accepted as lists.
func IsValidProductIDList(val any) bool {
	switch v := val.(type) {
	case []string:
		if len(v) == 0 {
			return false
		}
		for _, id := range v {
			if !IsValidNonEmptyString(id) {
				return false
			}
		}
		return true
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, id := range v {
			if !IsValidNonEmptyString(id) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
