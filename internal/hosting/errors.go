package hosting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind tags a hosting failure.
type Kind int

const (
	// KindNetwork covers transport failures, non-2xx responses without a
	// server detail, and undecodable bodies.
	KindNetwork Kind = iota + 1
	// KindValidation is a failure the server (or the client-side upload
	// checks) explained with a message meant for the user.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var herr *Error
	if errors.As(err, &herr) {
		return herr, true
	}
	return nil, false
}

// Detail returns the user-facing message of a validation failure.
// It reports false for network failures and foreign errors.
func Detail(err error) (string, bool) {
	herr, ok := AsError(err)
	if !ok || herr.Kind != KindValidation || herr.Message == "" {
		return "", false
	}
	return herr.Message, true
}

// MessageOr returns the validation detail of err, or fallback.
func MessageOr(err error, fallback string) string {
	if msg, ok := Detail(err); ok {
		return msg
	}
	return fallback
}

func networkError(status int, message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Status: status, Message: message, Err: cause}
}

func validationError(status int, message string) *Error {
	return &Error{Kind: KindValidation, Status: status, Message: message}
}

// detailMessage turns a {"detail": ...} payload into text. The backend sends
// either a string or a list of {loc, msg} objects for schema violations.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Msg == "" {
			continue
		}
		if field := lastLoc(item.Loc); field != "" {
			msgs = append(msgs, field+": "+item.Msg)
		} else {
			msgs = append(msgs, item.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
