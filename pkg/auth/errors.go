package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a login flow failure.
type Kind int

const (
	// KindConfiguration means the provider is missing credentials or required settings.
	KindConfiguration Kind = iota + 1
	// KindProviderDenied means the provider redirected back with an error (consent declined, cancelled).
	KindProviderDenied
	// KindTokenExchange means the token endpoint rejected the authorization code.
	KindTokenExchange
	// KindInvalidProfile means the profile payload could not be normalized into a User.
	KindInvalidProfile
	// KindTransport covers network, HTTP status and decoding failures while talking to the provider.
	// These are not classified further and are never routed to OnError.
	KindTransport
)

// String returns the error taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindProviderDenied:
		return "ProviderDeniedError"
	case KindTokenExchange:
		return "TokenExchangeError"
	case KindInvalidProfile:
		return "InvalidProfileError"
	case KindTransport:
		return "UnhandledTransportError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// StatusCode is the HTTP status a failure of this kind maps to.
func (k Kind) StatusCode() int {
	switch k {
	case KindProviderDenied, KindTokenExchange:
		return http.StatusUnauthorized
	case KindInvalidProfile, KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// classified reports whether failures of this kind are routed through OnError.
func (k Kind) classified() bool {
	return k != KindTransport
}

// Predefined errors related to the OAuth process.
// Every *Error matches the sentinel of its kind with errors.Is.
var (
	// ErrMissingConfiguration indicates missing client credentials or provider settings.
	ErrMissingConfiguration = errors.New("missing oauth configuration")
	// ErrProviderDenied indicates the provider reported an error on the callback.
	ErrProviderDenied = errors.New("provider denied authorization")
	// ErrFailedToExchangeCode indicates an error occurred during the token exchange process.
	ErrFailedToExchangeCode = errors.New("failed to exchange code for token")
	// ErrInvalidProfile indicates the provider's profile payload is missing required fields.
	ErrInvalidProfile = errors.New("invalid user profile")
	// ErrFailedToGetUserInfo indicates an error occurred while talking to the provider.
	ErrFailedToGetUserInfo = errors.New("failed to get user info")
	// ErrUnknownProvider is returned when no descriptor is registered under a name.
	ErrUnknownProvider = errors.New("unknown oauth provider")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrMissingConfiguration
	case KindProviderDenied:
		return ErrProviderDenied
	case KindTokenExchange:
		return ErrFailedToExchangeCode
	case KindInvalidProfile:
		return ErrInvalidProfile
	default:
		return ErrFailedToGetUserInfo
	}
}

// Error is the structured failure produced by a login flow.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Message    string
	// Data is the diagnostic payload: the raw callback query for denials,
	// the raw token response for exchange failures.
	Data map[string]any
	// Err is the underlying cause, if any.
	Err error
}

func newError(kind Kind, provider, message string, data map[string]any, cause error) *Error {
	return &Error{
		Kind:       kind,
		Provider:   provider,
		StatusCode: kind.StatusCode(),
		Message:    message,
		Data:       data,
		Err:        cause,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// MarshalJSON renders the error the way the default responder sends it.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StatusCode    int            `json:"statusCode"`
		StatusMessage string         `json:"statusMessage"`
		Message       string         `json:"message"`
		Data          map[string]any `json:"data,omitempty"`
	}{
		StatusCode:    e.StatusCode,
		StatusMessage: e.Kind.String(),
		Message:       e.Message,
		Data:          e.Data,
	})
}

// AsError extracts the flow *Error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}

// ErrorResponder writes the final response for an error a FlowHandler could not hand off.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// WriteError is the default ErrorResponder. Flow errors keep their status and
// diagnostic payload; anything else becomes a generic 500.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	flowErr, ok := AsError(err)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"statusCode":500,"message":"internal server error"}` + "\n"))
		return
	}
	if flowErr.Kind == KindTransport {
		// Do not leak upstream bodies or addresses.
		flowErr = &Error{Kind: flowErr.Kind, StatusCode: flowErr.StatusCode, Message: flowErr.Message}
	}

	w.WriteHeader(flowErr.StatusCode)
	_ = json.NewEncoder(w).Encode(flowErr)
}
