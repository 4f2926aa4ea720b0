package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// User represents a standardized user profile obtained after successful OAuth authentication.
// Fields are populated based on the information available from the specific provider;
// anything the provider does not return stays empty.
type User struct {
	ID          string `json:"id"`                    // Provider's stable user identifier
	Name        string `json:"name,omitempty"`        // Full name, or the best available name
	Email       string `json:"email,omitempty"`       // Email address (if available and scope granted)
	Avatar      string `json:"avatar,omitempty"`      // URL to the user's profile picture
	DisplayName string `json:"displayName,omitempty"` // Provider specific display name or nickname
	Username    string `json:"username,omitempty"`    // Login or handle, where the provider has one
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

// Tokens is the token endpoint response. The typed fields are extracted from
// Raw, which keeps every field the provider returned.
type Tokens struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Scope        string
	IDToken      string
	ExpiresIn    int64 // seconds; 0 if the provider did not say
	Raw          map[string]any
}

// MarshalJSON encodes the raw provider response unchanged.
func (t *Tokens) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw)
}

// OAuth2 converts the response to an *oauth2.Token. Provider specific fields
// are available through Token.Extra.
func (t *Tokens) OAuth2() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok.WithExtra(t.Raw)
}

// Result is what a successful login hands to OnSuccess.
type Result struct {
	Provider string  `json:"provider"`
	User     *User   `json:"user"`
	Tokens   *Tokens `json:"tokens"`
}

// OAuthConfig holds the process-wide configuration shared by every flow handler.
type OAuthConfig struct {
	// Providers is the runtime configuration keyed by provider name. It sits
	// between the call-site config and the provider defaults in precedence.
	Providers map[string]ProviderConfig

	// HTTPClient is the base client for token and profile calls.
	// Defaults to a client with HTTPTimeout.
	HTTPClient *http.Client
	// HTTPTimeout bounds each outbound call. Default 10s.
	HTTPTimeout time.Duration

	// TrustForwardedHeaders derives the redirect URI from X-Forwarded-Proto and
	// X-Forwarded-Host. Only enable behind a proxy that sets them.
	TrustForwardedHeaders bool

	// Metrics records flow outcomes. Optional.
	Metrics *Metrics

	// ErrorResponder renders errors returned from FlowHandler.Handle when the
	// handler is used as an http.Handler. Defaults to WriteError.
	ErrorResponder ErrorResponder

	// TraceIdKey is the key used to extract the trace ID from the context for logging
	// when no log enricher is given.
	TraceIdKey string
}

// OAuthHandler owns the provider table and the runtime configuration, and
// builds a FlowHandler per provider.
type OAuthHandler struct {
	logger      *zap.Logger                                               // Shared logger instance.
	logEnricher func(ctx context.Context, logger *zap.Logger) *zap.Logger // Function to enrich logs with trace ID.
	httpClient  *http.Client
	timeout     time.Duration

	mu        sync.RWMutex
	providers map[string]*Provider

	config OAuthConfig // Stores the initial configuration.
}

// NewOAuthHandler creates and initializes a new OAuthHandler instance.
// It requires a zap logger and an OAuthConfig configuration.
// Returns nil if the provided config is nil.
func NewOAuthHandler(
	logger *zap.Logger,
	logEnricher func(ctx context.Context, logger *zap.Logger) *zap.Logger,
	config *OAuthConfig,
) *OAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		logger.Error("OAuth config is nil")
		return nil
	}

	handler := &OAuthHandler{
		logger:      logger.Named("oauth"),
		logEnricher: logEnricher,
		providers:   builtinProviders(),
		config:      *config,
	}
	if handler.logEnricher == nil {
		traceKey := config.TraceIdKey
		handler.logEnricher = func(ctx context.Context, l *zap.Logger) *zap.Logger {
			return withTraceID(ctx, l, traceKey)
		}
	}

	handler.timeout = config.HTTPTimeout
	if handler.timeout <= 0 {
		handler.timeout = 10 * time.Second
	}
	handler.httpClient = config.HTTPClient
	if handler.httpClient == nil {
		handler.httpClient = &http.Client{Timeout: handler.timeout}
	}
	if handler.config.ErrorResponder == nil {
		handler.config.ErrorResponder = WriteError
	}

	handler.registerOAuthProviders(context.Background())
	return handler
}

// registerOAuthProviders logs which runtime provider entries are usable.
// Entries for unknown providers or without credentials are reported, not rejected:
// call-site config may still complete them.
func (h *OAuthHandler) registerOAuthProviders(ctx context.Context) {
	logger := h.logEnricher(ctx, h.logger).Named("registration")

	names := make([]string, 0, len(h.config.Providers))
	for name := range h.config.Providers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cfg := h.config.Providers[name]
		if _, ok := h.providers[name]; !ok {
			logger.Warn("OAuth config for unknown provider ignored", zap.String("provider", name))
			continue
		}
		if !cfg.HasCredentials() {
			logger.Info("OAuth provider configured without credentials", zap.String("provider", name))
			continue
		}
		logger.Info("OAuth provider registered", zap.String("provider", name))
	}
}

// Register adds or replaces a provider descriptor.
func (h *OAuthHandler) Register(p *Provider) error {
	if err := p.validate(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers[p.Name] = p
	h.logger.Named("registration").Info("OAuth provider descriptor registered", zap.String("provider", p.Name))
	return nil
}

// Provider returns the descriptor registered under name.
func (h *OAuthHandler) Provider(name string) (*Provider, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.providers[name]
	return p, ok
}

// ProviderNames lists the registered provider names in sorted order.
func (h *OAuthHandler) ProviderNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Configured lists the providers whose runtime config carries credentials.
func (h *OAuthHandler) Configured() []string {
	var names []string
	for _, name := range h.ProviderNames() {
		if h.config.Providers[name].HasCredentials() {
			names = append(names, name)
		}
	}
	return names
}

// Handler builds the flow handler for one provider. OnSuccess is required.
func (h *OAuthHandler) Handler(provider string, hc HandlerConfig) (*FlowHandler, error) {
	p, ok := h.Provider(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if hc.OnSuccess == nil {
		return nil, errors.New("OnSuccess continuation is required")
	}
	return &FlowHandler{
		provider:  p,
		callSite:  hc.Config,
		runtime:   h.config.Providers[provider],
		onSuccess: hc.OnSuccess,
		onError:   hc.OnError,
		parent:    h,
	}, nil
}

// Stop performs any cleanup needed for the OAuthHandler
func (h *OAuthHandler) Stop() {
	h.httpClient.CloseIdleConnections()
	h.logger.Info("OAuthHandler stopped.")
}

// withTraceID adds the trace ID stored in ctx under key, if any.
func withTraceID(ctx context.Context, logger *zap.Logger, key string) *zap.Logger {
	if key == "" || ctx == nil {
		return logger
	}
	if traceID, ok := ctx.Value(key).(string); ok && traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
