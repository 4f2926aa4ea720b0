package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// SuccessFunc receives the normalized user and raw tokens and writes the final
// response. Its error is returned from FlowHandler.Handle unchanged.
type SuccessFunc func(w http.ResponseWriter, r *http.Request, result *Result) error

// ErrorFunc receives classified flow failures and writes the final response.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err *Error) error

// HandlerConfig is the call-site part of a flow handler.
type HandlerConfig struct {
	// Config has the highest precedence when merged with the runtime config
	// and the provider defaults.
	Config    ProviderConfig
	OnSuccess SuccessFunc
	// OnError is optional. Without it, classified errors are returned from Handle.
	OnError ErrorFunc
}

// FlowHandler runs the authorization code flow for one provider. The same
// handler serves both legs: the first request redirects to the provider, the
// callback carries the code. It keeps no state between requests.
type FlowHandler struct {
	provider  *Provider
	callSite  ProviderConfig
	runtime   ProviderConfig
	onSuccess SuccessFunc
	onError   ErrorFunc
	parent    *OAuthHandler
}

// Flow outcomes, used as the metrics outcome label.
const (
	outcomeRedirect = "redirect"
	outcomeSuccess  = "success"
)

// ServeHTTP adapts Handle to net/http. Errors Handle returns are rendered by
// the configured ErrorResponder, unless a continuation already wrote the
// response; those errors are only logged.
func (f *FlowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	err := f.Handle(ww, r)
	if err == nil {
		return
	}
	if ww.Status() != 0 || ww.BytesWritten() > 0 {
		f.parent.logEnricher(r.Context(), f.parent.logger).Named(f.provider.Name+"_login").
			Error("Error returned after the response was written", zap.Error(err))
		return
	}
	f.parent.config.ErrorResponder(w, r, err)
}

// Handle executes one step of the flow for r and resolves to exactly one of:
// a redirect to the provider, the OnSuccess result, the OnError result, or a
// returned error for the host to handle.
func (f *FlowHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	start := time.Now()
	logger := f.parent.logEnricher(ctx, f.parent.logger).
		Named(f.provider.Name + "_login").
		With(zap.String("flow_id", uuid.NewString()))

	cfg, endpoints, cfgErr := resolveConfig(f.provider, f.callSite, f.runtime)
	if cfgErr != nil {
		logger.Error("OAuth configuration invalid", zap.Error(cfgErr))
		return f.fail(w, r, logger, start, cfgErr)
	}

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		deniedErr := newError(KindProviderDenied, f.provider.Name,
			f.provider.Title+" login failed: "+errParam, queryData(query), nil)
		logger.Warn("Provider denied authorization", zap.String("error", errParam))
		return f.fail(w, r, logger, start, deniedErr)
	}

	redirectURL := cfg.RedirectURL
	if redirectURL == "" {
		redirectURL = redirectURI(r, f.parent.config.TrustForwardedHeaders)
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       cfg.scopes(f.provider),
		Endpoint:     endpoints.Endpoint,
	}

	code := query.Get("code")
	if code == "" {
		authURL := oauthConfig.AuthCodeURL("", f.authParams(cfg)...)
		logger.Info("Redirecting to provider", zap.String("redirect_uri", redirectURL))
		http.Redirect(w, r, authURL, http.StatusFound)
		f.parent.config.Metrics.observe(f.provider.Name, outcomeRedirect, time.Since(start))
		return nil
	}

	tokens, exchangeErr := f.exchangeCode(ctx, cfg, code, redirectURL)
	if exchangeErr != nil {
		logger.Error("Failed to exchange code for token", zap.Error(exchangeErr))
		return f.fail(w, r, logger, start, exchangeErr)
	}

	// A static source: the profile call uses exactly the exchanged token, never a refreshed one.
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, f.parent.httpClient), oauth2.StaticTokenSource(tokens.OAuth2()))
	client.Timeout = f.parent.timeout

	user, err := f.provider.FetchProfile(ctx, &ProfileRequest{Client: client, Config: cfg, Tokens: tokens, Logger: logger})
	if err != nil {
		var profileErr *Error
		if errors.Is(err, ErrInvalidProfile) {
			profileErr = newError(KindInvalidProfile, f.provider.Name,
				f.provider.Title+" returned an unusable profile", nil, err)
		} else {
			profileErr = f.transportError("failed to get "+f.provider.Title+" user info", err)
		}
		logger.Error("Failed to get user info", zap.Error(err))
		return f.fail(w, r, logger, start, profileErr)
	}

	logger.Info("Login successful", zap.String("user_id", user.ID))
	f.parent.config.Metrics.observe(f.provider.Name, outcomeSuccess, time.Since(start))
	return f.onSuccess(w, r, &Result{Provider: f.provider.Name, User: user, Tokens: tokens})
}

// authParams builds the fixed authorization parameters on top of the provider
// and configured extras. prompt=consent always wins.
func (f *FlowHandler) authParams(cfg ProviderConfig) []oauth2.AuthCodeOption {
	params := make(map[string]string, len(f.provider.AuthParams)+len(cfg.AuthorizationParams)+2)
	for k, v := range f.provider.AuthParams {
		params[k] = v
	}
	for k, v := range cfg.AuthorizationParams {
		params[k] = v
	}
	if cfg.Audience != "" {
		params["audience"] = cfg.Audience
	}
	params["prompt"] = "consent"

	opts := make([]oauth2.AuthCodeOption, 0, len(params))
	for k, v := range params {
		switch k {
		case "client_id", "redirect_uri", "response_type", "scope", "state":
			// Owned by the flow.
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// fail routes a flow error: classified errors go to OnError when present,
// everything else is returned to the host.
func (f *FlowHandler) fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, start time.Time, err *Error) error {
	f.parent.config.Metrics.observe(f.provider.Name, err.Kind.String(), time.Since(start))
	if f.onError == nil || !err.Kind.classified() {
		return err
	}
	logger.Debug("Handing error to OnError", zap.Stringer("kind", err.Kind))
	return f.onError(w, r, err)
}

func (f *FlowHandler) transportError(message string, cause error) *Error {
	return newError(KindTransport, f.provider.Name, message, nil, cause)
}
