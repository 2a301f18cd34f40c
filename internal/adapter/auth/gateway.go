// Package auth implements the sign-in identity boundary against a token
// endpoint that returns an OpenID Connect id_token.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

const requestTimeout = 15 * time.Second

// Gateway exchanges a client ID for an identity token and exposes the
// signed-in identity. All failures are swallowed into the signed-out state;
// sign-in is a convenience, never a gate on playback.
type Gateway struct {
	logger     *slog.Logger
	eventBus   ports.EventBus
	tokenURL   string
	clientID   string
	httpClient *http.Client

	mu       sync.RWMutex
	identity *domain.Identity
}

// NewGateway creates an auth gateway. An empty tokenURL or clientID leaves
// sign-in permanently unavailable; SignIn is then a no-op.
func NewGateway(logger *slog.Logger, eventBus ports.EventBus, tokenURL, clientID string) *Gateway {
	return &Gateway{
		logger:   logger,
		eventBus: eventBus,
		tokenURL: tokenURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// tokenResponse is the token endpoint's response body.
type tokenResponse struct {
	IDToken string `json:"id_token"`
}

// idClaims are the id_token claims the player displays.
type idClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// SignIn requests an identity token and publishes the resulting identity.
// Any failure logs a warning and leaves the gateway signed out.
func (g *Gateway) SignIn(ctx context.Context) error {
	if g.tokenURL == "" || g.clientID == "" {
		g.logger.Debug("sign-in unavailable, no token endpoint configured")
		return nil
	}

	identity, err := g.fetchIdentity(ctx)
	if err != nil {
		g.logger.Warn("sign-in failed", slog.Any("error", err))
		return nil
	}

	g.mu.Lock()
	g.identity = identity
	g.mu.Unlock()

	g.logger.Info("signed in", slog.String("user", identity.DisplayName))
	g.eventBus.Publish(domain.NewAuthChangedEvent(identity))
	return nil
}

// SignOut clears the identity and publishes the signed-out state.
func (g *Gateway) SignOut() error {
	g.mu.Lock()
	wasSignedIn := g.identity != nil
	g.identity = nil
	g.mu.Unlock()

	if wasSignedIn {
		g.logger.Info("signed out")
		g.eventBus.Publish(domain.NewAuthChangedEvent(nil))
	}
	return nil
}

// Identity returns the current identity, or nil when signed out.
func (g *Gateway) Identity() *domain.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.identity == nil {
		return nil
	}
	identity := *g.identity
	return &identity
}

func (g *Gateway) fetchIdentity(ctx context.Context) (*domain.Identity, error) {
	form := url.Values{"client_id": {g.clientID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if token.IDToken == "" {
		return nil, fmt.Errorf("empty id_token")
	}

	return identityFromToken(token.IDToken)
}

// identityFromToken extracts display claims from the id_token. The token is
// parsed without signature verification: it travels over TLS straight from
// the provider and is used for display only, never authorization.
func identityFromToken(idToken string) (*domain.Identity, error) {
	var claims idClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("id_token missing subject")
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}

	return &domain.Identity{
		Subject:     claims.Subject,
		DisplayName: name,
		AvatarURL:   claims.Picture,
	}, nil
}

// Verify that Gateway implements the AuthGateway interface.
var _ ports.AuthGateway = (*Gateway)(nil)
