package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/adapter/eventbus"
	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/testutil"
)

func mintIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestGateway(t *testing.T, tokenURL string) (*Gateway, *[]domain.Event) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() {
		_ = bus.Close()
	})

	var events []domain.Event
	bus.Subscribe(domain.EventAuthChanged, func(e domain.Event) {
		events = append(events, e)
	})

	return NewGateway(logger.NewTestLogger(), bus, tokenURL, "client-123"), &events
}

func TestGateway_SignInPublishesIdentity(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))

		idToken := mintIDToken(t, jwt.MapClaims{
			"sub":     "user-42",
			"name":    "Ada",
			"picture": "https://example.com/ada.png",
		})
		require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"id_token": idToken}))
	}))
	defer srv.Close()

	g, events := newTestGateway(t, srv.URL)

	require.NoError(t, g.SignIn(context.Background()))

	identity := g.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, "user-42", identity.Subject)
	assert.Equal(t, "Ada", identity.DisplayName)
	assert.Equal(t, "https://example.com/ada.png", identity.AvatarURL)

	require.Len(t, *events, 1)
	changed := (*events)[0].(domain.AuthChangedEvent)
	require.NotNil(t, changed.Identity)
	assert.Equal(t, "user-42", changed.Identity.Subject)
}

func TestGateway_SignInFailureStaysSignedOut(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	g, events := newTestGateway(t, srv.URL)

	require.NoError(t, g.SignIn(context.Background()))
	assert.Nil(t, g.Identity())
	assert.Empty(t, *events)
}

func TestGateway_SignInUnconfiguredIsNoOp(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	g, events := newTestGateway(t, "")

	require.NoError(t, g.SignIn(context.Background()))
	assert.Nil(t, g.Identity())
	assert.Empty(t, *events)
}

func TestGateway_SignOut(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idToken := mintIDToken(t, jwt.MapClaims{"sub": "user-42"})
		require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"id_token": idToken}))
	}))
	defer srv.Close()

	g, events := newTestGateway(t, srv.URL)

	require.NoError(t, g.SignIn(context.Background()))
	require.NotNil(t, g.Identity())

	require.NoError(t, g.SignOut())
	assert.Nil(t, g.Identity())

	require.Len(t, *events, 2)
	signedOut := (*events)[1].(domain.AuthChangedEvent)
	assert.Nil(t, signedOut.Identity)

	// Signing out while signed out publishes nothing.
	require.NoError(t, g.SignOut())
	assert.Len(t, *events, 2)
}

func TestIdentityFromToken_FallsBackToSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	identity, err := identityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", identity.DisplayName)

	_, err = identityFromToken("not-a-jwt")
	assert.Error(t, err)
}
