package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arelunainstituto/financeerp/internal/client/events"
	"github.com/arelunainstituto/financeerp/internal/client/session"
	"github.com/arelunainstituto/financeerp/internal/domain"
)

// recordingStore tracks Clear calls.
type recordingStore struct {
	mu     sync.Mutex
	record *session.Record
	clears int
}

func (s *recordingStore) Load(ctx context.Context) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, nil
}

func (s *recordingStore) Save(ctx context.Context, token string, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &session.Record{Token: token, Identity: identity}
	return nil
}

func (s *recordingStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	s.clears++
	return nil
}

func (s *recordingStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *recordingStore, *int) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	bus := events.NewBus()
	emits := 0
	bus.Subscribe(func() { emits++ })

	store := &recordingStore{}
	client := New(server.URL, 5*time.Second, bus, store, zap.NewNop())
	return client, store, &emits
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@x.com", req.Email)

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"user":  map[string]string{"id": "1", "email": "a@x.com"},
				"token": "T",
			},
		})
	}))

	token, identity, err := client.Login(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	require.Equal(t, "T", token)
	require.Equal(t, domain.Identity{UserID: "1", Email: "a@x.com"}, *identity)
}

func TestLogin_MalformedResponse(t *testing.T) {
	t.Parallel()

	bodies := []map[string]any{
		{"data": map[string]any{"token": "T"}},
		{"data": map[string]any{"user": map[string]string{"id": "1", "email": "a@x.com"}}},
		{"data": map[string]any{}},
	}

	for _, body := range bodies {
		body := body
		client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(body)
		}))

		_, _, err := client.Login(context.Background(), "a@x.com", "p")
		require.ErrorIs(t, err, ErrMalformedLoginResponse)
	}
}

func TestVerify_Valid(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user":  map[string]string{"id": "1", "email": "a@x.com"},
		})
	}))

	valid, identity, err := client.Verify(context.Background(), "T")
	require.NoError(t, err)
	require.True(t, valid)
	require.Equal(t, domain.Identity{UserID: "1", Email: "a@x.com"}, *identity)
}

func TestVerify_ServerDeclines(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"valid": false})
	}))

	valid, identity, err := client.Verify(context.Background(), "T")
	require.NoError(t, err)
	require.False(t, valid)
	require.Nil(t, identity)
}

func TestRejection_ClearsStoreAndEmits(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, store, emits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		require.NoError(t, store.Save(context.Background(), "T", domain.Identity{UserID: "1", Email: "a@x.com"}))

		_, _, err := client.Verify(context.Background(), "T")
		require.ErrorIs(t, err, ErrUnauthorized, "status %d", status)
		require.Equal(t, 1, store.clearCount(), "status %d", status)
		require.Equal(t, 1, *emits, "status %d", status)
	}
}

func TestMe_RejectionAlsoInvalidates(t *testing.T) {
	t.Parallel()

	client, store, emits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.Me(context.Background(), "expired")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 1, store.clearCount())
	require.Equal(t, 1, *emits)
}

func TestServerError_IsNetworkFault(t *testing.T) {
	t.Parallel()

	client, store, emits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, _, err := client.Verify(context.Background(), "T")
	require.ErrorIs(t, err, ErrNetwork)
	require.Zero(t, store.clearCount(), "non-auth failures must not clear the session")
	require.Zero(t, *emits)
}

func TestUnreachableServer_IsNetworkFault(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()
	store := &recordingStore{}
	client := New("http://127.0.0.1:1", time.Second, bus, store, zap.NewNop())

	_, _, err := client.Verify(context.Background(), "T")
	require.ErrorIs(t, err, ErrNetwork)
}
