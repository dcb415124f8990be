package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/github"
	"github.com/viajesoeste/apiserver/internal/services"
	"github.com/viajesoeste/apiserver/internal/storage"
	"github.com/viajesoeste/apiserver/internal/store"
)

type testAPI struct {
	router  http.Handler
	users   *store.DocumentUserRepository
	tokens  *auth.TokenIssuer
	authSvc *services.AuthService
	hook    *test.Hook
}

type apiOption func(*apiOptions)

type apiOptions struct {
	tokens     *auth.TokenIssuer
	github     github.Config
	rateLimit  int
	limiterCtx context.Context
}

func withTokens(tokens *auth.TokenIssuer) apiOption {
	return func(o *apiOptions) { o.tokens = tokens }
}

func withGitHub(cfg github.Config) apiOption {
	return func(o *apiOptions) { o.github = cfg }
}

func withRateLimit(ctx context.Context, perMinute int) apiOption {
	return func(o *apiOptions) {
		o.limiterCtx = ctx
		o.rateLimit = perMinute
	}
}

// newTestAPI assembles the routes over document stores in a temp directory.
func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	o := apiOptions{tokens: auth.NewTokenIssuer("test-secret", time.Hour)}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	blobs := storage.NewStorage(client)

	logger, hook := test.NewNullLogger()
	users := store.NewDocumentUserRepository(blobs)
	travelRequests := store.NewDocumentTravelRequestRepository(blobs)

	authSvc := services.NewAuthService(users, auth.NewBcryptHasher(4), o.tokens, auth.NewMemoryRevocationRegistry(), logger)
	githubSvc := services.NewGitHubAuthService(github.NewClient(o.github), users, services.NewEmailMatchLinker(users), o.tokens, logger)
	travelSvc := services.NewTravelRequestService(travelRequests, logger)

	router := chi.NewRouter()
	router.NotFound(NotFound)
	router.With(OptionalAuth(authSvc)).Get("/api/health", Health)
	router.Route("/api/auth", func(r chi.Router) {
		if o.rateLimit > 0 {
			r.Use(NewRateLimiter(o.limiterCtx, o.rateLimit).Middleware)
		}
		AuthRouter(r, authSvc, githubSvc, logger)
	})
	router.Route("/api/travel-requests", func(r chi.Router) {
		TravelRequestRouter(r, travelSvc, RequireAuth(authSvc, logger), logger)
	})

	return &testAPI{
		router:  router,
		users:   users,
		tokens:  o.tokens,
		authSvc: authSvc,
		hook:    hook,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			payload.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&payload).Encode(v))
		}
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token.
func (a *testAPI) register(t *testing.T, email, password string) RegisterResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", CredentialsRequest{Email: email, Password: password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[RegisterResponse](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
