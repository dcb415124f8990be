package services

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/storage"
	"github.com/viajesoeste/apiserver/internal/store"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	client, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	return storage.NewStorage(client)
}

func newTestLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return logger, hook
}

type authFixture struct {
	users   *store.DocumentUserRepository
	tokens  *auth.TokenIssuer
	revoked *auth.MemoryRevocationRegistry
	service *AuthService
}

func newAuthFixture(t *testing.T, tokens *auth.TokenIssuer) authFixture {
	t.Helper()
	if tokens == nil {
		tokens = auth.NewTokenIssuer("test-secret", time.Hour)
	}
	users := store.NewDocumentUserRepository(newTestStorage(t))
	revoked := auth.NewMemoryRevocationRegistry()
	logger, _ := newTestLogger()
	return authFixture{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		service: NewAuthService(users, auth.NewBcryptHasher(4), tokens, revoked, logger),
	}
}

// requireKind asserts err is a service error of the given kind and returns it.
func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *services.Error, got %v", err)
	require.Equal(t, kind, svcErr.Kind, svcErr.Error())
	return svcErr
}
