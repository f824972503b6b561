package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

const testSecret = "test-secret-0123456789abcdef0123"

// memUsers - таблица users в памяти для сквозной проверки токен → пользователь.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	creates int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.New()
	m.byID[user.ID] = user
	m.creates++
	return nil
}

func (m *memUsers) Provision(_ context.Context, user *models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byID[user.ID]; ok {
		*user = *existing
		return false, nil
	}
	for _, u := range m.byID {
		if u.Email == user.Email {
			return false, repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[user.ID] = &stored
	m.creates++
	return true, nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) List(context.Context, models.ListFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (m *memUsers) SetSuspension(context.Context, uuid.UUID, bool, *string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func providerToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func getMe(r http.Handler, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	return w
}

func TestCallerMiddleware_ProvisionsUnknownStudent(t *testing.T) {
	users := newMemUsers()
	r := newProtectedRouter(service.NewTokenManager(testSecret, time.Hour), service.NewUserService(users, nil, nil))
	sub := uuid.New()
	token := providerToken(t, jwt.MapClaims{
		"sub":   sub.String(),
		"role":  "STUDENT",
		"name":  "Мария",
		"email": "maria@example.com",
	})

	w := getMe(r, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, sub.String(), body["id"])
	assert.Equal(t, "STUDENT", body["role"])

	stored, err := users.GetByID(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", stored.Email)
	assert.Equal(t, "Мария", stored.Name)

	// Повторный запрос не создаёт вторую запись.
	require.Equal(t, http.StatusOK, getMe(r, token).Code)
	assert.Equal(t, 1, users.creates)
}

func TestCallerMiddleware_ProvisioningRefusals(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"admin claim", jwt.MapClaims{"role": "ADMIN", "email": "boss@example.com"}},
		{"missing email", jwt.MapClaims{"role": "STUDENT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newMemUsers()
			r := newProtectedRouter(service.NewTokenManager(testSecret, time.Hour), service.NewUserService(users, nil, nil))
			tc.claims["sub"] = uuid.NewString()

			w := getMe(r, providerToken(t, tc.claims))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Zero(t, users.creates)
		})
	}
}
