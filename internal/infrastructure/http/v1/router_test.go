package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingua/internal/core/apperror"
	"lingua/internal/core/kv/kvtest"
	"lingua/internal/core/tenant"
	"lingua/internal/domain/locale"
	"lingua/internal/infrastructure/http/v1/dto"
	"lingua/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeTenants map[string]*tenant.Tenant

func (f fakeTenants) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := f[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

type routerOption func(*RouterConfig)

func newTestRouter(t *testing.T, opts ...routerOption) (*gin.Engine, *kvtest.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := kvtest.New()
	cfg := RouterConfig{
		Store:     store,
		Table:     "i18n",
		KeyScheme: locale.TenantScoped,
		Health:    pingFunc(func(context.Context) error { return nil }),
		Driver:    "memory",
		Logger:    logger.Nop(),
		Version:   "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewRouter(cfg), store
}

func do(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func tenantHeader(id string) map[string]string {
	return map[string]string{"X-Tenant-ID": id}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/health/info", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]any](t, w)
	assert.Equal(t, "lingua", info["app"])
	assert.Equal(t, "test", info["version"])
}

func TestHealth_NotReady(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Health = pingFunc(func(context.Context) error { return errors.New("connection refused") })
	})

	w := do(t, router, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTrace_EchoesRequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/health/live", nil, map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestLocales_MissingTenantIsPrecondition(t *testing.T) {
	router, store := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/locales", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodePrecondition, decode[dto.ErrorResponse](t, w).Code)
	assert.Equal(t, 0, store.Calls().Total())
}

func TestLocales_InvalidTenantID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader("a#b"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode[dto.ErrorResponse](t, w).Code)
}

func TestLocales_Lifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	h := tenantHeader("T1")

	w := do(t, router, http.MethodGet, "/api/v1/locales/default", nil, h)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "en"}, h)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, decode[dto.LocaleResponse](t, w).Default)

	w = do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "fr", Default: true}, h)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[dto.LocaleResponse](t, w).Default)

	w = do(t, router, http.MethodGet, "/api/v1/locales/default", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fr", decode[dto.DefaultLocaleResponse](t, w).Code)

	w = do(t, router, http.MethodPut, "/api/v1/locales/default", dto.SetDefaultLocaleRequest{Code: "en"}, h)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "en", decode[dto.DefaultLocaleResponse](t, w).Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.CursorResponse[dto.LocaleResponse]](t, w)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "en", page.Items[0].Code)
	assert.True(t, page.Items[0].Default)
	assert.Equal(t, "fr", page.Items[1].Code)
	assert.False(t, page.Items[1].Default)

	w = do(t, router, http.MethodGet, "/api/v1/locales/fr", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fr", decode[dto.LocaleResponse](t, w).Code)

	w = do(t, router, http.MethodDelete, "/api/v1/locales/en", nil, h)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeDefaultLocaleRequired, decode[dto.ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPatch, "/api/v1/locales/en", map[string]bool{"default": false}, h)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodPatch, "/api/v1/locales/fr", map[string]bool{"default": true}, h)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[dto.LocaleResponse](t, w).Default)

	w = do(t, router, http.MethodDelete, "/api/v1/locales/en", nil, h)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales/en", nil, h)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocales_CreateErrors(t *testing.T) {
	router, _ := newTestRouter(t)
	h := tenantHeader("T1")

	w := do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "de"}, h)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "de"}, h)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeDuplicate, decode[dto.ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPost, "/api/v1/locales", map[string]string{}, h)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "not a locale!"}, h)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode[dto.ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPut, "/api/v1/locales/default", dto.SetDefaultLocaleRequest{Code: "fr"}, h)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocales_TenantIsolation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "en"}, tenantHeader("T1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader("T2"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.CursorResponse[dto.LocaleResponse]](t, w).Items)
}

func TestLocales_Pagination(t *testing.T) {
	router, _ := newTestRouter(t)
	h := tenantHeader("T1")

	for _, code := range []string{"de", "en", "fr"} {
		w := do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: code}, h)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, router, http.MethodGet, "/api/v1/locales?limit=2", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.CursorResponse[dto.LocaleResponse]](t, w)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "en", page.NextCursor)

	w = do(t, router, http.MethodGet, "/api/v1/locales?limit=2&after=en", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[dto.CursorResponse[dto.LocaleResponse]](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "fr", page.Items[0].Code)
	assert.Empty(t, page.NextCursor)

	w = do(t, router, http.MethodGet, "/api/v1/locales?sort=desc", nil, h)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[dto.CursorResponse[dto.LocaleResponse]](t, w)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "fr", page.Items[0].Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales?sort=sideways", nil, h)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocales_ContentLocaleScheme(t *testing.T) {
	router, store := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.KeyScheme = locale.ContentLocaleScoped
	})

	w := do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader("T1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodePrecondition, decode[dto.ErrorResponse](t, w).Code)
	assert.Equal(t, 0, store.Calls().Total())

	english := map[string]string{"X-Tenant-ID": "T1", "X-Content-Locale": "en"}
	german := map[string]string{"X-Tenant-ID": "T1", "Accept-Language": "de-DE, en;q=0.8"}

	w = do(t, router, http.MethodPost, "/api/v1/locales", dto.CreateLocaleRequest{Code: "fr"}, english)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, german)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.CursorResponse[dto.LocaleResponse]](t, w).Items)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, english)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.CursorResponse[dto.LocaleResponse]](t, w).Items, 1)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, map[string]string{"X-Tenant-ID": "T1", "X-Content-Locale": "???"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocales_TenantRegistry(t *testing.T) {
	const (
		active    = "6f1c1f3e-8c1a-4a55-9d51-3b4e0b9f2a10"
		suspended = "0b7a2c4d-1e2f-4a3b-8c9d-0e1f2a3b4c5d"
	)
	router, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Tenants = fakeTenants{
			active:    {ID: active, Status: tenant.StatusActive},
			suspended: {ID: suspended, Status: tenant.StatusSuspended},
		}
	})

	w := do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader(active))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader(suspended))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/locales", nil, tenantHeader("unknown"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
