package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/claims"
	"github.com/Louis-Gabriel-TM/stores-api/internal/handlers"
	"github.com/Louis-Gabriel-TM/stores-api/internal/hash"
	authmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/auth"
	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
	"github.com/Louis-Gabriel-TM/stores-api/internal/revocation"
	httpserver "github.com/Louis-Gabriel-TM/stores-api/internal/transport/http"
)

type testEnv struct {
	t             *testing.T
	e             *echo.Echo
	db            *gorm.DB
	registry      *revocation.Registry
	jwtSecret     []byte
	refreshSecret []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Store{}, &models.Item{}))

	registry := revocation.New(time.Minute)
	t.Cleanup(registry.Close)

	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")

	gate := &authmw.Gate{Secret: jwtSecret, Registry: registry}
	provider := &claims.RoleProvider{DB: db}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            db,
			Claims:        provider,
			Registry:      registry,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
		},
		ItemHandler:       &handlers.ItemHandler{DB: db},
		StoreHandler:      &handlers.StoreHandler{DB: db},
		UserHandler:       &handlers.UserHandler{DB: db},
		SearchHandler:     &handlers.SearchHandler{},
		Gate:              gate,
		ExposeDebugRoutes: true,
	})

	return &testEnv{
		t:             t,
		e:             e,
		db:            db,
		registry:      registry,
		jwtSecret:     jwtSecret,
		refreshSecret: refreshSecret,
	}
}

func (env *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	env.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (env *testEnv) createUser(username, password, role string) models.User {
	env.t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.t, err)
	user := models.User{Username: username, PasswordHash: pwHash, Role: role, Activated: true}
	require.NoError(env.t, env.db.Create(&user).Error)
	return user
}

func (env *testEnv) createStore(name string) models.Store {
	env.t.Helper()
	store := models.Store{Name: name}
	require.NoError(env.t, env.db.Create(&store).Error)
	return store
}

// login runs the real login flow and returns access and refresh tokens.
func (env *testEnv) login(username, password string) (string, string) {
	env.t.Helper()
	rec := env.do("POST", "/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(env.t, 200, rec.Code)
	body := decode(env.t, rec)
	return body["access_token"].(string), body["refresh_token"].(string)
}
