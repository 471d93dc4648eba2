package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/spolu/distinct/app"
	"github.com/spolu/distinct/endpoint"
	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/env"
	"github.com/spolu/distinct/lib/svc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Service represents a test service backed by an in-memory DB.
type Service struct {
	Server *httptest.Server
}

func createTestService(
	t *testing.T,
) *Service {
	ctx := context.Background()

	checkEnv := env.Env{
		Environment: env.QA,
		Config:      map[env.ConfigKey]string{},
	}
	ctx = env.With(ctx, &checkEnv)

	checkDB, err := db.NewSqlite3DBInMemory(ctx)
	require.NoError(t, err)
	err = db.CreateDBTables(ctx, checkDB)
	require.NoError(t, err)
	ctx = db.WithDB(ctx, checkDB)

	mux, err := app.Build(ctx)
	require.NoError(t, err)

	s := &Service{
		Server: httptest.NewServer(mux),
	}
	t.Cleanup(s.Server.Close)

	return s
}

// Post posts form values to the service and returns the status code along
// with the decoded response.
func (s *Service) Post(
	t *testing.T,
	path string,
	values url.Values,
) (int, svc.Resp) {
	res, err := http.PostForm(s.Server.URL+path, values)
	require.NoError(t, err)
	defer res.Body.Close()

	var raw svc.Resp
	err = json.NewDecoder(res.Body).Decode(&raw)
	require.NoError(t, err)

	return res.StatusCode, raw
}

func TestCreateUserSimple(
	t *testing.T,
) {
	s := createTestService(t)

	status, raw := s.Post(t, "/users", url.Values{
		"username": {"alice"},
		"email":    {"alice@corp.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})

	var user endpoint.UserResource
	err := raw.Extract("user", &user)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, status)
	assert.Regexp(t, "^user_[a-f0-9]+$", user.Token)
	assert.WithinDuration(t,
		time.Now(), time.Unix(0, user.Created*1000*1000), 2*time.Second)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@corp.com", user.Email)
	assert.Equal(t, "acme", user.Tenant)
}

func TestCreateUserDuplicateUsername(
	t *testing.T,
) {
	s := createTestService(t)

	status, _ := s.Post(t, "/users", url.Values{
		"username": {"alice"},
		"email":    {"alice@corp.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})
	assert.Equal(t, http.StatusCreated, status)

	status, raw := s.Post(t, "/users", url.Values{
		"username": {"alice"},
		"email":    {"alice@other.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	err := raw.Extract("error", &e)
	require.NoError(t, err)
	assert.Equal(t, "user_already_exists", e.Code)
	assert.Equal(t, `username "alice" has already been taken.`, e.Message)
}

func TestCreateUserInvalidUsername(
	t *testing.T,
) {
	s := createTestService(t)

	status, raw := s.Post(t, "/users", url.Values{
		"username": {"Not A Username"},
		"email":    {"alice@corp.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	var e struct {
		Code string `json:"code"`
	}
	err := raw.Extract("error", &e)
	require.NoError(t, err)
	assert.Equal(t, "username_invalid", e.Code)
}

func TestCheckUnique(
	t *testing.T,
) {
	s := createTestService(t)

	status, raw := s.Post(t, "/checks", url.Values{
		"table":     {"users"},
		"key":       {"token"},
		"attribute": {"username"},
		"value":     {"alice"},
	})
	assert.Equal(t, http.StatusOK, status)

	var check endpoint.CheckResource
	err := raw.Extract("check", &check)
	require.NoError(t, err)
	assert.True(t, check.Unique)
	assert.Empty(t, check.Errors)
}

func TestCheckTaken(
	t *testing.T,
) {
	s := createTestService(t)

	status, _ := s.Post(t, "/users", url.Values{
		"username": {"alice"},
		"email":    {"alice@corp.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})
	assert.Equal(t, http.StatusCreated, status)

	status, raw := s.Post(t, "/checks", url.Values{
		"table":     {"users"},
		"key":       {"token"},
		"attribute": {"username"},
		"value":     {"alice"},
	})
	assert.Equal(t, http.StatusOK, status)

	var check endpoint.CheckResource
	err := raw.Extract("check", &check)
	require.NoError(t, err)
	assert.False(t, check.Unique)
	require.Len(t, check.Errors, 1)
	assert.Equal(t, "username", check.Errors[0].Attribute)
	assert.Equal(t,
		`username "alice" has already been taken.`, check.Errors[0].Message)
}

func TestCheckCombination(
	t *testing.T,
) {
	s := createTestService(t)

	status, _ := s.Post(t, "/users", url.Values{
		"username": {"alice"},
		"email":    {"alice@corp.com"},
		"tenant":   {"acme"},
		"password": {"s3cret"},
	})
	assert.Equal(t, http.StatusCreated, status)

	status, raw := s.Post(t, "/checks", url.Values{
		"table":     {"users"},
		"key":       {"token"},
		"attribute": {"email", "tenant"},
		"value":     {"alice@corp.com", "acme"},
	})
	assert.Equal(t, http.StatusOK, status)

	var check endpoint.CheckResource
	err := raw.Extract("check", &check)
	require.NoError(t, err)
	assert.False(t, check.Unique)
	require.Len(t, check.Errors, 2)
	assert.Equal(t,
		`The combination of email, tenant ("alice@corp.com"-"acme") has `+
			`already been taken.`, check.Errors[0].Message)

	// A different tenant makes the combination available again.
	status, raw = s.Post(t, "/checks", url.Values{
		"table":     {"users"},
		"key":       {"token"},
		"attribute": {"email", "tenant"},
		"value":     {"alice@corp.com", "umbrella"},
	})
	assert.Equal(t, http.StatusOK, status)

	err = raw.Extract("check", &check)
	require.NoError(t, err)
	assert.True(t, check.Unique)
}

func TestCheckInvalidTable(
	t *testing.T,
) {
	s := createTestService(t)

	status, raw := s.Post(t, "/checks", url.Values{
		"table":     {"users; DROP TABLE users"},
		"attribute": {"username"},
		"value":     {"alice"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	var e struct {
		Code string `json:"code"`
	}
	err := raw.Extract("error", &e)
	require.NoError(t, err)
	assert.Equal(t, "table_invalid", e.Code)
}

func TestCheckValueCountMismatch(
	t *testing.T,
) {
	s := createTestService(t)

	status, raw := s.Post(t, "/checks", url.Values{
		"table":     {"users"},
		"attribute": {"email", "tenant"},
		"value":     {"alice@corp.com"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	var e struct {
		Code string `json:"code"`
	}
	err := raw.Extract("error", &e)
	require.NoError(t, err)
	assert.Equal(t, "value_mismatch", e.Code)
}
