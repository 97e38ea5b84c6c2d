package router

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/core/database"
	"carbon-tracker/internal/feature/emission"
	"carbon-tracker/internal/repo"
	"carbon-tracker/internal/service"
	"carbon-tracker/internal/transport/http/handler"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type app struct {
	api, admin *gin.Engine
}

func newApp(t *testing.T) app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:http_" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	users, calcs, offsets := repo.NewUserRepo(db), repo.NewCalculationRepo(db), repo.NewOffsetRepo(db)
	accounts := service.NewAccountService(users, log, "s3cret")
	tracker := service.NewTrackerService(emission.NewEngine(), calcs, offsets, log)
	reports := service.NewReportService(users, calcs, offsets, nil, log, service.ReportOptions{})

	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	reg := NewRegistry(
		handler.NewAuthHandler(accounts, jwter),
		handler.NewTrackerHandler(tracker),
		handler.NewAdminHandler(accounts, reports),
	)
	o := Options{Log: log, JWT: jwter, Users: users, Registry: reg}
	return app{api: NewAPIEngine(o), admin: NewAdminEngine(o)}
}

func call(t *testing.T, e *gin.Engine, method, path, token string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil && env.Code == 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a app) register(t *testing.T, name, province string) session {
	t.Helper()
	var s session
	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": name + "@example.org", "password": "pw", "province": province,
	}), &s)
	require.Equal(t, 0, env.Code, env.Msg)
	return s
}

func (a app) adminSession(t *testing.T) session {
	t.Helper()
	var s session
	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register-admin", "", gin.H{
		"name": "root", "email": "root@example.org", "password": "pw",
	}, handler.HeaderAdminSecret, "s3cret"), &s)
	require.Equal(t, 0, env.Code, env.Msg)
	return s
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)
	w := call(t, a.api, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = call(t, a.admin, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carbon_http_requests_total")
}

func TestEstimateIsPublic(t *testing.T) {
	a := newApp(t)
	var b emission.Breakdown
	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations/estimate", "", gin.H{
		"fuelType": "charcoal", "cookingMeals": 4, "cookingDuration": 4.5, "charcoalUsed": 2.5,
	}), &b)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.InDelta(t, 498, b.Total, 1e-9)
	assert.Len(t, b.Components, 4)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations/estimate", "", gin.H{
		"fuelType": "unknown", "cookingMeals": 1, "cookingDuration": 1,
	}), nil)
	assert.Equal(t, 400, env.Code)
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)
	s := a.register(t, "alice", "Lusaka Province")
	assert.Equal(t, "USER", s.User.Role)

	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "again", "email": "alice@example.org", "password": "pw",
	}), nil)
	assert.Equal(t, 409, env.Code)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "alias", "email": "Alice <alice@example.org>", "password": "pw",
	}), nil)
	assert.Equal(t, 400, env.Code)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.org", "password": "nope",
	}), nil)
	assert.Equal(t, 401, env.Code)

	var ls session
	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.org", "password": "pw",
	}), &ls)
	require.Equal(t, 0, env.Code, env.Msg)

	var me struct {
		Email     string  `json:"email"`
		LastLogin *string `json:"lastLogin"`
	}
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/me", ls.Token, nil), &me)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Equal(t, "alice@example.org", me.Email)
	assert.NotNil(t, me.LastLogin)
	assert.NotContains(t, call(t, a.api, http.MethodGet, "/api/v1/me", ls.Token, nil).Body.String(), "password")

	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/me", "", nil), nil)
	assert.Equal(t, 401, env.Code)
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/me", "garbage", nil), nil)
	assert.Equal(t, 401, env.Code)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register-admin", "", gin.H{
		"name": "x", "email": "x@example.org", "password": "pw",
	}, handler.HeaderAdminSecret, "wrong"), nil)
	assert.Equal(t, 403, env.Code)
}

func TestTrackerRoutes(t *testing.T) {
	a := newApp(t)
	alice := a.register(t, "alice", "")
	bob := a.register(t, "bob", "")

	var c1 struct {
		ID        string  `json:"id"`
		Type      string  `json:"type"`
		Emissions float64 `json:"emissions"`
	}
	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations", alice.Token, gin.H{
		"type": "cooking", "emissions": 100, "carbonOffset": 10,
	}), &c1)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Equal(t, "COOKING", c1.Type)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations", alice.Token, gin.H{
		"type": "cooking", "emissions": 50,
	}), nil)
	require.Equal(t, 0, env.Code, env.Msg)
	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/offsets", alice.Token, gin.H{"amount": 20}), nil)
	require.Equal(t, 0, env.Code, env.Msg)

	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations", alice.Token, gin.H{
		"type": "transport", "emissions": 5,
	}), nil)
	assert.Equal(t, 400, env.Code)

	var d struct {
		TotalEmissions float64 `json:"totalEmissions"`
		TotalOffset    float64 `json:"totalOffset"`
		NetImpact      float64 `json:"netImpact"`
	}
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/dashboard", alice.Token, nil), &d)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.InDelta(t, 150, d.TotalEmissions, 1e-9)
	assert.InDelta(t, 30, d.TotalOffset, 1e-9)
	assert.InDelta(t, 120, d.NetImpact, 1e-9)

	// bob cannot see or touch alice's data
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/calculations/"+c1.ID, bob.Token, nil), nil)
	assert.Equal(t, 404, env.Code)
	env = decode(t, call(t, a.api, http.MethodDelete, "/api/v1/calculations/"+c1.ID, bob.Token, nil), nil)
	assert.Equal(t, 404, env.Code)
	var list []json.RawMessage
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/calculations", bob.Token, nil), &list)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Empty(t, list)

	var imp struct {
		Offset struct {
			Amount float64 `json:"amount"`
		} `json:"offset"`
	}
	env = decode(t, call(t, a.api, http.MethodPost, "/api/v1/offsets/improvement", alice.Token, gin.H{
		"baselineCalculationId": c1.ID,
		"improved":              gin.H{"fuelType": "lpg", "cookingMeals": 1, "cookingDuration": 1},
	}), &imp)
	require.Equal(t, 0, env.Code, env.Msg)
	// 100 - (0.8*30 + 0.3*30 + 0.2*30)
	assert.InDelta(t, 61, imp.Offset.Amount, 1e-9)

	var offsets []json.RawMessage
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/offsets", alice.Token, nil), &offsets)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Len(t, offsets, 2)

	env = decode(t, call(t, a.api, http.MethodDelete, "/api/v1/calculations/"+c1.ID, alice.Token, nil), nil)
	assert.Equal(t, 0, env.Code, env.Msg)
}

func TestAdminRoutes(t *testing.T) {
	a := newApp(t)
	alice := a.register(t, "alice", "Lusaka Province")
	root := a.adminSession(t)

	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/calculations", alice.Token, gin.H{
		"type": "COOKING", "emissions": 100, "carbonOffset": 10,
	}), nil)
	require.Equal(t, 0, env.Code, env.Msg)

	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", alice.Token, nil), nil)
	assert.Equal(t, 403, env.Code)
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", "", nil), nil)
	assert.Equal(t, 401, env.Code)

	var st struct {
		TotalUsers     int64   `json:"totalUsers"`
		TotalEmissions float64 `json:"totalEmissions"`
	}
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", root.Token, nil), &st)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.EqualValues(t, 2, st.TotalUsers)
	assert.InDelta(t, 100, st.TotalEmissions, 1e-9)

	var page struct {
		Total int64 `json:"total"`
	}
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/users?limit=10", root.Token, nil), &page)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.EqualValues(t, 2, page.Total)

	var pa struct {
		Provinces []struct {
			Name string `json:"name"`
		} `json:"provinces"`
	}
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/province-analytics", root.Token, nil), &pa)
	require.Equal(t, 0, env.Code, env.Msg)
	require.Len(t, pa.Provinces, 1)
	assert.Equal(t, "Lusaka Province", pa.Provinces[0].Name)

	w := call(t, a.admin, http.MethodGet, "/admin/v1/export", root.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	recs, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "alice@example.org", recs[1][2])

	var u struct {
		Role string `json:"role"`
	}
	env = decode(t, call(t, a.admin, http.MethodPut, "/admin/v1/users/"+alice.User.ID+"/role", root.Token, gin.H{"role": "ADMIN"}), &u)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Equal(t, "ADMIN", u.Role)

	env = decode(t, call(t, a.admin, http.MethodDelete, "/admin/v1/users/"+root.User.ID, root.Token, nil), nil)
	assert.Equal(t, 400, env.Code)
	env = decode(t, call(t, a.admin, http.MethodDelete, "/admin/v1/users/"+alice.User.ID, root.Token, nil), nil)
	require.Equal(t, 0, env.Code, env.Msg)

	var rows []json.RawMessage
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/calculations", root.Token, nil), &rows)
	require.Equal(t, 0, env.Code, env.Msg)
	assert.Empty(t, rows)
}

func TestAdminRoutes_RoleIsReadFromStorage(t *testing.T) {
	a := newApp(t)
	root := a.adminSession(t)
	alice := a.register(t, "alice", "")

	var promoted session
	env := decode(t, call(t, a.api, http.MethodPost, "/api/v1/auth/register-admin", "", gin.H{
		"name": "ops", "email": "ops@example.org", "password": "pw",
	}, handler.HeaderAdminSecret, "s3cret"), &promoted)
	require.Equal(t, 0, env.Code, env.Msg)

	// root demotes ops; ops still holds an ADMIN token
	env = decode(t, call(t, a.admin, http.MethodPut, "/admin/v1/users/"+promoted.User.ID+"/role", root.Token, gin.H{"role": "USER"}), nil)
	require.Equal(t, 0, env.Code, env.Msg)

	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", promoted.Token, nil), nil)
	assert.Equal(t, 403, env.Code)
	env = decode(t, call(t, a.admin, http.MethodDelete, "/admin/v1/users/"+root.User.ID, promoted.Token, nil), nil)
	assert.Equal(t, 403, env.Code)

	// alice's USER token works as admin once her stored role changes
	env = decode(t, call(t, a.admin, http.MethodPut, "/admin/v1/users/"+alice.User.ID+"/role", root.Token, gin.H{"role": "ADMIN"}), nil)
	require.Equal(t, 0, env.Code, env.Msg)
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", alice.Token, nil), nil)
	assert.Equal(t, 0, env.Code, env.Msg)

	// a deleted account's token is dead on both servers
	env = decode(t, call(t, a.admin, http.MethodDelete, "/admin/v1/users/"+promoted.User.ID, root.Token, nil), nil)
	require.Equal(t, 0, env.Code, env.Msg)
	env = decode(t, call(t, a.api, http.MethodGet, "/api/v1/me", promoted.Token, nil), nil)
	assert.Equal(t, 401, env.Code)
	env = decode(t, call(t, a.admin, http.MethodGet, "/admin/v1/stats", promoted.Token, nil), nil)
	assert.Equal(t, 401, env.Code)
}
