package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DrSkyle/kinship/pkg/netcache"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/person/persontest"
	"github.com/DrSkyle/kinship/pkg/resolver"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, store person.RecordStore) *Server {
	t.Helper()
	cache := netcache.New(resolver.New(store))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(Deps{
		Store:  store,
		Editor: person.NewEditor(store),
		Cache:  cache,
		NewSession: func() *session.Session {
			return session.New(cache, session.WithLogger(logger))
		},
		Logger: logger,
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandleTest(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())
	w := do(t, s, http.MethodGet, "/api/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "API is working!", decode[MessageResponse](t, w).Message)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetPerson(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	w := do(t, s, http.MethodGet, "/api/people/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mary Smith", decode[person.Person](t, w).Name)

	w = do(t, s, http.MethodGet, "/api/people/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PERSON_NOT_FOUND", decode[ErrorResponse](t, w).Code)

	w = do(t, s, http.MethodGet, "/api/people/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPeople_SortedByName(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())
	w := do(t, s, http.MethodGet, "/api/people", nil)
	require.Equal(t, http.StatusOK, w.Code)
	people := decode[[]person.Person](t, w)
	require.Len(t, people, 10)
	assert.Equal(t, "Daniel Wilson", people[0].Name)
}

func TestNetwork(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())
	w := do(t, s, http.MethodGet, "/api/people/1/network", nil)
	require.Equal(t, http.StatusOK, w.Code)

	set := decode[resolver.RelationshipSet](t, w)
	assert.Len(t, set.Parents, 2)
	require.NotNil(t, set.Spouse)
	assert.Equal(t, "Mary Smith", set.Spouse.Name)
	assert.Len(t, set.Children, 2)
}

func TestNetwork_Unavailable(t *testing.T) {
	repo := persontest.NewDemo()
	repo.FailWith(persontest.ErrBackend)
	s := newTestServer(t, person.NewDemoStore())
	s.deps.Cache = netcache.New(resolver.New(repo))

	w := do(t, s, http.MethodGet, "/api/people/1/network", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "REPOSITORY_UNAVAILABLE", decode[ErrorResponse](t, w).Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	w := do(t, s, http.MethodGet, "/api/search?term=boston&field=location", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]person.Person](t, w), 2)

	w = do(t, s, http.MethodGet, "/api/search?term=smith&filter=has_spouse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]person.Person](t, w), 4)

	w = do(t, s, http.MethodGet, "/api/search?field=zip", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/search?filter=age%2B", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUpdateDelete(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	// Warm the cache so the write has something to invalidate.
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/people/8/network", nil).Code)

	w := do(t, s, http.MethodPost, "/api/people", PersonRequest{
		Name: "Tom Smith", BirthDate: "2030-01-02", Gender: "male", FatherID: 1, MotherID: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[person.Person](t, w)
	assert.Equal(t, person.ID(11), created.ID)

	w = do(t, s, http.MethodGet, "/api/people/8/network", nil)
	set := decode[resolver.RelationshipSet](t, w)
	assert.Len(t, set.Siblings, 2)

	w = do(t, s, http.MethodPut, "/api/people/11", PersonRequest{Name: "Thomas Smith", FatherID: 1, MotherID: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Thomas Smith", decode[person.Person](t, w).Name)

	w = do(t, s, http.MethodDelete, "/api/people/11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Person deleted successfully", decode[MessageResponse](t, w).Message)

	w = do(t, s, http.MethodDelete, "/api/people/11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePerson_Validation(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	tests := []struct {
		name string
		body any
	}{
		{"missing name", PersonRequest{}},
		{"bad date", PersonRequest{Name: "X", BirthDate: "yesterday"}},
		{"negative parent", PersonRequest{Name: "X", FatherID: -1}},
		{"unknown parent", PersonRequest{Name: "X", FatherID: 404}},
		{"malformed json", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/people", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "INVALID_REQUEST", decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	w := do(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{RootID: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, 1, resp.Nodes)
	sid := resp.ID

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/expand", TargetRequest{PersonID: 1, Category: "parents"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[SessionResponse](t, w).Nodes)

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/toggle-all", TargetRequest{PersonID: 1})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[SessionResponse](t, w)
	assert.Equal(t, 6, resp.Nodes)
	assert.Equal(t, "John Smith #1 (root)", resp.Lines[0])

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/expand", TargetRequest{PersonID: 9, Category: "spouse"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TARGET", decode[ErrorResponse](t, w).Code)

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/expand", TargetRequest{PersonID: 1, Category: "cousins"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/reroot", TargetRequest{PersonID: 9})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[SessionResponse](t, w)
	assert.Equal(t, int64(9), resp.RootID)
	assert.Equal(t, 1, resp.Nodes)

	w = do(t, s, http.MethodGet, "/api/sessions/"+sid+"/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Emma Johnson", decode[SessionResponse](t, w).Tree.Name)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil).Code)
	w = do(t, s, http.MethodGet, "/api/sessions/"+sid+"/tree", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decode[ErrorResponse](t, w).Code)
}

func TestCreateSession_UnknownRoot(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())
	w := do(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{RootID: 404})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionSurvivesPersonUpdate(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())

	w := do(t, s, http.MethodPost, "/api/sessions", CreateSessionRequest{RootID: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sid := decode[SessionResponse](t, w).ID

	for _, req := range []TargetRequest{{PersonID: 1, Category: "spouse"}, {PersonID: 2, Category: "siblings"}} {
		w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/expand", req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	require.Equal(t, 3, decode[SessionResponse](t, w).Nodes)

	w = do(t, s, http.MethodPut, "/api/people/9", PersonRequest{Name: "Emma Wilson", FatherID: 5, MotherID: 6, SpouseID: 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/sessions/"+sid+"/tree", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, 3, resp.Nodes)
	assert.Equal(t, "Emma Wilson", resp.Tree.Children[0].Children[0].Name)

	w = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/expand", TargetRequest{PersonID: 1, Category: "children"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[SessionResponse](t, w)
	assert.Equal(t, 5, resp.Nodes)
	assert.Equal(t, int64(1), resp.RootID)
	require.Len(t, resp.Tree.Children, 3)
	assert.Equal(t, "Emma Wilson", resp.Tree.Children[0].Children[0].Name)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, person.NewDemoStore())
	do(t, s, http.MethodGet, "/api/people/1/network", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "kinship_http_requests_total")
	assert.Contains(t, body, "kinship_cache_entries 1")
	assert.True(t, strings.Contains(body, `route="/api/people/:id/network"`))
}
