package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/internal/repository"
)

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type todoJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

func decodeTodo(t *testing.T, w *httptest.ResponseRecorder) todoJSON {
	t.Helper()
	var todo todoJSON
	if err := json.Unmarshal(w.Body.Bytes(), &todo); err != nil {
		t.Fatalf("decode todo from %q: %v", w.Body.String(), err)
	}
	return todo
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var obj map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("decode object from %q: %v", w.Body.String(), err)
	}
	return obj
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Methods") != "GET,POST,PATCH,DELETE,OPTIONS" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("missing CORS headers on %d response: %v", w.Code, h)
	}
}

func TestHealth(t *testing.T) {
	r := Router(repository.NewMemory())
	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	obj := decodeObject(t, w)
	if obj["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", obj["status"])
	}
	ts, _ := obj["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("expected RFC3339 timestamp, got %q: %v", ts, err)
	}
	assertCORS(t, w)
}

func TestCreateListGetRoundTrip(t *testing.T) {
	r := Router(repository.NewMemory())

	w := doRequest(r, http.MethodPost, "/todos", `{"title":"buy milk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	assertCORS(t, w)
	created := decodeTodo(t, w)
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.Title != "buy milk" || created.Completed {
		t.Fatalf("unexpected created todo %+v", created)
	}
	if _, err := time.Parse(time.RFC3339Nano, created.CreatedAt); err != nil {
		t.Fatalf("expected ISO-8601 createdAt, got %q: %v", created.CreatedAt, err)
	}

	w = doRequest(r, http.MethodGet, "/todos", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed []todoJSON
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the created todo in the listing, got %+v", listed)
	}

	w = doRequest(r, http.MethodGet, "/todos/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeTodo(t, w); got != created {
		t.Fatalf("expected %+v, got %+v", created, got)
	}
}

func TestListEmptyIsJSONArray(t *testing.T) {
	r := Router(repository.NewMemory())
	w := doRequest(r, http.MethodGet, "/todos", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("expected [], got %q", body)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := repository.NewMemory()
	r := Router(repo)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{}`, "title"},
		{"empty title", `{"title":""}`, "title"},
		{"title too long", `{"title":"` + strings.Repeat("a", 201) + `"}`, "title"},
		{"completed wrong type", `{"title":"x","completed":"yes"}`, "completed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/todos", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			assertCORS(t, w)
			obj := decodeObject(t, w)
			if obj["error"] != "Invalid request body" {
				t.Fatalf("unexpected error message %v", obj["error"])
			}
			details, ok := obj["details"].([]interface{})
			if !ok || len(details) == 0 {
				t.Fatalf("expected field issues in details, got %v", obj["details"])
			}
			issue := details[0].(map[string]interface{})
			if issue["field"] != tc.field {
				t.Fatalf("expected issue on %q, got %v", tc.field, issue)
			}
		})
	}

	w := doRequest(r, http.MethodPost, "/todos", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", w.Code)
	}

	todos, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("getall: %v", err)
	}
	if len(todos) != 0 {
		t.Fatalf("expected no todos stored after rejected creates, got %d", len(todos))
	}
}

func TestPatchMergesPartially(t *testing.T) {
	r := Router(repository.NewMemory())

	w := doRequest(r, http.MethodPost, "/todos", `{"title":"original"}`)
	created := decodeTodo(t, w)

	w = doRequest(r, http.MethodPatch, "/todos/"+created.ID, `{"completed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	patched := decodeTodo(t, w)
	if patched.Title != "original" || !patched.Completed {
		t.Fatalf("expected completed-only merge, got %+v", patched)
	}
	if patched.ID != created.ID || patched.CreatedAt != created.CreatedAt {
		t.Fatal("expected id and createdAt untouched")
	}

	w = doRequest(r, http.MethodPatch, "/todos/"+created.ID, `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty patch, got %d", w.Code)
	}
	if got := decodeTodo(t, w); got != patched {
		t.Fatalf("expected empty patch to change nothing, got %+v", got)
	}
}

func TestPatchRejectsEmptyTitle(t *testing.T) {
	r := Router(repository.NewMemory())

	w := doRequest(r, http.MethodPost, "/todos", `{"title":"keep"}`)
	created := decodeTodo(t, w)

	w = doRequest(r, http.MethodPatch, "/todos/"+created.ID, `{"title":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/todos/"+created.ID, "")
	if got := decodeTodo(t, w); got.Title != "keep" {
		t.Fatalf("expected stored todo untouched, got %+v", got)
	}
}

func TestMissingTodoIs404WithMessage(t *testing.T) {
	r := Router(repository.NewMemory())

	for _, tc := range []struct {
		method string
		body   string
	}{
		{http.MethodGet, ""},
		{http.MethodPatch, `{"completed":true}`},
		{http.MethodDelete, ""},
	} {
		w := doRequest(r, tc.method, "/todos/ghost", tc.body)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", tc.method, w.Code)
		}
		assertCORS(t, w)
		obj := decodeObject(t, w)
		if obj["error"] != "Todo with id ghost not found" {
			t.Fatalf("%s: unexpected message %v", tc.method, obj["error"])
		}
	}
}

func TestDeleteLifecycle(t *testing.T) {
	r := Router(repository.NewMemory())

	w := doRequest(r, http.MethodPost, "/todos", `{"title":"short lived"}`)
	created := decodeTodo(t, w)

	w = doRequest(r, http.MethodDelete, "/todos/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty 204 body, got %q", w.Body.String())
	}
	assertCORS(t, w)

	w = doRequest(r, http.MethodGet, "/todos/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	w = doRequest(r, http.MethodDelete, "/todos/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for double delete, got %d", w.Code)
	}
}

func TestUnknownRouteListsRegisteredRoutes(t *testing.T) {
	r := Router(repository.NewMemory())

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodPut, "/todos/abc"}, // wrong method on a known path
		{http.MethodGet, "/todos/abc/extra"},
	} {
		w := doRequest(r, tc.method, tc.path, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, w.Code)
		}
		assertCORS(t, w)
		obj := decodeObject(t, w)
		if obj["error"] != "Route not found" {
			t.Fatalf("unexpected error message %v", obj["error"])
		}
		routes, ok := obj["routes"].([]interface{})
		if !ok || len(routes) == 0 {
			t.Fatalf("expected a route listing, got %v", obj["routes"])
		}
		joined := make([]string, 0, len(routes))
		for _, route := range routes {
			joined = append(joined, route.(string))
		}
		listing := strings.Join(joined, "\n")
		for _, want := range []string{
			"GET /health", "GET /todos", "POST /todos",
			"GET /todos/:id", "PATCH /todos/:id", "DELETE /todos/:id",
		} {
			if !strings.Contains(listing, want) {
				t.Fatalf("expected %q in route listing, got %q", want, listing)
			}
		}
	}
}

func TestOptionsAnswers204Everywhere(t *testing.T) {
	r := Router(repository.NewMemory())

	for _, path := range []string{"/todos", "/todos/some-id", "/absolutely/anything"} {
		w := doRequest(r, http.MethodOptions, path, "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("OPTIONS %s: expected 204, got %d", path, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("OPTIONS %s: expected empty body, got %q", path, w.Body.String())
		}
		assertCORS(t, w)
	}
}

// failingRepo simulates a broken backend for the 500 mapping.
type failingRepo struct{}

func (failingRepo) GetAll(context.Context) ([]models.Todo, error) {
	return nil, apperr.Storage("redis smembers", errors.New("connection refused"))
}
func (failingRepo) GetByID(context.Context, string) (models.Todo, error) {
	return models.Todo{}, apperr.Storage("redis get", errors.New("connection refused"))
}
func (failingRepo) Create(context.Context, models.CreateInput) (models.Todo, error) {
	return models.Todo{}, apperr.Storage("redis set", errors.New("connection refused"))
}
func (failingRepo) Update(context.Context, string, models.UpdateInput) (models.Todo, error) {
	return models.Todo{}, apperr.Storage("redis set", errors.New("connection refused"))
}
func (failingRepo) Delete(context.Context, string) error {
	return apperr.Storage("redis del", errors.New("connection refused"))
}

func TestBackendFailureMapsTo500(t *testing.T) {
	r := Router(failingRepo{})

	w := doRequest(r, http.MethodGet, "/todos", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	assertCORS(t, w)
	obj := decodeObject(t, w)
	if obj["error"] != "Internal server error" {
		t.Fatalf("unexpected error message %v", obj["error"])
	}
	details, _ := obj["details"].(string)
	if !strings.Contains(details, "connection refused") {
		t.Fatalf("expected stringified cause in details, got %q", details)
	}

	w = doRequest(r, http.MethodPost, "/todos", `{"title":"doomed"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from create, got %d", w.Code)
	}
}

// panicRepo checks that panics surface as the same JSON 500, not a stack trace.
type panicRepo struct{ failingRepo }

func (panicRepo) GetAll(context.Context) ([]models.Todo, error) {
	panic("boom")
}

func TestPanicRecoversToJSON500(t *testing.T) {
	r := Router(panicRepo{})

	w := doRequest(r, http.MethodGet, "/todos", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	assertCORS(t, w)
	obj := decodeObject(t, w)
	if obj["error"] != "Internal server error" {
		t.Fatalf("unexpected error message %v", obj["error"])
	}
	if obj["details"] != "boom" {
		t.Fatalf("expected panic value in details, got %v", obj["details"])
	}
}
