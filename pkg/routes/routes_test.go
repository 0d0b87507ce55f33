package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refinelab/refinery/pkg/routes"
)

func echo(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func get(t *testing.T, mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Run("flat group", func(t *testing.T) {
		mux := http.NewServeMux()
		routes.Register(mux, routes.Group{
			Prefix: "/processes",
			Routes: []routes.Route{
				{Method: http.MethodGet, Pattern: "", Handler: echo("list")},
				{Method: http.MethodGet, Pattern: "/{id}", Handler: echo("find")},
			},
		})

		if rec := get(t, mux, http.MethodGet, "/processes"); rec.Body.String() != "list" {
			t.Errorf("GET /processes = %q, want list", rec.Body.String())
		}
		if rec := get(t, mux, http.MethodGet, "/processes/abc"); rec.Body.String() != "find" {
			t.Errorf("GET /processes/abc = %q, want find", rec.Body.String())
		}
	})

	t.Run("nested groups compose prefixes", func(t *testing.T) {
		mux := http.NewServeMux()
		routes.Register(mux, routes.Group{
			Prefix: "/processes",
			Children: []routes.Group{
				{
					Prefix: "/runs",
					Routes: []routes.Route{
						{Method: http.MethodGet, Pattern: "/statuses", Handler: echo("statuses")},
					},
				},
			},
		})

		if rec := get(t, mux, http.MethodGet, "/processes/runs/statuses"); rec.Body.String() != "statuses" {
			t.Errorf("GET /processes/runs/statuses = %q, want statuses", rec.Body.String())
		}
	})

	t.Run("method constrained", func(t *testing.T) {
		mux := http.NewServeMux()
		routes.Register(mux, routes.Group{
			Prefix: "/prompts",
			Routes: []routes.Route{
				{Method: http.MethodPost, Pattern: "", Handler: echo("created")},
			},
		})

		if rec := get(t, mux, http.MethodDelete, "/prompts"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("DELETE /prompts status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("multiple groups", func(t *testing.T) {
		mux := http.NewServeMux()
		routes.Register(mux,
			routes.Group{
				Prefix: "/processes",
				Routes: []routes.Route{{Method: http.MethodGet, Pattern: "", Handler: echo("processes")}},
			},
			routes.Group{
				Prefix: "/runs",
				Routes: []routes.Route{{Method: http.MethodGet, Pattern: "", Handler: echo("runs")}},
			},
		)

		if rec := get(t, mux, http.MethodGet, "/runs"); rec.Body.String() != "runs" {
			t.Errorf("GET /runs = %q, want runs", rec.Body.String())
		}
	})
}
