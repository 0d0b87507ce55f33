package pagination_test

import (
	"encoding/json"
	"net/url"
	"reflect"
	"testing"

	"github.com/refinelab/refinery/pkg/pagination"
)

func testConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		request  pagination.PageRequest
		expected pagination.PageRequest
	}{
		{
			"zero page defaults to first",
			pagination.PageRequest{Page: 0, PageSize: 10},
			pagination.PageRequest{Page: 1, PageSize: 10},
		},
		{
			"negative page defaults to first",
			pagination.PageRequest{Page: -3, PageSize: 10},
			pagination.PageRequest{Page: 1, PageSize: 10},
		},
		{
			"zero page size uses default",
			pagination.PageRequest{Page: 2, PageSize: 0},
			pagination.PageRequest{Page: 2, PageSize: 20},
		},
		{
			"page size capped at max",
			pagination.PageRequest{Page: 1, PageSize: 500},
			pagination.PageRequest{Page: 1, PageSize: 100},
		},
		{
			"valid request unchanged",
			pagination.PageRequest{Page: 3, PageSize: 50},
			pagination.PageRequest{Page: 3, PageSize: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.request
			req.Normalize(testConfig())
			if req.Page != tt.expected.Page || req.PageSize != tt.expected.PageSize {
				t.Errorf("Normalize() = {Page: %d, PageSize: %d}, want {Page: %d, PageSize: %d}",
					req.Page, req.PageSize, tt.expected.Page, tt.expected.PageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		expected int
	}{
		{"first page", 1, 20, 0},
		{"second page", 2, 20, 20},
		{"large page", 10, 25, 225},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequest{Page: tt.page, PageSize: tt.pageSize}
			if got := req.Offset(); got != tt.expected {
				t.Errorf("Offset() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		values := url.Values{}
		values.Set("page", "2")
		values.Set("page_size", "10")
		values.Set("search", "invoice")
		values.Set("sort", "name,-updated_at")

		req := pagination.PageRequestFromQuery(values, testConfig())

		if req.Page != 2 {
			t.Errorf("Page = %d, want 2", req.Page)
		}
		if req.PageSize != 10 {
			t.Errorf("PageSize = %d, want 10", req.PageSize)
		}
		if req.Search == nil || *req.Search != "invoice" {
			t.Errorf("Search = %v, want invoice", req.Search)
		}

		expectedSort := pagination.SortFields{
			{Field: "name"},
			{Field: "updated_at", Descending: true},
		}
		if !reflect.DeepEqual(req.Sort, expectedSort) {
			t.Errorf("Sort = %v, want %v", req.Sort, expectedSort)
		}
	})

	t.Run("empty query normalized to defaults", func(t *testing.T) {
		req := pagination.PageRequestFromQuery(url.Values{}, testConfig())

		if req.Page != 1 {
			t.Errorf("Page = %d, want 1", req.Page)
		}
		if req.PageSize != 20 {
			t.Errorf("PageSize = %d, want 20", req.PageSize)
		}
		if req.Search != nil {
			t.Errorf("Search = %v, want nil", req.Search)
		}
		if req.Sort != nil {
			t.Errorf("Sort = %v, want nil", req.Sort)
		}
	})

	t.Run("oversized page size capped", func(t *testing.T) {
		values := url.Values{}
		values.Set("page_size", "9999")

		req := pagination.PageRequestFromQuery(values, testConfig())
		if req.PageSize != 100 {
			t.Errorf("PageSize = %d, want 100", req.PageSize)
		}
	})
}

func TestSortFieldsUnmarshalJSON(t *testing.T) {
	t.Run("string format", func(t *testing.T) {
		var req pagination.PageRequest
		if err := json.Unmarshal([]byte(`{"sort": "name,-updated_at"}`), &req); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		expected := pagination.SortFields{
			{Field: "name"},
			{Field: "updated_at", Descending: true},
		}
		if !reflect.DeepEqual(req.Sort, expected) {
			t.Errorf("Sort = %v, want %v", req.Sort, expected)
		}
	})

	t.Run("array format", func(t *testing.T) {
		var req pagination.PageRequest
		data := `{"sort": [{"Field": "name"}, {"Field": "status", "Descending": true}]}`
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		expected := pagination.SortFields{
			{Field: "name"},
			{Field: "status", Descending: true},
		}
		if !reflect.DeepEqual(req.Sort, expected) {
			t.Errorf("Sort = %v, want %v", req.Sort, expected)
		}
	})

	t.Run("invalid format rejected", func(t *testing.T) {
		var fields pagination.SortFields
		if err := json.Unmarshal([]byte(`42`), &fields); err == nil {
			t.Error("Unmarshal() expected error for numeric input")
		}
	})
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		pageSize      int
		expectedPages int
	}{
		{"exact division", 100, 20, 5},
		{"remainder adds page", 101, 20, 6},
		{"empty result keeps one page", 0, 20, 1},
		{"single record", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{}, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.expectedPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.expectedPages)
			}
		})
	}

	t.Run("nil data becomes empty slice", func(t *testing.T) {
		result := pagination.NewPageResult[string](nil, 0, 1, 20)
		if result.Data == nil {
			t.Error("Data = nil, want empty slice")
		}
		if len(result.Data) != 0 {
			t.Errorf("Data = %v, want empty", result.Data)
		}
	})
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg pagination.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.DefaultPageSize != 20 {
			t.Errorf("DefaultPageSize = %d, want 20", cfg.DefaultPageSize)
		}
		if cfg.MaxPageSize != 100 {
			t.Errorf("MaxPageSize = %d, want 100", cfg.MaxPageSize)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("TEST_PAGE_DEFAULT", "15")
		t.Setenv("TEST_PAGE_MAX", "60")

		var cfg pagination.Config
		env := &pagination.ConfigEnv{
			DefaultPageSize: "TEST_PAGE_DEFAULT",
			MaxPageSize:     "TEST_PAGE_MAX",
		}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.DefaultPageSize != 15 {
			t.Errorf("DefaultPageSize = %d, want 15", cfg.DefaultPageSize)
		}
		if cfg.MaxPageSize != 60 {
			t.Errorf("MaxPageSize = %d, want 60", cfg.MaxPageSize)
		}
	})

	t.Run("default exceeding max rejected", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 50}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize() expected error when default exceeds max")
		}
	})
}
