package query_test

import (
	"reflect"
	"testing"

	"github.com/refinelab/refinery/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "processes", "p").
		Project("id", "ID").
		Project("name", "Name").
		Project("status", "Status").
		Project("updated_at", "UpdatedAt")
}

func ptr(s string) *string {
	return &s
}

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	t.Run("Table", func(t *testing.T) {
		expected := "public.processes p"
		if got := p.Table(); got != expected {
			t.Errorf("Table() = %q, want %q", got, expected)
		}
	})

	t.Run("Alias", func(t *testing.T) {
		if got := p.Alias(); got != "p" {
			t.Errorf("Alias() = %q, want %q", got, "p")
		}
	})

	t.Run("Column mapped", func(t *testing.T) {
		expected := "p.updated_at"
		if got := p.Column("UpdatedAt"); got != expected {
			t.Errorf("Column(UpdatedAt) = %q, want %q", got, expected)
		}
	})

	t.Run("Column unmapped passes through", func(t *testing.T) {
		if got := p.Column("raw_column"); got != "raw_column" {
			t.Errorf("Column(raw_column) = %q, want %q", got, "raw_column")
		}
	})

	t.Run("Columns", func(t *testing.T) {
		expected := "p.id, p.name, p.status, p.updated_at"
		if got := p.Columns(); got != expected {
			t.Errorf("Columns() = %q, want %q", got, expected)
		}
	})
}

func TestBuild(t *testing.T) {
	t.Run("no conditions", func(t *testing.T) {
		b := query.NewBuilder(testProjection())
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})

	t.Run("with conditions and ordering", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereEquals("Status", "ready").
			OrderByFields([]query.SortField{{Field: "Name"}})
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.status = $1 ORDER BY p.name ASC"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"ready"}) {
			t.Errorf("Build() args = %v, want [ready]", args)
		}
	})

	t.Run("default sort applied when no explicit order", func(t *testing.T) {
		b := query.NewBuilder(testProjection(), query.SortField{Field: "UpdatedAt", Descending: true})
		sql, _ := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p ORDER BY p.updated_at DESC"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
	})

	t.Run("explicit order overrides default", func(t *testing.T) {
		b := query.NewBuilder(testProjection(), query.SortField{Field: "UpdatedAt", Descending: true}).
			OrderByFields([]query.SortField{{Field: "Name"}, {Field: "Status", Descending: true}})
		sql, _ := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p ORDER BY p.name ASC, p.status DESC"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
	})
}

func TestBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereEquals("Status", "draft")
	sql, args := b.BuildCount()

	expected := "SELECT COUNT(*) FROM public.processes p WHERE p.status = $1"
	if sql != expected {
		t.Errorf("BuildCount() sql = %q, want %q", sql, expected)
	}
	if !reflect.DeepEqual(args, []any{"draft"}) {
		t.Errorf("BuildCount() args = %v, want [draft]", args)
	}
}

func TestBuildPage(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		b := query.NewBuilder(testProjection(), query.SortField{Field: "UpdatedAt", Descending: true})
		sql, _ := b.BuildPage(1, 20)

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p ORDER BY p.updated_at DESC LIMIT 20 OFFSET 0"
		if sql != expected {
			t.Errorf("BuildPage() sql = %q, want %q", sql, expected)
		}
	})

	t.Run("offset scales with page", func(t *testing.T) {
		b := query.NewBuilder(testProjection())
		sql, _ := b.BuildPage(3, 25)

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p LIMIT 25 OFFSET 50"
		if sql != expected {
			t.Errorf("BuildPage() sql = %q, want %q", sql, expected)
		}
	})

	t.Run("conditions precede ordering", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereContains("Name", ptr("invoice")).
			OrderByFields([]query.SortField{{Field: "Name"}})
		sql, args := b.BuildPage(1, 10)

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.name ILIKE $1 ORDER BY p.name ASC LIMIT 10 OFFSET 0"
		if sql != expected {
			t.Errorf("BuildPage() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"%invoice%"}) {
			t.Errorf("BuildPage() args = %v, want [%%invoice%%]", args)
		}
	})
}

func TestBuildSingle(t *testing.T) {
	b := query.NewBuilder(testProjection())
	sql, args := b.BuildSingle("ID", "abc-123")

	expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.id = $1"
	if sql != expected {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, expected)
	}
	if !reflect.DeepEqual(args, []any{"abc-123"}) {
		t.Errorf("BuildSingle() args = %v, want [abc-123]", args)
	}
}

func TestBuildSingleOrNull(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereEquals("Name", "daily-report")
	sql, args := b.BuildSingleOrNull()

	expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.name = $1 LIMIT 1"
	if sql != expected {
		t.Errorf("BuildSingleOrNull() sql = %q, want %q", sql, expected)
	}
	if !reflect.DeepEqual(args, []any{"daily-report"}) {
		t.Errorf("BuildSingleOrNull() args = %v, want [daily-report]", args)
	}
}

func TestWhereEquals(t *testing.T) {
	t.Run("nil value skipped", func(t *testing.T) {
		var status *string
		b := query.NewBuilder(testProjection()).
			WhereEquals("Status", status)
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})

	t.Run("multiple conditions joined with AND", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereEquals("Status", "ready").
			WhereEquals("Name", "daily-report")
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.status = $1 AND p.name = $2"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"ready", "daily-report"}) {
			t.Errorf("Build() args = %v", args)
		}
	})
}

func TestWhereContains(t *testing.T) {
	t.Run("wraps value in wildcards", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereContains("Name", ptr("report"))
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.name ILIKE $1"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"%report%"}) {
			t.Errorf("Build() args = %v, want [%%report%%]", args)
		}
	})

	t.Run("nil skipped", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereContains("Name", nil)
		_, args := b.Build()
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})

	t.Run("empty string skipped", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereContains("Name", ptr(""))
		_, args := b.Build()
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})
}

func TestWhereIn(t *testing.T) {
	t.Run("multiple values", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereIn("Status", []any{"draft", "ready"})
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE p.status IN ($1, $2)"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"draft", "ready"}) {
			t.Errorf("Build() args = %v", args)
		}
	})

	t.Run("empty slice skipped", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereIn("Status", nil)
		_, args := b.Build()
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})
}

func TestWhereSearch(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereSearch(ptr("csv"), "Name")
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE (p.name ILIKE $1)"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"%csv%"}) {
			t.Errorf("Build() args = %v", args)
		}
	})

	t.Run("multiple fields joined with OR", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereSearch(ptr("csv"), "Name", "Status")
		sql, args := b.Build()

		expected := "SELECT p.id, p.name, p.status, p.updated_at FROM public.processes p WHERE (p.name ILIKE $1 OR p.status ILIKE $2)"
		if sql != expected {
			t.Errorf("Build() sql = %q, want %q", sql, expected)
		}
		if !reflect.DeepEqual(args, []any{"%csv%", "%csv%"}) {
			t.Errorf("Build() args = %v", args)
		}
	})

	t.Run("nil search skipped", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereSearch(nil, "Name")
		_, args := b.Build()
		if len(args) != 0 {
			t.Errorf("Build() args = %v, want empty", args)
		}
	})
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []query.SortField
	}{
		{"empty", "", nil},
		{"single ascending", "name", []query.SortField{{Field: "name"}}},
		{"single descending", "-updated_at", []query.SortField{{Field: "updated_at", Descending: true}}},
		{
			"mixed",
			"name,-updated_at",
			[]query.SortField{{Field: "name"}, {Field: "updated_at", Descending: true}},
		},
		{
			"whitespace trimmed",
			" name , -status ",
			[]query.SortField{{Field: "name"}, {Field: "status", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
