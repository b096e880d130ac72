package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hpkotak/sqlbud/internal/schema"
)

func TestSystemPrompt(t *testing.T) {
	base := SystemPrompt(false, 1000)
	for _, phrase := range []string{`"sql"`, `"explanation"`, `"warnings"`, "information_schema", "Cannot generate query"} {
		if !strings.Contains(base, phrase) {
			t.Errorf("SystemPrompt() missing %q", phrase)
		}
	}
	if strings.Contains(base, "LIMIT") {
		t.Error("SystemPrompt(false) should not mention LIMIT")
	}

	limited := SystemPrompt(true, 250)
	if !strings.Contains(limited, "LIMIT 250") {
		t.Errorf("SystemPrompt(true, 250) missing limit instruction:\n%s", limited)
	}
}

func TestBuildWithoutContext(t *testing.T) {
	got := Build("show all users", nil)
	want := "Generate a PostgreSQL query for this request:\n\nRequest: show all users\n"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildWithContext(t *testing.T) {
	sc := &SchemaContext{
		Tables: []schema.Table{{Name: "users", Schema: "public", Kind: "BASE TABLE", ApproxRows: 42}},
		Details: []schema.TableDetails{{
			Name:   "users",
			Schema: "public",
			Columns: []schema.Column{
				{Name: "id", Type: "integer", PrimaryKey: true},
				{Name: "org_id", Type: "integer", Nullable: true, ForeignKey: true, FKTable: "orgs", FKColumn: "id"},
				{Name: "created_at", Type: "timestamp", Default: "now()"},
			},
			Indexes: []string{"CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"},
		}},
	}

	got := Build("show all users", sc)
	want := "Generate a PostgreSQL query for this request:\n\n" +
		"Request: show all users\n" +
		"Schema info:\n" +
		"=== DATABASE SCHEMA ===\n" +
		"IMPORTANT: These are the ONLY tables available in this database:\n\n" +
		"- public.users (BASE TABLE, ~42 rows)\n" +
		"\nCRITICAL: If user asks for tables not listed above, return an error with available table names.\n" +
		"Do NOT query information_schema or pg_catalog tables.\n" +
		"\n=== TABLE: public.users ===\n\n" +
		"COLUMNS:\n" +
		"- id (integer) [PRIMARY KEY] [NOT NULL]\n" +
		"- org_id (integer) [FK -> orgs.id]\n" +
		"- created_at (timestamp) [NOT NULL] [DEFAULT: now()]\n" +
		"\nINDEXES:\n" +
		"- CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)\n" +
		"\n"
	if got != want {
		t.Errorf("Build() mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatSchemaEmpty(t *testing.T) {
	got := FormatSchema(nil)
	if !strings.Contains(got, "- No user tables found in database\n") {
		t.Errorf("FormatSchema(nil) = %q", got)
	}
}

func TestFormatTableDetailsWithoutIndexes(t *testing.T) {
	got := FormatTableDetails(schema.TableDetails{
		Name: "t", Schema: "s",
		Columns: []schema.Column{{Name: "a", Type: "text", Nullable: true}},
	})
	want := "=== TABLE: s.t ===\n\nCOLUMNS:\n- a (text)\n"
	if got != want {
		t.Errorf("FormatTableDetails() = %q, want %q", got, want)
	}
}

type fakeIntrospector struct {
	tables    []schema.Table
	listErr   error
	failOn    map[string]bool
	described []string
}

func (f *fakeIntrospector) ListTables(context.Context) ([]schema.Table, error) {
	return f.tables, f.listErr
}

func (f *fakeIntrospector) DescribeTable(_ context.Context, name, sch string) (schema.TableDetails, error) {
	f.described = append(f.described, sch+"."+name)
	if f.failOn[name] {
		return schema.TableDetails{}, errors.New("boom")
	}
	return schema.TableDetails{Name: name, Schema: sch}, nil
}

func TestGatherContextPicksFirstThreeMentions(t *testing.T) {
	in := &fakeIntrospector{tables: []schema.Table{
		{Name: "accounts", Schema: "public"},
		{Name: "orders", Schema: "public"},
		{Name: "products", Schema: "public"},
		{Name: "users", Schema: "public"},
		{Name: "order", Schema: "sales"},
	}}

	sc := GatherContext(context.Background(), in, "join users, products, orders and accounts", nil)
	if sc == nil {
		t.Fatal("GatherContext() = nil")
	}
	want := []string{"public.accounts", "public.orders", "public.products"}
	if strings.Join(in.described, ",") != strings.Join(want, ",") {
		t.Errorf("described = %v, want %v", in.described, want)
	}
	if len(sc.Tables) != 5 || len(sc.Details) != 3 {
		t.Errorf("context has %d tables and %d details", len(sc.Tables), len(sc.Details))
	}
}

func TestGatherContextMatchIsCaseSensitive(t *testing.T) {
	in := &fakeIntrospector{tables: []schema.Table{{Name: "users", Schema: "public"}}}
	sc := GatherContext(context.Background(), in, "show all USERS", nil)
	if len(in.described) != 0 || len(sc.Details) != 0 {
		t.Errorf("described = %v, want none", in.described)
	}
}

func TestGatherContextSwallowsErrors(t *testing.T) {
	if sc := GatherContext(context.Background(), nil, "users", nil); sc != nil {
		t.Errorf("nil introspector: got %+v, want nil", sc)
	}

	failing := &fakeIntrospector{listErr: errors.New("connection refused")}
	if sc := GatherContext(context.Background(), failing, "users", nil); sc != nil {
		t.Errorf("list failure: got %+v, want nil", sc)
	}
	if got := Build("users", GatherContext(context.Background(), failing, "users", nil)); strings.Contains(got, "Schema info") {
		t.Errorf("Build() after failure should have no schema block: %q", got)
	}

	partial := &fakeIntrospector{
		tables: []schema.Table{{Name: "users", Schema: "public"}, {Name: "orgs", Schema: "public"}},
		failOn: map[string]bool{"users": true},
	}
	sc := GatherContext(context.Background(), partial, "users in orgs", nil)
	if len(sc.Details) != 1 || sc.Details[0].Name != "orgs" {
		t.Errorf("Details = %+v, want only orgs", sc.Details)
	}
}
