package safety

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		want Level
	}{
		// Read-only
		{"SELECT * FROM users", ReadOnly},
		{"select id from orders where total > 10 limit 1000", ReadOnly},
		{"WITH recent AS (SELECT * FROM orders) SELECT count(*) FROM recent", ReadOnly},
		{"EXPLAIN SELECT 1", ReadOnly},
		{"SELECT updated_at, created_by FROM audit", ReadOnly},

		// Write
		{"INSERT INTO users (name) VALUES ('a')", Write},
		{"update users set name = 'b' where id = 1", Write},
		{"DELETE FROM users WHERE id = 1", Write},
		{"MERGE INTO stock s USING delivery d ON s.id = d.id WHEN MATCHED THEN UPDATE SET qty = d.qty", Write},
		{"COPY users FROM '/tmp/users.csv'", Write},
		{"CREATE INDEX idx_users_name ON users (name)", Write},
		{"ALTER TABLE users ADD COLUMN age int", Write},

		// Destructive
		{"DROP TABLE users", Destructive},
		{"drop schema app cascade", Destructive},
		{"TRUNCATE orders", Destructive},
		{"DELETE FROM users", Destructive},
		{"ALTER TABLE users DROP COLUMN age", Destructive},
		{"GRANT ALL ON users TO public", Destructive},
		{"REVOKE SELECT ON users FROM analyst", Destructive},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			got := Classify(tt.sql)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresLiteralsAndComments(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want Level
	}{
		{"keyword in literal", "SELECT * FROM logs WHERE message = 'drop table users'", ReadOnly},
		{"escaped quote in literal", "SELECT 'it''s a truncate' AS note", ReadOnly},
		{"line comment", "SELECT 1 -- delete from users", ReadOnly},
		{"block comment", "SELECT /* grant all */ 1", ReadOnly},
		{"where only in literal", "DELETE FROM users -- where id = 1", Destructive},
		{"multi-line drop", "SELECT 1;\nDROP\n  TABLE users", Destructive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.sql)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestClassifyEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want Level
	}{
		{"empty string", "", ReadOnly},
		{"whitespace only", "   \t  ", ReadOnly},
		// Keyword-level matching cannot see identifiers for what they are.
		{"column named grant", "SELECT grant FROM awards", Destructive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.sql)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{ReadOnly, "read-only"},
		{Write, "write"},
		{Destructive, "destructive"},
		{Level(99), "read-only"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevelWarning(t *testing.T) {
	if w := ReadOnly.Warning(); w != "" {
		t.Errorf("ReadOnly.Warning() = %q, want empty", w)
	}
	if Write.Warning() == "" || Destructive.Warning() == "" {
		t.Error("modifying levels must carry a warning")
	}
}
