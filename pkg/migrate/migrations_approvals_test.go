package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meridianerp/vendorhub-backend/pkg/migrate"
)

func TestApprovalMigrationsContainConstraints(t *testing.T) {
	cases := []struct {
		glob   string
		checks []string
	}{
		{
			glob: "*_create_approval_matrices.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS approval_levels",
				"FOREIGN KEY (matrix_id) REFERENCES approval_matrices(id) ON DELETE CASCADE",
				"ux_approval_levels_matrix_sequence ON approval_levels (matrix_id, sequence)",
				"CHECK (sequence >= 1)",
				"DROP TABLE IF EXISTS approval_levels",
			},
		},
		{
			glob: "*_create_carrier_documents.sql",
			checks: []string{
				"CREATE TYPE approval_status AS ENUM ('pending', 'approved', 'rejected')",
				"lock_version               INTEGER NOT NULL DEFAULT 0",
				"CHECK (approval_status IN (0, 1))",
				"FOREIGN KEY (document_id) REFERENCES carrier_documents(id) ON DELETE CASCADE",
				"DROP TABLE IF EXISTS approval_history_entries",
			},
		},
		{
			glob: "*_create_outbox_tables.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS outbox_events",
				"WHERE published_at IS NULL",
				"ux_outbox_dlq_event_id",
				"DROP TABLE IF EXISTS outbox_dlq",
			},
		},
	}

	for _, tc := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", tc.glob))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) == 0 {
			t.Fatalf("no migration matching %q", tc.glob)
		}

		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)

		for _, sub := range tc.checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
