package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// InstallDatabase handles POST /api/v1/system/install
// Executes the bundled SQL migrations for PostgreSQL (session history) and
// ClickHouse (observation log). Statements are idempotent, so re-running the
// install is safe.
func (h *Handler) InstallDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results := make(map[string]string)
	hasError := false

	pgSchemaPath := filepath.Join("migrations", "postgres", "001_initial_schema.sql")
	if err := h.installPostgresSchema(ctx, pgSchemaPath); err != nil {
		results["postgres"] = "failed: " + err.Error()
		hasError = true
	} else {
		results["postgres"] = "success"
	}

	chSchemaPath := filepath.Join("migrations", "clickhouse", "001_initial_schema.sql")
	if err := h.installClickHouseSchema(ctx, chSchemaPath); err != nil {
		results["clickhouse"] = "failed: " + err.Error()
		hasError = true
	} else {
		results["clickhouse"] = "success"
	}

	statusCode := http.StatusOK
	if hasError {
		statusCode = http.StatusInternalServerError
	}

	h.jsonResponse(w, statusCode, map[string]interface{}{
		"status":  "completed",
		"results": results,
		"error":   hasError,
	})
}

func (h *Handler) installPostgresSchema(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		h.logger.Errorw("failed to read schema file", "db", "PostgreSQL", "path", path, "error", err)
		return err
	}

	if _, err := h.pg.Exec(ctx, string(content)); err != nil {
		h.logger.Errorw("failed to execute schema", "db", "PostgreSQL", "error", err)
		return err
	}

	h.logger.Infow("successfully installed schema", "db", "PostgreSQL")
	return nil
}

func (h *Handler) installClickHouseSchema(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		h.logger.Errorw("failed to read schema file", "db", "ClickHouse", "path", path, "error", err)
		return err
	}

	// The ClickHouse driver wants DDL one statement at a time
	for _, stmt := range strings.Split(string(content), ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}

		if err := h.ch.Exec(ctx, trimmed); err != nil {
			h.logger.Errorw("failed to execute statement", "db", "ClickHouse", "error", err,
				"statement", trimmed[:min(len(trimmed), 50)]+"...")
			return err
		}
	}

	h.logger.Infow("successfully installed schema", "db", "ClickHouse")
	return nil
}
