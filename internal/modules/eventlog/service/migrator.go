package service

import (
	"context"
	"fmt"
	"log/slog"

	"intent/internal/modules/eventlog/domain"
	eventlogout "intent/internal/modules/eventlog/port/out"
	"intent/internal/platform/catalog"
)

// Migrator applies pending schema steps to the raw persisted records. Each
// step runs at most once per store; the version only moves forward.
type Migrator struct {
	catalog catalog.Catalog
	logs    eventlogout.LogStore
	meta    eventlogout.MetaStore
	logger  *slog.Logger
}

type MigrationResult struct {
	From     int
	To       int
	Rewrites int
}

func NewMigrator(c catalog.Catalog, logs eventlogout.LogStore, meta eventlogout.MetaStore, logger *slog.Logger) *Migrator {
	return &Migrator{catalog: c, logs: logs, meta: meta, logger: logger}
}

func (m *Migrator) Migrate(ctx context.Context) (MigrationResult, error) {
	meta, err := m.meta.LoadMeta(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("load schema meta: %w", err)
	}
	from := meta.Version()
	result := MigrationResult{From: from, To: from}
	steps := domain.Pending(from)
	if len(steps) == 0 {
		return result, nil
	}

	recs, err := m.logs.LoadRaw(ctx)
	if err != nil {
		return result, fmt.Errorf("load records for migration: %w", err)
	}
	for _, step := range steps {
		n := step.Apply(recs, m.catalog)
		result.Rewrites += n
		result.To = step.To
		m.logger.Info("schema step applied", "to", step.To, "step", step.Name, "rewrites", n)
	}
	if result.Rewrites > 0 {
		if err := m.logs.SaveRaw(ctx, recs); err != nil {
			return MigrationResult{From: from, To: from}, fmt.Errorf("save migrated records: %w", err)
		}
	}
	if err := m.meta.SaveMeta(ctx, domain.Meta{SchemaVersion: result.To}); err != nil {
		return result, fmt.Errorf("save schema meta: %w", err)
	}
	return result, nil
}

// Current reports the recorded schema version.
func (m *Migrator) Current(ctx context.Context) (int, error) {
	meta, err := m.meta.LoadMeta(ctx)
	if err != nil {
		return 0, err
	}
	return meta.Version(), nil
}

// Stamp records the latest schema version without touching records. Used
// after a whole-log replacement, which always writes normalized records.
func (m *Migrator) Stamp(ctx context.Context) error {
	if err := m.meta.SaveMeta(ctx, domain.Meta{SchemaVersion: domain.SchemaVersion}); err != nil {
		return fmt.Errorf("save schema meta: %w", err)
	}
	return nil
}
