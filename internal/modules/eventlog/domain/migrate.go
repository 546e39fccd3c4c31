package domain

import (
	"strings"

	"intent/internal/platform/catalog"
)

// SchemaVersion is the latest persisted schema the migrator produces.
const SchemaVersion = 4

type Meta struct {
	SchemaVersion int `json:"schemaVersion"`
}

// Version is the recorded schema version; logs that predate the meta record
// are version 1.
func (m Meta) Version() int {
	if m.SchemaVersion < 1 {
		return 1
	}
	return m.SchemaVersion
}

// MigrationStep upgrades raw records from To-1 to To. Apply returns the
// number of records it rewrote and must leave already-migrated records alone.
type MigrationStep struct {
	To    int
	Name  string
	Apply func(recs []any, c catalog.Catalog) int
}

var migrations = []MigrationStep{
	{To: 2, Name: "backfill planned minutes", Apply: backfillPlanned},
	{To: 3, Name: "normalize app tags", Apply: normalizeApps},
	{To: 4, Name: "rename legacy kind and intent fields", Apply: renameLegacy},
}

func Migrations() []MigrationStep {
	out := make([]MigrationStep, len(migrations))
	copy(out, migrations)
	return out
}

// Pending lists the steps needed to bring from up to SchemaVersion.
func Pending(from int) []MigrationStep {
	out := []MigrationStep{}
	for _, step := range migrations {
		if step.To > from {
			out = append(out, step)
		}
	}
	return out
}

func rawKind(rec map[string]any) string {
	return strings.ToLower(str(firstOf(rec, "kind", "mode", "type")))
}

func backfillPlanned(recs []any, c catalog.Catalog) int {
	changed := 0
	for i, raw := range recs {
		rec, ok := raw.(map[string]any)
		if !ok || rawKind(rec) != string(KindAllow) {
			continue
		}
		if _, ok := number(rec["minutesPlanned"]); ok {
			continue
		}
		next := copyRecord(rec)
		next["minutesPlanned"] = PlannedDefault(c, c.Resolve(str(rec["app"])))
		recs[i] = next
		changed++
	}
	return changed
}

func normalizeApps(recs []any, c catalog.Catalog) int {
	changed := 0
	for i, raw := range recs {
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tag, _ := rec["app"].(string)
		resolved := resolveApp(c, ParseKind(rawKind(rec)), strings.TrimSpace(tag))
		if tag == resolved {
			continue
		}
		next := copyRecord(rec)
		next["app"] = resolved
		recs[i] = next
		changed++
	}
	return changed
}

func renameLegacy(recs []any, _ catalog.Catalog) int {
	changed := 0
	for i, raw := range recs {
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		_, hasMode := rec["mode"]
		_, hasType := rec["type"]
		intent, _ := rec["intent"].(string)
		renamed := ParseIntent(intent)
		intentStale := intent != "" && renamed != IntentNone && string(renamed) != intent
		if !hasMode && !hasType && !intentStale {
			continue
		}
		next := copyRecord(rec)
		if str(next["kind"]) == "" {
			next["kind"] = rawKind(rec)
		}
		delete(next, "mode")
		delete(next, "type")
		if intentStale {
			next["intent"] = string(renamed)
		}
		recs[i] = next
		changed++
	}
	return changed
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
