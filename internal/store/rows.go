package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/google/uuid"
)

// unitColumns is the COPY column order of classified_units.
var unitColumns = []string{
	"run_id", "feed", "day", "line", "unit_id", "kind", "label", "document",
	"client", "supplier", "weighed_at", "gross_weight",
	"cor", "pol", "umi", "cin", "ri",
	"status", "has_other_oos", "had_doublecheck", "complete",
	"state", "outcome", "authorization_value", "decision",
}

// unitRows flattens classified units into COPY rows. Absent readings stay
// pgtype values with Valid=false and are written as NULL.
func unitRows(runID uuid.UUID, feed string, day time.Time, units []core.ClassifiedUnit) ([][]any, error) {
	rows := make([][]any, 0, len(units))
	for _, u := range units {
		decision, err := json.Marshal(u.Decision)
		if err != nil {
			return nil, fmt.Errorf("encode decision for line %d: %w", u.Line, err)
		}
		rows = append(rows, []any{
			runID, feed, day, u.Line, u.ID, string(u.Kind), u.Label(), u.DocumentNumber(),
			u.Client, u.Supplier, u.WeighedAt, u.GrossWeight,
			u.Value(core.Cor), u.Value(core.Pol), u.Value(core.Umi), u.Value(core.Cin), u.Value(core.Ri),
			string(u.Status), u.HasOtherOutOfSpec, u.HadDoublecheck, u.Complete,
			string(u.Decision.State), string(u.Decision.Outcome), string(u.Authorization), decision,
		})
	}
	return rows, nil
}
