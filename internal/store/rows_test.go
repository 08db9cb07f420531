package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitRows(t *testing.T) {
	u := core.Unit{
		Kind:        core.KindVessel,
		Line:        7,
		ID:          "7",
		Vessel:      "MV OCEAN SUGAR",
		Process:     "P-31",
		Client:      "SUCDEN",
		Supplier:    "COPERSUCAR",
		GrossWeight: pgtype.Float8{Float64: 45120.5, Valid: true},
		Metrics: map[core.Metric]core.MetricSlot{
			core.Cor: {Current: pgtype.Float8{Float64: 980, Valid: true}},
		},
	}
	c := core.DefaultEngine().Classify(u)
	runID := uuid.New()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	rows, err := unitRows(runID, "vessel", day, []core.ClassifiedUnit{c})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Len(t, row, len(unitColumns))

	col := func(name string) any {
		for i, c := range unitColumns {
			if c == name {
				return row[i]
			}
		}
		t.Fatalf("no column %s", name)
		return nil
	}

	assert.Equal(t, runID, col("run_id"))
	assert.Equal(t, "MV OCEAN SUGAR", col("label"))
	assert.Equal(t, "P-31", col("document"))
	assert.Equal(t, "vessel", col("kind"))
	assert.Equal(t, pgtype.Float8{Float64: 980, Valid: true}, col("cor"))
	assert.Equal(t, pgtype.Float8{}, col("pol"), "absent reading stays NULL")
	assert.Equal(t, false, col("complete"))
	assert.Equal(t, string(core.StateDataIncomplete), col("state"))

	var d core.Decision
	require.NoError(t, json.Unmarshal(col("decision").([]byte), &d))
	assert.Equal(t, core.OutcomeAwaitingData, d.Outcome)
	assert.Contains(t, d.Incomplete, "pol")
}

func TestUnitRows_Empty(t *testing.T) {
	rows, err := unitRows(uuid.New(), "unit", time.Now(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
