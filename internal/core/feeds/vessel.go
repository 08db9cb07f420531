package feeds

import (
	"strconv"

	"github.com/JonMunkholm/qualityfeed/internal/core"
)

// VesselKey is the registry key of the ship feed.
const VesselKey = "vessel"

// The vessel feed never carries previous values, analysts or bulletins, so
// its units only ever reconcile to NIR-direct or data-incomplete.
func init() {
	core.RegisterFeed(core.FeedDefinition{
		Key:      VesselKey,
		Label:    "Vessels",
		Kind:     core.KindVessel,
		Aliases:  vesselAliases(),
		Required: []core.Field{core.FieldVessel, core.FieldGrossWeight},
		Build:    buildVessel,
	})
}

func vesselAliases() core.AliasTable {
	t := core.AliasTable{
		"id": core.FieldID,

		"navio":       core.FieldVessel,
		"embarcacao":  core.FieldVessel,
		"vessel":      core.FieldVessel,
		"nome_navio":  core.FieldVessel,

		"processo":        core.FieldProcess,
		"numero_processo": core.FieldProcess,
		"n_processo":      core.FieldProcess,
		"process":         core.FieldProcess,

		"data":            core.FieldWeighedAt,
		"data_embarque":   core.FieldWeighedAt,

		"quantidade":     core.FieldGrossWeight,
		"quantity":       core.FieldGrossWeight,
		"peso":           core.FieldGrossWeight,
		"peso_liquido_t": core.FieldGrossWeight,
		"tonelagem":      core.FieldGrossWeight,
	}
	return t.Merge(sharedAliases())
}

func buildVessel(row []string, cm core.ColumnMap, line int) core.Unit {
	id := cm.Cell(row, core.FieldID)
	if id == "" {
		id = strconv.Itoa(line)
	}

	metrics := make(map[core.Metric]core.MetricSlot, len(core.Metrics))
	for _, m := range core.Metrics {
		slot := core.ReadMetricSlot(row, cm, m)
		metrics[m] = core.MetricSlot{Current: slot.Current, Date: slot.Date}
	}

	return core.Unit{
		ID:          id,
		Vessel:      cm.Cell(row, core.FieldVessel),
		Process:     cm.Cell(row, core.FieldProcess),
		Client:      core.CleanLabel(cm.Cell(row, core.FieldClient)),
		Supplier:    core.CleanLabel(cm.Cell(row, core.FieldSupplier)),
		Destination: core.CleanLabel(cm.Cell(row, core.FieldDestination)),
		WeighedAt:   core.ParseLocalDateTime(cm.Cell(row, core.FieldWeighedAt)),
		GrossWeight: core.ParseDecimal(cm.Cell(row, core.FieldGrossWeight)),
		Metrics:     metrics,
	}
}
