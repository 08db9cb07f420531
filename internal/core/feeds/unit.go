package feeds

import (
	"github.com/JonMunkholm/qualityfeed/internal/core"
)

// UnitKey is the registry key of the truck feed.
const UnitKey = "unit"

func init() {
	core.RegisterFeed(core.FeedDefinition{
		Key:      UnitKey,
		Label:    "Trucks",
		Kind:     core.KindTruck,
		Aliases:  unitAliases(),
		Required: []core.Field{core.FieldID, core.FieldLicensePlate},
		Build:    buildTruck,
	})
}

func unitAliases() core.AliasTable {
	t := core.AliasTable{
		"id":        core.FieldID,
		"codigo":    core.FieldID,
		"id_pesagem": core.FieldID,

		"placa":         core.FieldLicensePlate,
		"placa_veiculo": core.FieldLicensePlate,
		"license_plate": core.FieldLicensePlate,
		"licenseplate":  core.FieldLicensePlate,

		"nota_fiscal":    core.FieldInvoice,
		"notafiscal":     core.FieldInvoice,
		"nf":             core.FieldInvoice,
		"numero_nf":      core.FieldInvoice,
		"n_nf":           core.FieldInvoice,
		"invoice":        core.FieldInvoice,
		"invoice_number": core.FieldInvoice,
		"invoicenumber":  core.FieldInvoice,

		"data":         core.FieldWeighedAt,
		"data_pesagem": core.FieldWeighedAt,
		"datapesagem":  core.FieldWeighedAt,

		"peso":           core.FieldGrossWeight,
		"peso_liquido_t": core.FieldGrossWeight,
		"peso_liquido":   core.FieldGrossWeight,
		"peso_bruto":     core.FieldGrossWeight,
		"tonelagem":      core.FieldGrossWeight,
		"gross_weight":   core.FieldGrossWeight,
		"grossweight":    core.FieldGrossWeight,
		"tonnage":        core.FieldGrossWeight,

		"boletim_doublecheck": core.FieldDoublecheckURL,
		"url_doublecheck":     core.FieldDoublecheckURL,
		"doublecheck_url":     core.FieldDoublecheckURL,
		"doublecheckurl":      core.FieldDoublecheckURL,
		"doublecheck":         core.FieldDoublecheckURL,

		"boletim_bola7": core.FieldBola7URL,
		"bola7":         core.FieldBola7URL,
		"bola_7":        core.FieldBola7URL,
		"url_bola7":     core.FieldBola7URL,
		"bola7url":      core.FieldBola7URL,
		"bola7_url":     core.FieldBola7URL,
	}
	return t.Merge(sharedAliases())
}

func buildTruck(row []string, cm core.ColumnMap, line int) core.Unit {
	return core.Unit{
		ID:             cm.Cell(row, core.FieldID),
		Plate:          cm.Cell(row, core.FieldLicensePlate),
		Invoice:        cm.Cell(row, core.FieldInvoice),
		Client:         core.CleanLabel(cm.Cell(row, core.FieldClient)),
		Supplier:       core.CleanLabel(cm.Cell(row, core.FieldSupplier)),
		Destination:    core.CleanLabel(cm.Cell(row, core.FieldDestination)),
		WeighedAt:      core.ParseLocalDateTime(cm.Cell(row, core.FieldWeighedAt)),
		GrossWeight:    core.ParseDecimal(cm.Cell(row, core.FieldGrossWeight)),
		Metrics:        core.ReadMetrics(row, cm),
		Authorization:  core.ParseAuthorization(cm.Cell(row, core.FieldAutorizacao)),
		AuthorizedAt:   cm.Cell(row, core.FieldDataAutorizacao),
		DoublecheckURL: cm.Cell(row, core.FieldDoublecheckURL),
		Bola7URL:       cm.Cell(row, core.FieldBola7URL),
	}
}
