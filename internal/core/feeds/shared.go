package feeds

import "github.com/JonMunkholm/qualityfeed/internal/core"

// sharedAliases are the party, authorization and metric spellings both feeds use.
func sharedAliases() core.AliasTable {
	t := core.AliasTable{
		"cliente":   core.FieldClient,
		"client":    core.FieldClient,
		"comprador": core.FieldClient,

		"fornecedor": core.FieldSupplier,
		"supplier":   core.FieldSupplier,
		"usina":      core.FieldSupplier,
		"origem":     core.FieldSupplier,

		"destino":     core.FieldDestination,
		"destination": core.FieldDestination,

		"autorizacao":        core.FieldAutorizacao,
		"status_autorizacao": core.FieldAutorizacao,
		"authorization":      core.FieldAutorizacao,

		"data_autorizacao": core.FieldDataAutorizacao,
		"dataautorizacao":  core.FieldDataAutorizacao,
		"authorized_at":    core.FieldDataAutorizacao,
	}

	core.MetricAliases(t, core.Cor, "cor", "icumsa", "color")
	core.MetricAliases(t, core.Pol, "pol", "polarizacao")
	core.MetricAliases(t, core.Umi, "umi", "um", "umidade")
	core.MetricAliases(t, core.Cin, "cin", "cinzas", "cz")
	core.MetricAliases(t, core.Ri, "ri", "residuo_insoluvel")
	return t
}
