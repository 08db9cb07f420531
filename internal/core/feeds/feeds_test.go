package feeds

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedsRegistered(t *testing.T) {
	var keys []string
	for _, def := range core.Feeds() {
		keys = append(keys, def.Key)
	}
	if diff := cmp.Diff([]string{UnitKey, VesselKey}, keys); diff != "" {
		t.Errorf("registered feeds mismatch (-want +got):\n%s", diff)
	}
}

const truckCSV = "ID;Placa;Nota Fiscal;Cliente;Usina;Destino;Data Pesagem;Peso Líquido T;" +
	"COR;COR Anterior;COR Data;COR Data NIR;COR Analista;POL;UM;CIN;RI;RI Anterior;RI Analista;" +
	"Autorização;Data Autorização;Boletim Doublecheck;Bola 7\n" +
	"101;ABC1D23;000123;\"RAIZEN (SP-04)\";USINA SANTA ELISA - 02;ARMAZEM NORTE;14/03/2025 07:45;" +
	"32,450;1.151;;14/03/2025 08:00;;robo_lab;99,35;0,08;0,09;450;600;maria.s;" +
	"APROVADO;14/03/2025 10:12;https://lab.example/dc/101.pdf;\n"

func TestUnitFeed_Build(t *testing.T) {
	def, ok := core.Feed(UnitKey)
	require.True(t, ok)

	res, err := core.ParseFeed(strings.NewReader(truckCSV), def)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	u := res.Units[0]

	assert.Equal(t, core.KindTruck, u.Kind)
	assert.Equal(t, "101", u.ID)
	assert.Equal(t, "ABC1D23", u.Plate)
	assert.Equal(t, "000123", u.Invoice)
	assert.Equal(t, "RAIZEN", u.Client)
	assert.Equal(t, "USINA SANTA ELISA", u.Supplier)
	assert.Equal(t, "ARMAZEM NORTE", u.Destination)
	assert.True(t, u.WeighedAt.Valid)
	assert.InDelta(t, 32.45, u.GrossWeight.Float64, 1e-9)

	assert.Equal(t, 1151.0, u.Value(core.Cor).Float64)
	assert.True(t, u.Slot(core.Cor).Date.Valid)
	assert.Equal(t, "", u.Slot(core.Cor).HumanAnalyst())
	assert.InDelta(t, 0.08, u.Value(core.Umi).Float64, 1e-9)
	assert.True(t, core.MetricWasRechecked(u, core.Ri))
	assert.Equal(t, []string{"maria.s"}, u.Analysts())

	assert.Equal(t, core.AuthApproved, u.Authorization)
	assert.Equal(t, "14/03/2025 10:12", u.AuthorizedAt)
	assert.Equal(t, "https://lab.example/dc/101.pdf", u.DoublecheckURL)
	assert.Empty(t, u.Bola7URL)

	c := core.DefaultEngine().Classify(u)
	assert.True(t, c.HadDoublecheck)
	assert.Equal(t, core.StateDoublecheckComplete, c.Decision.State)
	assert.Equal(t, "Released by terminal", c.Decision.Narrative)
}

func TestUnitFeed_CommaDelimitedSkipsMissingPlate(t *testing.T) {
	def, _ := core.Feed(UnitKey)
	input := "id,placa,peso,cor,pol\n1,,10,900,99.2\n2,XYZ9876,10,900,99.2\n"

	res, err := core.ParseFeed(strings.NewReader(input), def)
	require.NoError(t, err)
	assert.Equal(t, ",", res.Delimiter)
	require.Len(t, res.Units, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "licensePlate")
}

func TestVesselFeed_Build(t *testing.T) {
	def, ok := core.Feed(VesselKey)
	require.True(t, ok)

	input := "Navio;Processo;Cliente;Fornecedor;Quantidade;COR;POL;UMI;CIN;RI;COR Anterior\n" +
		"MV OCEAN SUGAR;P-2025/031;SUCDEN;COPERSUCAR 03;45.120,500;980;99,4;0,06;0,07;120;1300\n" +
		";P-2025/032;SUCDEN;COPERSUCAR;1.000;980;99,4;0,06;0,07;120;\n"

	res, err := core.ParseFeed(strings.NewReader(input), def)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	require.Len(t, res.Skipped, 1)

	u := res.Units[0]
	assert.Equal(t, core.KindVessel, u.Kind)
	assert.Equal(t, "2", u.ID, "vessel rows without an id use the line number")
	assert.Equal(t, "MV OCEAN SUGAR", u.Label())
	assert.Equal(t, "P-2025/031", u.DocumentNumber())
	assert.Equal(t, "COPERSUCAR", u.Supplier)
	assert.InDelta(t, 45120.5, u.GrossWeight.Float64, 1e-9)
	assert.False(t, u.HasPrevious(), "vessel feed ignores previous-value columns")

	d := core.DefaultEngine().Reconciler.Decide(u)
	assert.Equal(t, core.StateNIRDirect, d.State)
	assert.Equal(t, core.OutcomeReleasedByAnalyzer, d.Outcome)
}

func TestFeeds_ParenthesisedWeightHeader(t *testing.T) {
	tests := []struct {
		feed  string
		input string
	}{
		{
			feed: UnitKey,
			input: "ID;Placa;NF;Cliente;Fornecedor;Peso Líquido (t);COR;POL;UMI;CIN;RI\n" +
				"7;ABC1D23;000123;SUCDEN;COPERSUCAR;30,5;980;99,4;0,06;0,07;120\n",
		},
		{
			feed: VesselKey,
			input: "Navio;Processo;Cliente;Fornecedor;Peso Líquido (t);COR;POL;UMI;CIN;RI\n" +
				"MV OCEAN SUGAR;P-2025/031;SUCDEN;COPERSUCAR;30,5;980;99,4;0,06;0,07;120\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.feed, func(t *testing.T) {
			def, ok := core.Feed(tt.feed)
			require.True(t, ok)

			res, err := core.ParseFeed(strings.NewReader(tt.input), def)
			require.NoError(t, err)
			require.Len(t, res.Units, 1)

			u := res.Units[0]
			require.True(t, u.GrossWeight.Valid)
			assert.InDelta(t, 30.5, u.GrossWeight.Float64, 1e-9)

			d := core.DefaultEngine().Reconciler.Decide(u)
			assert.Equal(t, core.StateNIRDirect, d.State)
			assert.Empty(t, d.Incomplete)
		})
	}
}
