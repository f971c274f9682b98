package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDefinitions = `
version: "3.10"
model: "55"
authorizers:
  SP:
    homologacao:
      NfeAutorizacao:
        url: https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao.asmx
        method: nfeAutorizacaoLote
        operation: NfeAutorizacao
  SVCAN:
    homologacao:
      NfeAutorizacao:
        url: https://hom.svc.fazenda.gov.br/NfeAutorizacao/NfeAutorizacao.asmx
        method: nfeAutorizacaoLote
        operation: NfeAutorizacao
        version: "3.10"
jurisdictions:
  SP:
    authorizer: SP
  SVCAN:
    authorizer: SVCAN
`

func loadEmbedded(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load(EmbeddedLoader(), "4.00", ModelNFe, ModelNFCe)
	require.NoError(t, err)
	return cat
}

func TestLoad_Embedded(t *testing.T) {
	cat := loadEmbedded(t)

	assert.Equal(t, "4.00", cat.Version())
	assert.Greater(t, cat.Len(), 300)

	jurisdictions := cat.Jurisdictions(ModelNFe)
	for _, uf := range []string{"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG", "MS", "MT",
		"PA", "PB", "PE", "PI", "PR", "RJ", "RN", "RO", "RR", "RS", "SC", "SE", "SP", "TO"} {
		assert.Contains(t, jurisdictions, uf)
	}
	assert.Contains(t, jurisdictions, "SVCAN")
	assert.Contains(t, jurisdictions, "SVCRS")
	assert.Contains(t, jurisdictions, "EPEC")
}

func TestLookup(t *testing.T) {
	cat := loadEmbedded(t)

	tests := []struct {
		name         string
		service      string
		jurisdiction string
		env          Environment
		model        Model
		wantURL      string
		wantMethod   string
	}{
		{
			name:         "own authorizer",
			service:      ServiceAuthorization,
			jurisdiction: "SP",
			env:          Homologation,
			model:        ModelNFe,
			wantURL:      "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			wantMethod:   "nfeAutorizacaoLote",
		},
		{
			name:         "virtual authorizer",
			service:      ServiceStatus,
			jurisdiction: "SC",
			env:          Production,
			model:        ModelNFe,
			wantURL:      "https://nfe.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
			wantMethod:   "nfeStatusServicoNF",
		},
		{
			name:         "contingency code",
			service:      ServiceAuthorization,
			jurisdiction: "SVCAN",
			env:          Homologation,
			model:        ModelNFe,
			wantURL:      "https://hom.svc.fazenda.gov.br/NFeAutorizacao4/NFeAutorizacao4.asmx",
			wantMethod:   "nfeAutorizacaoLote",
		},
		{
			name:         "epec",
			service:      ServiceEPEC,
			jurisdiction: "EPEC",
			env:          Production,
			model:        ModelNFe,
			wantURL:      "https://www.nfe.fazenda.gov.br/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
			wantMethod:   "nfeRecepcaoEvento",
		},
		{
			name:         "nfce qr code override",
			service:      ServiceQRCode,
			jurisdiction: "SP",
			env:          Production,
			model:        ModelNFCe,
			wantURL:      "https://www.nfce.fazenda.sp.gov.br/qrcode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := cat.Lookup(tt.service, tt.jurisdiction, tt.env, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, entry.URL)
			assert.Equal(t, tt.wantMethod, entry.Method)
			assert.NotEmpty(t, entry.Version)
		})
	}
}

func TestLookup_NotFound(t *testing.T) {
	cat := loadEmbedded(t)

	_, err := cat.Lookup(ServiceAuthorization, "XX", Homologation, ModelNFe)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = cat.Lookup(ServiceAuthorization, "EPEC", Homologation, ModelNFe)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = cat.Lookup(ServiceQRCode, "SP", Homologation, ModelNFe)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestLookup_Pure(t *testing.T) {
	cat := loadEmbedded(t)

	first, err := cat.Lookup(ServiceEvent, "MG", Production, ModelNFe)
	require.NoError(t, err)
	second, err := cat.Lookup(ServiceEvent, "MG", Production, ModelNFe)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoad_MissingDefinitions(t *testing.T) {
	_, err := Load(EmbeddedLoader(), "9.99", ModelNFe)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	_, err = Load(NewDirLoader(t.TempDir()), "4.00", ModelNFe)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestLoad_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"wsnfe_3.10_mod55.yaml": &fstest.MapFile{Data: []byte(legacyDefinitions)},
	}

	cat, err := Load(NewFSLoader(fsys), "3.10", ModelNFe)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	entry, err := cat.Lookup(ServiceAuthorization, "SP", Homologation, ModelNFe)
	require.NoError(t, err)
	assert.Equal(t, "3.10", entry.Version, "version defaults to the catalog version")
	assert.Equal(t, "NfeAutorizacao", entry.Operation)
}

func TestLoad_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "version: [unclosed"},
		{name: "version mismatch", data: "version: \"4.00\"\nmodel: \"55\"\n"},
		{name: "unknown authorizer", data: "version: \"3.10\"\nmodel: \"55\"\njurisdictions:\n  SP:\n    authorizer: NOPE\n"},
		{name: "missing url", data: "version: \"3.10\"\nmodel: \"55\"\nauthorizers:\n  SP:\n    homologacao:\n      NfeAutorizacao:\n        method: x\njurisdictions:\n  SP:\n    authorizer: SP\n"},
		{name: "unknown environment", data: "version: \"3.10\"\nmodel: \"55\"\nauthorizers:\n  SP:\n    staging:\n      NfeAutorizacao:\n        url: https://x\njurisdictions:\n  SP:\n    authorizer: SP\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"wsnfe_3.10_mod55.yaml": &fstest.MapFile{Data: []byte(tt.data)}}
			_, err := Load(NewFSLoader(fsys), "3.10", ModelNFe)
			assert.ErrorIs(t, err, ErrCatalogUnavailable)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("homologacao")
	require.NoError(t, err)
	assert.Equal(t, Homologation, env)

	env, err = ParseEnvironment("1")
	require.NoError(t, err)
	assert.Equal(t, Production, env)
	assert.Equal(t, "producao", env.String())

	_, err = ParseEnvironment("staging")
	assert.Error(t, err)
}

func TestJurisdictionCodes(t *testing.T) {
	code, err := JurisdictionCode("sp")
	require.NoError(t, err)
	assert.Equal(t, 35, code)

	uf, err := JurisdictionByCode("43")
	require.NoError(t, err)
	assert.Equal(t, "RS", uf)

	_, err = JurisdictionByCode("99")
	assert.Error(t, err)
	_, err = JurisdictionCode("XX")
	assert.Error(t, err)
}
