package catalog

import (
	"fmt"
	"strings"
)

// Service names used as catalog keys
const (
	ServiceStatus              = "NfeStatusServico"
	ServiceAuthorization       = "NfeAutorizacao"
	ServiceAuthorizationResult = "NfeRetAutorizacao"
	ServiceProtocolQuery       = "NfeConsultaProtocolo"
	ServiceInutilization       = "NfeInutilizacao"
	ServiceEvent               = "RecepcaoEvento"
	ServiceEPEC                = "RecepcaoEPEC"
	ServiceRegistryQuery       = "NfeConsultaCadastro"
	ServiceDistribution        = "NfeDistribuicaoDFe"
	ServiceQRCode              = "NfeConsultaQR"
	ServiceKeyQuery            = "NfeConsultaChave"
)

// Environment is the tpAmb of a document
type Environment int

const (
	Production   Environment = 1
	Homologation Environment = 2
)

// ParseEnvironment accepts the tpAmb digit or the environment name
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "producao", "produção", "production":
		return Production, nil
	case "2", "homologacao", "homologação", "homologation":
		return Homologation, nil
	}
	return 0, fmt.Errorf("unknown environment %q", s)
}

// String returns the name used in definition files
func (e Environment) String() string {
	switch e {
	case Production:
		return "producao"
	case Homologation:
		return "homologacao"
	}
	return fmt.Sprintf("environment(%d)", int(e))
}

// Model is the document model code
type Model string

const (
	// ModelNFe is the business-to-business invoice
	ModelNFe Model = "55"
	// ModelNFCe is the consumer-facing invoice
	ModelNFCe Model = "65"
)

// ParseModel validates a model code
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.TrimSpace(s)); m {
	case ModelNFe, ModelNFCe:
		return m, nil
	}
	return "", fmt.Errorf("unknown document model %q", s)
}

// Entry is the catalog record of one web service
type Entry struct {
	URL       string `yaml:"url"`
	Method    string `yaml:"method"`
	Operation string `yaml:"operation"`
	Version   string `yaml:"version"`
}

// Key addresses one catalog entry
type Key struct {
	Service      string
	Jurisdiction string
	Environment  Environment
	Model        Model
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/mod%s", k.Service, k.Jurisdiction, k.Environment, k.Model)
}
