// Package config handles configuration loading for the transmitter.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so certificate passwords and
// CSC tokens can be injected at runtime. Defaults are applied after parsing
// and the result is validated before it is returned: a configuration that
// loads is complete.
//
// # Configuration Sections
//
//   - environment, model, layoutVersion: what the documents are issued for
//   - catalog, schemas: where web service definitions and XSDs live
//   - certificate: the A1 certificate used to sign and authenticate
//   - nfce: CSC token for NFC-e verification codes
//   - transport: HTTPS timeouts, compression and batch mode
//   - contingency: persisted contingency state and dhCont time zone
//   - logging: slog level and handler format
//
// # Example Configuration
//
//	environment: homologacao
//	model: "55"
//	certificate:
//	  path: /etc/nfe/a1.pfx
//	  password: ${NFE_CERT_PASSWORD}
//	nfce:
//	  cscId: "000001"
//	  csc: ${NFE_CSC}
//	logging:
//	  level: debug
//	  format: json
//
// See [Load] for loading configuration from a file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/document"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

// Config is the root configuration structure
type Config struct {
	Environment   string `yaml:"environment" validate:"required,oneof=producao homologacao 1 2"`
	Model         string `yaml:"model" validate:"required,oneof=55 65"`
	LayoutVersion string `yaml:"layoutVersion" validate:"required"`

	Catalog     CatalogConfig     `yaml:"catalog"`
	Schemas     SchemaConfig      `yaml:"schemas"`
	Certificate CertificateConfig `yaml:"certificate"`
	Signature   SignatureConfig   `yaml:"signature"`
	NFCe        NFCeConfig        `yaml:"nfce"`
	Transport   TransportConfig   `yaml:"transport"`
	Contingency ContingencyConfig `yaml:"contingency"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CatalogConfig locates the web service definitions
type CatalogConfig struct {
	// Dir overrides the embedded definitions
	Dir string `yaml:"dir"`
}

// SchemaConfig locates the XSD files
type SchemaConfig struct {
	Dir string `yaml:"dir"`
}

// CertificateConfig holds the A1 certificate source
type CertificateConfig struct {
	// Path is a .pfx/.p12 bundle or a PEM certificate
	Path     string `yaml:"path" validate:"required"`
	KeyPath  string `yaml:"keyPath"`
	Password string `yaml:"password"`
	// CABundles are PEM files trusted for the authorizer TLS certificates;
	// empty means the system pool
	CABundles []string `yaml:"caBundles"`
}

// SignatureConfig holds XML-DSig settings
type SignatureConfig struct {
	Algorithm string `yaml:"algorithm" validate:"oneof=sha1 sha256"`
}

// NFCeConfig holds the taxpayer security code
type NFCeConfig struct {
	CSCID string `yaml:"cscId" validate:"omitempty,numeric,max=6"`
	CSC   string `yaml:"csc" validate:"omitempty,min=16,max=36"`
}

// TransportConfig holds HTTPS settings
type TransportConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	Compress    bool          `yaml:"compress"`
	Synchronous *bool         `yaml:"synchronous"`
}

// ContingencyConfig holds contingency settings
type ContingencyConfig struct {
	// StateFile persists the declared contingency state between runs
	StateFile string `yaml:"stateFile"`
	// TimeZone formats dhCont; empty means UTC-03:00
	TimeZone string `yaml:"timeZone"`
}

// LoggingConfig holds slog settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML content
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "homologacao"
	}
	if c.Model == "" {
		c.Model = string(catalog.ModelNFe)
	}
	if c.LayoutVersion == "" {
		c.LayoutVersion = "4.00"
	}
	if c.Schemas.Dir == "" {
		c.Schemas.Dir = "schemas"
	}
	if c.Signature.Algorithm == "" {
		c.Signature.Algorithm = string(xmldsig.SHA1)
	}
	c.Signature.Algorithm = strings.ToLower(c.Signature.Algorithm)
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = 30 * time.Second
	}
	if c.Transport.Synchronous == nil {
		sync := true
		c.Transport.Synchronous = &sync
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Model == string(catalog.ModelNFCe) && (c.NFCe.CSC == "" || c.NFCe.CSCID == "") {
		return errors.New("nfce.cscId and nfce.csc are required for model 65")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Env returns the configured environment
func (c *Config) Env() catalog.Environment {
	env, _ := catalog.ParseEnvironment(c.Environment)
	return env
}

// DocumentModel returns the configured default model
func (c *Config) DocumentModel() catalog.Model {
	return catalog.Model(c.Model)
}

// Algorithm returns the signature algorithm
func (c *Config) Algorithm() xmldsig.Algorithm {
	return xmldsig.Algorithm(c.Signature.Algorithm)
}

// Synchronous reports whether authorization batches request indSinc=1
func (c *Config) Synchronous() bool {
	return c.Transport.Synchronous == nil || *c.Transport.Synchronous
}

// Location returns the time zone used for dhCont
func (c *Config) Location() (*time.Location, error) {
	if c.Contingency.TimeZone == "" {
		return document.DefaultLocation, nil
	}
	loc, err := time.LoadLocation(c.Contingency.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("contingency.timeZone: %w", err)
	}
	return loc, nil
}

// LogLevel returns the slog level
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds the configured slog logger writing to w
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
