package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/document"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "certificate:\n  path: /etc/nfe/a1.pfx\n"))
	require.NoError(t, err)

	assert.Equal(t, catalog.Homologation, cfg.Env())
	assert.Equal(t, catalog.ModelNFe, cfg.DocumentModel())
	assert.Equal(t, "4.00", cfg.LayoutVersion)
	assert.Equal(t, "schemas", cfg.Schemas.Dir)
	assert.Equal(t, xmldsig.SHA1, cfg.Algorithm())
	assert.Equal(t, 30*time.Second, cfg.Transport.Timeout)
	assert.True(t, cfg.Synchronous())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Equal(t, "text", cfg.Logging.Format)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, document.DefaultLocation, loc)
}

func TestLoad_Full(t *testing.T) {
	t.Setenv("NFE_CERT_PASSWORD", "s3cr3t")
	t.Setenv("NFE_CSC", "G8063VRTNDMO886SFNK5LDUDEI24XJ22YIPO")

	cfg, err := Load(writeConfig(t, `
environment: producao
model: "65"
layoutVersion: "4.00"
catalog:
  dir: /etc/nfe/catalog
schemas:
  dir: /etc/nfe/schemas
certificate:
  path: /etc/nfe/a1.pfx
  password: ${NFE_CERT_PASSWORD}
  caBundles:
    - /etc/nfe/icp-brasil.pem
signature:
  algorithm: SHA256
nfce:
  cscId: "000001"
  csc: ${NFE_CSC}
transport:
  timeout: 45s
  compress: true
  synchronous: false
contingency:
  stateFile: /var/lib/nfe/contingency.json
  timeZone: UTC
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, catalog.Production, cfg.Env())
	assert.Equal(t, catalog.ModelNFCe, cfg.DocumentModel())
	assert.Equal(t, "/etc/nfe/catalog", cfg.Catalog.Dir)
	assert.Equal(t, "s3cr3t", cfg.Certificate.Password)
	assert.Equal(t, []string{"/etc/nfe/icp-brasil.pem"}, cfg.Certificate.CABundles)
	assert.Equal(t, xmldsig.SHA256, cfg.Algorithm())
	assert.Equal(t, "G8063VRTNDMO886SFNK5LDUDEI24XJ22YIPO", cfg.NFCe.CSC)
	assert.Equal(t, 45*time.Second, cfg.Transport.Timeout)
	assert.True(t, cfg.Transport.Compress)
	assert.False(t, cfg.Synchronous())
	assert.Equal(t, "/var/lib/nfe/contingency.json", cfg.Contingency.StateFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing certificate",
			content: "environment: homologacao\n",
			wantErr: "Config.Certificate.Path",
		},
		{
			name:    "unknown environment",
			content: "environment: staging\ncertificate:\n  path: a.pfx\n",
			wantErr: "Config.Environment",
		},
		{
			name:    "unknown model",
			content: "model: \"57\"\ncertificate:\n  path: a.pfx\n",
			wantErr: "Config.Model",
		},
		{
			name:    "unknown algorithm",
			content: "signature:\n  algorithm: md5\ncertificate:\n  path: a.pfx\n",
			wantErr: "Config.Signature.Algorithm",
		},
		{
			name:    "unknown log format",
			content: "logging:\n  format: xml\ncertificate:\n  path: a.pfx\n",
			wantErr: "Config.Logging.Format",
		},
		{
			name:    "nfce without csc",
			content: "model: \"65\"\ncertificate:\n  path: a.pfx\n",
			wantErr: "nfce.cscId and nfce.csc are required",
		},
		{
			name:    "non numeric csc id",
			content: "nfce:\n  cscId: abc\ncertificate:\n  path: a.pfx\n",
			wantErr: "Config.NFCe.CSCID",
		},
		{
			name:    "unknown time zone",
			content: "contingency:\n  timeZone: Mars/Olympus\ncertificate:\n  path: a.pfx\n",
			wantErr: "contingency.timeZone",
		},
		{
			name:    "malformed yaml",
			content: "environment: [\n",
			wantErr: "parsing config file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg, err := Parse([]byte("logging:\n  format: json\n  level: warn\ncertificate:\n  path: a.pfx\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("dropped")
	logger.Warn("kept", "uf", "SP")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"uf":"SP"`)
}
