package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-nfe/internal/fixtures"
	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	opts, err := parseFlags([]string{"-config", "c.yaml", "-contingency", "EPEC", "-motive", "link down", "nfe.xml"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "c.yaml", opts.configPath)
	assert.Equal(t, catalog.ServiceAuthorization, opts.service)
	assert.Equal(t, "EPEC", opts.contingency)
	assert.Equal(t, "link down", opts.motive)
	assert.Equal(t, "nfe.xml", opts.input)

	_, err = parseFlags(nil, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "usage: nfe-transmit")

	_, err = parseFlags([]string{"-contingency", "EPEC", "-clear-contingency", "nfe.xml"}, &stderr)
	assert.Error(t, err)
}

func TestApplyContingency(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want contingency.Type
	}{
		{"explicit", options{contingency: "svcrs", motive: "sefaz fora do ar"}, contingency.SVCRS},
		{"jurisdiction default", options{contingency: "AUTO", motive: "sefaz fora do ar"}, contingency.SVCAN},
		{"nothing declared", options{}, contingency.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := contingency.NewManager(nil)
			require.NoError(t, applyContingency(tt.opts, fixtures.NFe(), m))
			assert.Equal(t, tt.want, m.Current().Type)
		})
	}

	m := contingency.NewManager(nil)
	err := applyContingency(options{contingency: "EPEC"}, fixtures.NFe(), m)
	assert.ErrorIs(t, err, contingency.ErrInvalidArgument, "motive is required")

	err = applyContingency(options{contingency: "SVCXX", motive: "x"}, fixtures.NFe(), m)
	assert.ErrorIs(t, err, contingency.ErrInvalidArgument)

	require.NoError(t, applyContingency(options{contingency: "EPEC", motive: "link down"}, fixtures.NFe(), m))
	require.NoError(t, applyContingency(options{clear: true}, fixtures.NFe(), m))
	assert.False(t, m.Current().Active())
}

func TestStatePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contingency.json")

	m := contingency.NewManager(nil)
	require.NoError(t, loadState(path, m), "missing file is normal operation")
	assert.False(t, m.Current().Active())

	at := time.Date(2025, 7, 10, 13, 30, 0, 0, time.UTC)
	_, err := m.Activate(contingency.EPEC, "link down", at)
	require.NoError(t, err)
	require.NoError(t, saveState(path, m.Current()))

	restored := contingency.NewManager(nil)
	require.NoError(t, loadState(path, restored))
	got := restored.Current()
	assert.Equal(t, contingency.EPEC, got.Type)
	assert.Equal(t, "link down", got.Motive)
	assert.Equal(t, 4, got.EmissionMode)
	assert.True(t, at.Equal(got.ActivatedAt))

	require.NoError(t, loadState("", restored))
	require.NoError(t, saveState("", restored.Current()))
}

func TestRunMissingConfig(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "nfe.xml")
	require.NoError(t, os.WriteFile(doc, fixtures.NFe(), 0o600))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", filepath.Join(dir, "missing.yaml"),
		"-env-file", filepath.Join(dir, "missing.env"),
		doc,
	}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
