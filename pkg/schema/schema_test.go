package schema

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-nfe/internal/fixtures"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

func signedNFe(t *testing.T) []byte {
	t.Helper()
	key, cert, err := fixtures.Certificate()
	require.NoError(t, err)
	signer, err := xmldsig.NewSigner(key, cert)
	require.NoError(t, err)
	signed, err := signer.Sign(fixtures.NFe(), "infNFe", "Id", xmldsig.SHA1)
	require.NoError(t, err)
	return signed
}

func newValidator(t *testing.T) (*Validator, string) {
	t.Helper()
	dir := t.TempDir()
	path, err := fixtures.WriteSchema(dir)
	require.NoError(t, err)
	v := NewValidator(dir)
	t.Cleanup(v.Close)
	return v, path
}

func TestValidate_MissingSchemaIsValid(t *testing.T) {
	v := NewValidator(t.TempDir())

	path := v.Path("nfe", "4.00")
	assert.NoError(t, v.Validate([]byte("<anything/>"), path))
	assert.True(t, v.IsValid([]byte("not even xml"), path))
}

func TestPath(t *testing.T) {
	v := NewValidator("/opt/schemes/PL_009_V4")
	assert.Equal(t, filepath.Join("/opt/schemes/PL_009_V4", "nfe_v4.00.xsd"), v.Path("nfe", "4.00"))
	assert.Equal(t, filepath.Join("/opt/schemes/PL_009_V4", "enviNFe_v4.00.xsd"), v.Path("enviNFe", "4.00"))
}

func TestValidate(t *testing.T) {
	v, path := newValidator(t)
	require.Equal(t, path, v.Path("nfe", "4.00"))
	signed := signedNFe(t)

	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{name: "signed document", data: signed, valid: true},
		{name: "unsigned document", data: fixtures.NFe()},
		{name: "short access key", data: []byte(strings.Replace(string(signed), `Id="NFe`+fixtures.NFeKey+`"`, `Id="NFe123"`, 1))},
		{name: "invalid cUF", data: []byte(strings.Replace(string(signed), "<cUF>35</cUF>", "<cUF>SP</cUF>", 1))},
		{name: "other namespace", data: []byte(`<NFe xmlns="urn:other"/>`)},
		{name: "malformed", data: []byte(`<NFe><infNFe>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data, path)
			if tt.valid {
				require.NoError(t, err)
				assert.True(t, v.IsValid(tt.data, path))
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.False(t, v.IsValid(tt.data, path))
		})
	}
}

func TestValidate_UnusableSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nfe_v4.00.xsd")
	require.NoError(t, os.WriteFile(path, []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element/>`), 0o600))

	v := NewValidator(dir)
	defer v.Close()
	err := v.Validate(fixtures.NFe(), path)
	assert.ErrorIs(t, err, ErrSchema)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestValidate_Concurrent(t *testing.T) {
	v, path := newValidator(t)
	signed := signedNFe(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- v.Validate(signed, path)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, v.schemas, 1)
}

func TestClose(t *testing.T) {
	v, path := newValidator(t)
	require.NoError(t, v.Validate(signedNFe(t), path))
	require.Len(t, v.schemas, 1)

	v.Close()
	assert.Empty(t, v.schemas)
	// schemas are compiled again on demand
	assert.NoError(t, v.Validate(signedNFe(t), path))
}
