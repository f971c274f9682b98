// Package fixtures provides sample documents and throwaway certificates for tests.
package fixtures

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"embed"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

//go:embed testdata/*.xml testdata/*.xsd
var files embed.FS

const (
	// NFeKey is the access key of the model 55 sample
	NFeKey = "35250732409620000175550010000037471011544648"
	// NFCeKey is the access key of the model 65 sample
	NFCeKey = "35250732409620000175650010000037471011544640"
)

// NFe returns an unsigned model 55 document from SP in homologation
func NFe() []byte {
	return mustRead("testdata/nfe-55-sp.xml")
}

// NFCe returns an unsigned model 65 document from SP in production
func NFCe() []byte {
	return mustRead("testdata/nfce-65-sp.xml")
}

// SchemaFile is the name of the sample schema written by WriteSchema
const SchemaFile = "nfe_v4.00.xsd"

// WriteSchema writes a reduced nfe_v4.00.xsd into dir and returns its path.
// It requires a signed NFe with a 44-digit Id and a two-digit cUF.
func WriteSchema(dir string) (string, error) {
	path := filepath.Join(dir, SchemaFile)
	return path, os.WriteFile(path, mustRead("testdata/"+SchemaFile), 0o600)
}

func mustRead(name string) []byte {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return data
}

// Certificate generates a self-signed RSA certificate shaped like an e-CNPJ A1
func Certificate() (*rsa.PrivateKey, *x509.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"ICP-Brasil"},
			CommonName:   "EMPRESA DE TESTE LTDA:32409620000175",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return key, cert, nil
}
