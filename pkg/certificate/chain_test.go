package certificate

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issued struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

func issue(t *testing.T, cn string, ca bool, parent *issued) issued {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  ca,
	}
	if ca {
		template.KeyUsage |= x509.KeyUsageCertSign
	}

	signerCert, signerKey := template, key
	if parent != nil {
		signerCert, signerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, template, signerCert, &key.PublicKey, signerKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return issued{key: key, cert: cert}
}

func TestVerify(t *testing.T) {
	root := issue(t, "AC Raiz de Teste", true, nil)
	intermediate := issue(t, "AC Intermediaria de Teste", true, &root)
	leaf := issue(t, "EMPRESA DE TESTE LTDA:32409620000175", false, &intermediate)

	roots := x509.NewCertPool()
	roots.AddCert(root.cert)

	c := &Certificate{PrivateKey: leaf.key, Leaf: leaf.cert, Chain: []*x509.Certificate{intermediate.cert}}
	assert.NoError(t, c.Verify(roots, time.Now()))

	t.Run("missing intermediate", func(t *testing.T) {
		partial := &Certificate{PrivateKey: leaf.key, Leaf: leaf.cert}
		assert.ErrorIs(t, partial.Verify(roots, time.Now()), ErrCertificateUntrusted)
	})

	t.Run("unknown root", func(t *testing.T) {
		other := issue(t, "Outra AC", true, nil)
		pool := x509.NewCertPool()
		pool.AddCert(other.cert)
		assert.ErrorIs(t, c.Verify(pool, time.Now()), ErrCertificateUntrusted)
	})

	t.Run("expired", func(t *testing.T) {
		assert.ErrorIs(t, c.Verify(roots, time.Now().Add(48*time.Hour)), ErrCertificateExpired)
	})
}
