package certificate

import (
	"crypto"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

var (
	// ErrInvalidCertificate is returned when the material cannot be decoded
	ErrInvalidCertificate = errors.New("invalid certificate")
	// ErrCertificateExpired is returned when a certificate has expired
	ErrCertificateExpired = errors.New("certificate has expired")
	// ErrCertificateNotYetValid is returned when a certificate is not yet valid
	ErrCertificateNotYetValid = errors.New("certificate is not yet valid")
)

// Certificate is a private key with its certificate chain
type Certificate struct {
	PrivateKey *rsa.PrivateKey
	Leaf       *x509.Certificate
	Chain      []*x509.Certificate
}

// Source locates certificate material on disk
type Source struct {
	// Path is a PKCS#12 bundle or a PEM certificate file
	Path string
	// KeyPath is the PEM private key when Path is a PEM certificate
	KeyPath string
	// Password unlocks a PKCS#12 bundle
	Password string
}

// Load reads a certificate from its source, choosing the format from the file extension
func Load(src Source) (*Certificate, error) {
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".pfx", ".p12":
		return LoadPKCS12(src.Path, src.Password)
	default:
		return LoadPEM(src.Path, src.KeyPath)
	}
}

// LoadPKCS12 reads a PKCS#12 bundle
func LoadPKCS12(path, password string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading certificate bundle: %w", err)
	}
	return DecodePKCS12(data, password)
}

// DecodePKCS12 decodes a PKCS#12 bundle holding one RSA key and its chain.
// Both the legacy RC2/3DES and the PBES2/AES encodings are accepted.
func DecodePKCS12(data []byte, password string) (*Certificate, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not RSA", ErrInvalidCertificate)
	}
	// bundles exported by some tools list the CA certificates first
	return assemble(rsaKey, append([]*x509.Certificate{leaf}, chain...))
}

// LoadPEM reads a PEM certificate (optionally followed by its chain) and a PEM private key
func LoadPEM(certPath, keyPath string) (*Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("reading certificate file: %w", err)
	}
	if keyPath == "" {
		keyPath = certPath
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return FromPEM(certPEM, keyPEM)
}

// FromPEM builds a Certificate from PEM data. The leaf is the certificate
// matching the private key; the others form the chain.
func FromPEM(certPEM, keyPEM []byte) (*Certificate, error) {
	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	var certs []*x509.Certificate
	for rest := certPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: no certificate found", ErrInvalidCertificate)
	}

	return assemble(key, certs)
}

// assemble picks the certificate matching key as the leaf
func assemble(key *rsa.PrivateKey, certs []*x509.Certificate) (*Certificate, error) {
	c := &Certificate{PrivateKey: key}
	for _, cert := range certs {
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok && c.Leaf == nil && pub.Equal(&key.PublicKey) {
			c.Leaf = cert
			continue
		}
		c.Chain = append(c.Chain, cert)
	}
	if c.Leaf == nil {
		return nil, fmt.Errorf("%w: no certificate matches the private key", ErrInvalidCertificate)
	}
	return c, nil
}

func parsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	for rest := pemData; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no private key found", ErrInvalidCertificate)
		}

		var key crypto.PrivateKey
		var err error
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		case "PRIVATE KEY":
			// some exporters write PKCS#1 bytes under the generic type
			if key, err = x509.ParsePKCS8PrivateKey(block.Bytes); err != nil {
				key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
			}
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing private key: %w", ErrInvalidCertificate, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is not RSA", ErrInvalidCertificate)
		}
		return rsaKey, nil
	}
}

// TLSCertificate returns the certificate for client authentication
func (c *Certificate) TLSCertificate() tls.Certificate {
	chain := [][]byte{c.Leaf.Raw}
	for _, cert := range c.Chain {
		chain = append(chain, cert.Raw)
	}
	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  c.PrivateKey,
		Leaf:        c.Leaf,
	}
}

// CNPJ returns the taxpayer number ICP-Brasil puts after the colon in the subject common name
func (c *Certificate) CNPJ() string {
	_, after, found := strings.Cut(c.Leaf.Subject.CommonName, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// Validate checks the validity period of the leaf certificate
func (c *Certificate) Validate(now time.Time) error {
	if now.Before(c.Leaf.NotBefore) {
		return fmt.Errorf("%w: valid from %s", ErrCertificateNotYetValid, c.Leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(c.Leaf.NotAfter) {
		return fmt.Errorf("%w: expired on %s", ErrCertificateExpired, c.Leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// ExpiresIn returns the time left until the leaf certificate expires
func (c *Certificate) ExpiresIn(now time.Time) time.Duration {
	return c.Leaf.NotAfter.Sub(now)
}
