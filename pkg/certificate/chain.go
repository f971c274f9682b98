package certificate

import (
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// ErrCertificateUntrusted is returned when the chain does not lead to a trusted root
var ErrCertificateUntrusted = errors.New("certificate is not trusted")

// Verify checks the validity period and that the leaf chains to one of the
// roots through the bundled intermediates. Any extended key usage is accepted.
func (c *Certificate) Verify(roots *x509.CertPool, now time.Time) error {
	if err := c.Validate(now); err != nil {
		return err
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		CurrentTime:   now,
		Intermediates: x509.NewCertPool(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	for _, intermediate := range c.Chain {
		opts.Intermediates.AddCert(intermediate)
	}

	if _, err := c.Leaf.Verify(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrCertificateUntrusted, err)
	}
	return nil
}
