// Package certificate loads the A1 (software) e-CNPJ certificate used both to
// sign documents and to authenticate the TLS connection to the authorizer.
//
// Certificates are read from a PKCS#12 bundle (.pfx/.p12) or from a PEM
// certificate and key pair. Hardware (A3) tokens are not supported.
package certificate
