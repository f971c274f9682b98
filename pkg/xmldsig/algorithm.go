package xmldsig

import (
	"fmt"
	"strings"
)

// Algorithm URIs
const (
	NSXMLDSig = "http://www.w3.org/2000/09/xmldsig#"

	AlgorithmRSASHA1   = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"

	AlgorithmSHA1   = "http://www.w3.org/2000/09/xmldsig#sha1"
	AlgorithmSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"

	AlgorithmC14N      = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgorithmEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// Algorithm selects the digest and signature method pair
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// ParseAlgorithm accepts "sha1" or "sha256", case-insensitively
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return SHA1, nil
	case SHA1, SHA256:
		return a, nil
	}
	return "", fmt.Errorf("unsupported signature algorithm %q", s)
}

func (a Algorithm) signatureURI() string {
	if a == SHA256 {
		return AlgorithmRSASHA256
	}
	return AlgorithmRSASHA1
}

func (a Algorithm) digestURI() string {
	if a == SHA256 {
		return AlgorithmSHA256
	}
	return AlgorithmSHA1
}
