package xmldsig

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"
)

var (
	// ErrSigning is returned when a document cannot be signed
	ErrSigning = errors.New("xmldsig")
	// ErrVerification is returned when a signature does not validate
	ErrVerification = errors.New("signature verification failed")
)

// Signer produces enveloped signatures with an RSA key and its certificate
type Signer struct {
	privateKey *rsa.PrivateKey
	cert       *x509.Certificate
	logger     *slog.Logger
}

// NewSigner creates a Signer. The certificate must hold the public half of privateKey.
func NewSigner(privateKey *rsa.PrivateKey, cert *x509.Certificate) (*Signer, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: private key is required", ErrSigning)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: certificate is required", ErrSigning)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate does not contain an RSA public key", ErrSigning)
	}
	if !pub.Equal(&privateKey.PublicKey) {
		return nil, fmt.Errorf("%w: private key does not match certificate", ErrSigning)
	}
	return &Signer{
		privateKey: privateKey,
		cert:       cert,
		logger:     slog.Default(),
	}, nil
}

// WithLogger sets the logger
func (s *Signer) WithLogger(logger *slog.Logger) *Signer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Certificate returns the signer certificate
func (s *Signer) Certificate() *x509.Certificate {
	return s.cert
}

// Sign signs the first element named root by its idAttr attribute.
// Signatures already present next to that element are replaced.
func (s *Signer) Sign(data []byte, root, idAttr string, algorithm Algorithm) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: parsing document: %w", ErrSigning, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrSigning)
	}

	target := doc.Root()
	if target.Tag != root {
		target = doc.Root().FindElement(".//" + root)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: element %s not found", ErrSigning, root)
	}
	id := target.SelectAttrValue(idAttr, "")
	if id == "" {
		return nil, fmt.Errorf("%w: element %s has no %s attribute", ErrSigning, root, idAttr)
	}
	parent := target.Parent()
	if parent == nil || parent == &doc.Element {
		return nil, fmt.Errorf("%w: element %s must not be the document root", ErrSigning, root)
	}

	for _, old := range parent.SelectElements("Signature") {
		parent.RemoveChild(old)
	}
	declareDefaultNamespace(target)
	parent.AddChild(s.buildSignature(id, algorithm))

	xmlStr, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("%w: writing document: %w", ErrSigning, err)
	}

	signer, err := signedxml.NewSigner(xmlStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	signer.SetReferenceIDAttribute(idAttr)

	signed, err := signer.Sign(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	s.logger.Debug("document signed", "reference", id, "algorithm", string(algorithm))
	return []byte(signed), nil
}

// buildSignature creates the Signature template that signedxml completes
func (s *Signer) buildSignature(id string, algorithm Algorithm) *etree.Element {
	sig := etree.NewElement("Signature")
	sig.CreateAttr("xmlns", NSXMLDSig)

	signedInfo := sig.CreateElement("SignedInfo")
	signedInfo.CreateAttr("xmlns", NSXMLDSig)
	signedInfo.CreateElement("CanonicalizationMethod").CreateAttr("Algorithm", AlgorithmC14N)
	signedInfo.CreateElement("SignatureMethod").CreateAttr("Algorithm", algorithm.signatureURI())

	ref := signedInfo.CreateElement("Reference")
	ref.CreateAttr("URI", "#"+id)
	transforms := ref.CreateElement("Transforms")
	transforms.CreateElement("Transform").CreateAttr("Algorithm", AlgorithmEnveloped)
	transforms.CreateElement("Transform").CreateAttr("Algorithm", AlgorithmC14N)
	ref.CreateElement("DigestMethod").CreateAttr("Algorithm", algorithm.digestURI())
	ref.CreateElement("DigestValue")

	sig.CreateElement("SignatureValue")
	sig.CreateElement("KeyInfo").
		CreateElement("X509Data").
		CreateElement("X509Certificate").
		SetText(base64.StdEncoding.EncodeToString(s.cert.Raw))
	return sig
}

// declareDefaultNamespace copies the inherited default namespace onto el, so
// the referenced subtree canonicalizes the same way detached or in place.
func declareDefaultNamespace(el *etree.Element) {
	if el.SelectAttr("xmlns") != nil {
		return
	}
	for p := el.Parent(); p != nil; p = p.Parent() {
		if a := p.SelectAttr("xmlns"); a != nil {
			el.CreateAttr("xmlns", a.Value)
			return
		}
	}
}

// Verify validates the signature of a document. When certs are given the
// signature must have been made by one of them, otherwise the embedded
// certificate is used.
func Verify(data []byte, idAttr string, certs ...*x509.Certificate) error {
	validator, err := signedxml.NewValidator(string(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	for _, c := range certs {
		if c != nil {
			validator.Certificates = append(validator.Certificates, *c)
		}
	}
	validator.SetReferenceIDAttribute(idAttr)

	if _, err := validator.ValidateReferences(); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}

// RemoveSignature strips enveloped signatures from serialized content
func RemoveSignature(data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	for _, sig := range doc.FindElements("//Signature") {
		if p := sig.Parent(); p != nil {
			p.RemoveChild(sig)
		}
	}
	return doc.WriteToBytes()
}
