package transmit

import (
	"context"
	"errors"

	"github.com/sirosfoundation/go-nfe/pkg/qrcode"
	"github.com/sirosfoundation/go-nfe/pkg/resolver"
	"github.com/sirosfoundation/go-nfe/pkg/soap"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

var (
	// ErrSigningFailed is returned when correction, signing or code embedding fails
	ErrSigningFailed = errors.New("signing failed")
	// ErrSchemaValidationFailed is reported when the document does not match its schema
	ErrSchemaValidationFailed = errors.New("schema validation failed")
	// ErrTransmissionFailed is returned when resolution or dispatch fails
	ErrTransmissionFailed = errors.New("transmission failed")
)

// Signer signs an element of a document by its identifier attribute
type Signer interface {
	Sign(data []byte, root, idAttr string, algorithm xmldsig.Algorithm) ([]byte, error)
}

// Validator checks a document against an XSD. A missing schema is valid.
type Validator interface {
	Path(root, version string) string
	Validate(data []byte, schemaPath string) error
}

// Transport posts a SOAP envelope to an endpoint
type Transport interface {
	Send(ctx context.Context, endpoint, action string, envelope []byte) ([]byte, error)
}

// CodeGenerator embeds the NFC-e verification code in a signed document
type CodeGenerator interface {
	Generate(signed []byte, params qrcode.Params) ([]byte, error)
}

// Result is the outcome of one transmission
type Result struct {
	// ID identifies the transmission in logs
	ID string
	// BatchID is the idLote of authorization requests
	BatchID string
	// SignedDocument is the document as sent
	SignedDocument []byte
	// RawResponse is the SOAP response body
	RawResponse []byte
	// Endpoint is the descriptor the request was sent to
	Endpoint resolver.ServiceDescriptor
	// Status is the cStat / xMotivo of the return document
	Status soap.Status
	// Response is the parsed return document
	Response *soap.Response
	// SchemaErr is set when schema validation failed
	SchemaErr error
}
