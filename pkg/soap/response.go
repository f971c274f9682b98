package soap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var (
	// ErrFault is returned when the response carries a SOAP fault
	ErrFault = errors.New("soap fault")

	// ErrMalformedResponse is returned when the response is not a SOAP envelope
	ErrMalformedResponse = errors.New("malformed soap response")
)

// cStat codes of interest
const (
	StatusAuthorized      = "100"
	StatusCancelled       = "101"
	StatusBatchReceived   = "103"
	StatusBatchProcessed  = "104"
	StatusServiceRunning  = "107"
	StatusDenied          = "110"
	StatusEventRegistered = "135"
	StatusEventUnlinked   = "136"
	StatusNotFound        = "217"
	StatusAuthorizedLate  = "150"
	StatusDeniedRecipient = "302"
	StatusDeniedIssuer    = "301"
	StatusDeniedIrregular = "303"
)

// Status is a cStat / xMotivo pair
type Status struct {
	Code    string
	Message string
}

// IsAuthorized reports whether the document use was authorized
func (s Status) IsAuthorized() bool {
	return s.Code == StatusAuthorized || s.Code == StatusAuthorizedLate
}

// IsDenied reports a denied use
func (s Status) IsDenied() bool {
	switch s.Code {
	case StatusDenied, StatusDeniedIssuer, StatusDeniedRecipient, StatusDeniedIrregular:
		return true
	}
	return false
}

// IsRejected reports a rejection (2xx to 6xx, except denials and 217)
func (s Status) IsRejected() bool {
	if len(s.Code) != 3 || s.IsDenied() || s.Code == StatusNotFound {
		return false
	}
	return s.Code[0] >= '2' && s.Code[0] <= '6'
}

func (s Status) String() string {
	if s.Code == "" {
		return ""
	}
	return s.Code + " " + s.Message
}

// Protocol is the infProt content of a protNFe
type Protocol struct {
	Key        string
	Number     string
	ReceivedAt string
	Digest     string
	Status     Status
}

// Response is a parsed web service response
type Response struct {
	// Body is the nfeResultMsg content (the service return document)
	Body []byte
	// Status is the top-level cStat / xMotivo of the return document
	Status Status
	// Receipt is the nRec of asynchronous batches
	Receipt string
	// Protocols holds protNFe entries of synchronous authorizations
	Protocols []Protocol
}

// Protocol returns the protocol of the given access key
func (r *Response) Protocol(key string) (Protocol, bool) {
	for _, p := range r.Protocols {
		if p.Key == key {
			return p, true
		}
	}
	return Protocol{}, false
}

// ParseResponse parses a SOAP 1.2 response envelope
func ParseResponse(data []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("%w: missing envelope", ErrMalformedResponse)
	}
	body := root.SelectElement("Body")
	if body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrMalformedResponse)
	}

	if fault := body.SelectElement("Fault"); fault != nil {
		return nil, fmt.Errorf("%w: %s", ErrFault, faultReason(fault))
	}

	result := body.SelectElement("nfeResultMsg")
	if result == nil {
		// some authorizers answer with a bare result element
		result = body
	}
	ret := firstElement(result)
	if ret == nil {
		return nil, fmt.Errorf("%w: empty result", ErrMalformedResponse)
	}

	out, err := etree.NewDocumentWithRoot(ret.Copy()).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	resp := &Response{
		Body:    out,
		Status:  statusOf(ret),
		Receipt: childText(ret, "infRec/nRec"),
	}
	for _, prot := range ret.FindElements(".//protNFe/infProt") {
		resp.Protocols = append(resp.Protocols, Protocol{
			Key:        childText(prot, "chNFe"),
			Number:     childText(prot, "nProt"),
			ReceivedAt: childText(prot, "dhRecbto"),
			Digest:     childText(prot, "digVal"),
			Status:     statusOf(prot),
		})
	}
	return resp, nil
}

func statusOf(e *etree.Element) Status {
	return Status{
		Code:    childText(e, "cStat"),
		Message: childText(e, "xMotivo"),
	}
}

func childText(e *etree.Element, path string) string {
	if c := e.FindElement(path); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func firstElement(e *etree.Element) *etree.Element {
	children := e.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func faultReason(fault *etree.Element) string {
	code := childText(fault, "Code/Value")
	reason := childText(fault, "Reason/Text")
	switch {
	case code != "" && reason != "":
		return code + ": " + reason
	case reason != "":
		return reason
	case code != "":
		return code
	}
	// SOAP 1.1 style
	return childText(fault, "faultstring")
}
