package soap

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-nfe/pkg/compression"
)

// Namespaces
const (
	NSSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
	NSXSI    = "http://www.w3.org/2001/XMLSchema-instance"
	NSXSD    = "http://www.w3.org/2001/XMLSchema"
	NSNFe    = "http://www.portalfiscal.inf.br/nfe"
)

// ContentType is the media type of SOAP 1.2 messages
const ContentType = "application/soap+xml"

// Header is the nfeCabecMsg content
type Header struct {
	JurisdictionCode int
	DataVersion      string
}

// Request is one web service call
type Request struct {
	// Namespace of the service, http://www.portalfiscal.inf.br/nfe/wsdl/<operation>
	Namespace string
	// Payload is the XML message; an XML declaration is dropped
	Payload []byte
	// Header is set for layouts before 4.00
	Header *Header
	// Compress sends the payload as nfeDadosMsgZip
	Compress bool
}

// Batch describes the enviNFe wrapper of an authorization request
type Batch struct {
	ID          string
	Synchronous bool
	Version     string
}

// BuildEnvelope serializes a SOAP 1.2 envelope for the request
func BuildEnvelope(req Request) ([]byte, error) {
	if req.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soap12:Envelope")
	env.CreateAttr("xmlns:xsi", NSXSI)
	env.CreateAttr("xmlns:xsd", NSXSD)
	env.CreateAttr("xmlns:soap12", NSSOAP12)

	if req.Header != nil {
		cabec := env.CreateElement("soap12:Header").CreateElement("nfeCabecMsg")
		cabec.CreateAttr("xmlns", req.Namespace)
		cabec.CreateElement("cUF").SetText(strconv.Itoa(req.Header.JurisdictionCode))
		cabec.CreateElement("versaoDados").SetText(req.Header.DataVersion)
	}

	body := env.CreateElement("soap12:Body")
	if req.Compress {
		encoded, err := compression.NewCompressor().Encode(stripDeclaration(req.Payload))
		if err != nil {
			return nil, fmt.Errorf("compressing payload: %w", err)
		}
		msg := body.CreateElement("nfeDadosMsgZip")
		msg.CreateAttr("xmlns", req.Namespace)
		msg.SetText(encoded)
	} else {
		payload := etree.NewDocument()
		if err := payload.ReadFromBytes(req.Payload); err != nil {
			return nil, fmt.Errorf("parsing payload: %w", err)
		}
		if payload.Root() == nil {
			return nil, fmt.Errorf("payload has no root element")
		}
		msg := body.CreateElement("nfeDadosMsg")
		msg.CreateAttr("xmlns", req.Namespace)
		msg.AddChild(payload.Root())
	}

	return doc.WriteToBytes()
}

// WrapAuthorization wraps signed documents in an enviNFe batch
func WrapAuthorization(batch Batch, documents ...[]byte) ([]byte, error) {
	if batch.ID == "" {
		return nil, fmt.Errorf("batch id is required")
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("batch has no documents")
	}
	version := batch.Version
	if version == "" {
		version = "4.00"
	}

	doc := etree.NewDocument()
	envi := doc.CreateElement("enviNFe")
	envi.CreateAttr("xmlns", NSNFe)
	envi.CreateAttr("versao", version)
	envi.CreateElement("idLote").SetText(batch.ID)
	sync := "0"
	if batch.Synchronous {
		sync = "1"
	}
	envi.CreateElement("indSinc").SetText(sync)

	for i, data := range documents {
		nfe := etree.NewDocument()
		if err := nfe.ReadFromBytes(data); err != nil {
			return nil, fmt.Errorf("parsing document %d: %w", i, err)
		}
		root := nfe.Root()
		if root == nil {
			return nil, fmt.Errorf("document %d has no root element", i)
		}
		envi.AddChild(root)
	}
	return doc.WriteToBytes()
}

func stripDeclaration(data []byte) []byte {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil || doc.Root() == nil {
		return data
	}
	out, err := etree.NewDocumentWithRoot(doc.Root()).WriteToBytes()
	if err != nil {
		return data
	}
	return out
}
