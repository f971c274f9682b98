package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-nfe/pkg/accesskey"
	"github.com/sirosfoundation/go-nfe/pkg/catalog"
)

// Namespace is the NF-e layout namespace
const Namespace = "http://www.portalfiscal.inf.br/nfe"

// ErrMalformedDocument is returned when a required element is missing or unreadable
var ErrMalformedDocument = errors.New("malformed document")

// Document is a parsed fiscal document
type Document struct {
	tree *etree.Document
}

// Parse sanitizes and parses raw XML content
func Parse(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(Sanitize(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return &Document{tree: tree}, nil
}

// FromTree wraps an existing etree document
func FromTree(tree *etree.Document) (*Document, error) {
	if tree == nil || tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return &Document{tree: tree}, nil
}

// Tree returns the underlying etree document
func (d *Document) Tree() *etree.Document {
	return d.tree
}

// Copy returns a deep copy
func (d *Document) Copy() *Document {
	return &Document{tree: d.tree.Copy()}
}

// Bytes serializes the document
func (d *Document) Bytes() ([]byte, error) {
	return d.tree.WriteToBytes()
}

// NFe returns the <NFe> element, looking inside an nfeProc wrapper if needed
func (d *Document) NFe() *etree.Element {
	root := d.tree.Root()
	if root.Tag == "NFe" {
		return root
	}
	return root.SelectElement("NFe")
}

// InfNFe returns the signed part of the document
func (d *Document) InfNFe() *etree.Element {
	nfe := d.NFe()
	if nfe == nil {
		return nil
	}
	return nfe.SelectElement("infNFe")
}

// Ide returns the identification group
func (d *Document) Ide() *etree.Element {
	inf := d.InfNFe()
	if inf == nil {
		return nil
	}
	return inf.SelectElement("ide")
}

// Key returns the access key from the infNFe Id attribute
func (d *Document) Key() (accesskey.Key, error) {
	inf := d.InfNFe()
	if inf == nil {
		return "", fmt.Errorf("%w: infNFe not found", ErrMalformedDocument)
	}
	key, err := accesskey.FromID(inf.SelectAttrValue("Id", ""))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return key, nil
}

// Version returns the layout version declared on infNFe
func (d *Document) Version() string {
	inf := d.InfNFe()
	if inf == nil {
		return ""
	}
	return inf.SelectAttrValue("versao", "")
}

// Model returns ide/mod
func (d *Document) Model() (catalog.Model, error) {
	v, err := d.ideText("mod")
	if err != nil {
		return "", err
	}
	m, err := catalog.ParseModel(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return m, nil
}

// Jurisdiction returns the state abbreviation for ide/cUF
func (d *Document) Jurisdiction() (string, error) {
	v, err := d.ideText("cUF")
	if err != nil {
		return "", err
	}
	uf, err := catalog.JurisdictionByCode(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return uf, nil
}

// Environment returns ide/tpAmb
func (d *Document) Environment() (catalog.Environment, error) {
	v, err := d.ideText("tpAmb")
	if err != nil {
		return 0, err
	}
	env, err := catalog.ParseEnvironment(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return env, nil
}

// EmissionMode returns ide/tpEmis
func (d *Document) EmissionMode() (int, error) {
	v, err := d.ideText("tpEmis")
	if err != nil {
		return 0, err
	}
	mode, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: tpEmis %q", ErrMalformedDocument, v)
	}
	return mode, nil
}

// IssuedAt returns ide/dhEmi
func (d *Document) IssuedAt() (time.Time, error) {
	v, err := d.ideText("dhEmi")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dhEmi %q", ErrMalformedDocument, v)
	}
	return t, nil
}

// Total returns total/ICMSTot/vNF
func (d *Document) Total() (string, error) {
	inf := d.InfNFe()
	if inf == nil {
		return "", fmt.Errorf("%w: infNFe not found", ErrMalformedDocument)
	}
	el := inf.FindElement("./total/ICMSTot/vNF")
	if el == nil {
		return "", fmt.Errorf("%w: total/ICMSTot/vNF not found", ErrMalformedDocument)
	}
	return strings.TrimSpace(el.Text()), nil
}

// DigestValue returns the reference digest of the enveloped signature, if signed
func (d *Document) DigestValue() (string, error) {
	nfe := d.NFe()
	if nfe == nil {
		return "", fmt.Errorf("%w: NFe not found", ErrMalformedDocument)
	}
	el := nfe.FindElement("./Signature/SignedInfo/Reference/DigestValue")
	if el == nil {
		return "", fmt.Errorf("%w: document is not signed", ErrMalformedDocument)
	}
	return strings.TrimSpace(el.Text()), nil
}

func (d *Document) ideText(tag string) (string, error) {
	ide := d.Ide()
	if ide == nil {
		return "", fmt.Errorf("%w: ide not found", ErrMalformedDocument)
	}
	el := ide.SelectElement(tag)
	if el == nil {
		return "", fmt.Errorf("%w: ide/%s not found", ErrMalformedDocument, tag)
	}
	return strings.TrimSpace(el.Text()), nil
}
