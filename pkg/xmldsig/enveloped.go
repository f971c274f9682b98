package xmldsig

import (
	"github.com/beevik/etree"
	"github.com/leifj/signedxml"
)

// The NF-e signature is a sibling of the signed element, so the referenced
// subtree usually holds no Signature at all. The stock transform rejects that.
func init() {
	signedxml.CanonicalizationAlgorithms[AlgorithmEnveloped] = envelopedSignature{}
}

// envelopedSignature removes a Signature from the referenced content when one is present
type envelopedSignature struct{}

var _ signedxml.CanonicalizationAlgorithm = envelopedSignature{}

func (e envelopedSignature) ProcessElement(el *etree.Element, _ string) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.strip(el.Copy()))
	return doc.WriteToString()
}

func (e envelopedSignature) ProcessDocument(doc *etree.Document, _ string) (string, error) {
	if root := doc.Root(); root != nil {
		doc.SetRoot(e.strip(root.Copy()))
	}
	return doc.WriteToString()
}

func (e envelopedSignature) Process(inputXML string, transformXML string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(inputXML); err != nil {
		return "", err
	}
	if doc.FindElement(".//Signature") == nil {
		return inputXML, nil
	}
	return e.ProcessDocument(doc, transformXML)
}

func (envelopedSignature) strip(el *etree.Element) *etree.Element {
	if sig := el.FindElement(".//Signature"); sig != nil {
		if parent := sig.Parent(); parent != nil {
			parent.RemoveChild(sig)
		}
	}
	return el
}
