package document

import "github.com/beevik/etree"

// RemoveSignature removes the enveloped signatures of the document and
// reports how many were removed.
func RemoveSignature(d *Document) int {
	nfe := d.NFe()
	if nfe == nil {
		return 0
	}
	return removeChildren(nfe, "Signature")
}

// RemoveSupplement removes infNFeSupl so the verification code can be regenerated
func RemoveSupplement(d *Document) int {
	nfe := d.NFe()
	if nfe == nil {
		return 0
	}
	return removeChildren(nfe, "infNFeSupl")
}

func removeChildren(parent *etree.Element, tag string) int {
	removed := 0
	for _, el := range parent.SelectElements(tag) {
		if parent.RemoveChild(el) != nil {
			removed++
		}
	}
	return removed
}
