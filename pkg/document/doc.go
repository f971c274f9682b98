// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package document wraps an NF-e/NFC-e XML document for inspection and
correction before transmission.

A Document is an etree tree rooted at <NFe> (or an <nfeProc> wrapping one).
Accessors read the identification group (ide) and the access key carried in
the infNFe Id attribute:

	doc, err := document.Parse(raw)
	key, err := doc.Key()
	uf, err := doc.Jurisdiction()

# Contingency Correction

The Corrector rewrites a document for the declared contingency mode:

	corrector := document.NewCorrector(document.WithLocation(loc))
	err := corrector.Correct(doc, state)

Correction removes any existing signature, sets ide/tpEmis, ide/dhCont and
ide/xJust, and rewrites the access key (emission mode digit and check digit)
in both infNFe@Id and ide/cDV. Applying it twice with the same state yields
the same document. With no contingency declared the document is left
untouched.
*/
package document
