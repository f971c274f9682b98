// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package xmldsig signs fiscal documents with enveloped XML signatures.

The signature covers the element carrying the identifier attribute (infNFe
with its Id) and is placed as the last child of that element's parent, as
the NF-e layout requires:

	<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
	  <infNFe Id="NFe3525...">...</infNFe>
	  <Signature xmlns="http://www.w3.org/2000/09/xmldsig#">...</Signature>
	</NFe>

Signature profile:
  - Canonical XML 1.0 (REC-xml-c14n-20010315)
  - enveloped-signature and C14N transforms on the single reference
  - RSA-SHA1 by default, RSA-SHA256 optionally
  - KeyInfo/X509Data/X509Certificate with the signer certificate

Signing and verification are delegated to the signedxml package.

	signer, err := xmldsig.NewSigner(key, cert)
	signed, err := signer.Sign(raw, "infNFe", "Id", xmldsig.SHA1)
	err = xmldsig.Verify(signed, "Id", cert)

# References

  - XML Signature: https://www.w3.org/TR/xmldsig-core/
  - Canonical XML 1.0: https://www.w3.org/TR/2001/REC-xml-c14n-20010315
*/
package xmldsig
