// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package catalog maps SEFAZ web services to their endpoints.

A catalog is built from one definition file per layout version and document
model (wsnfe_<version>_mod<model>.yaml). Each file declares authorizer tables
and points every jurisdiction at one of them:

	authorizers:
	  SVRS:
	    homologacao:
	      NfeAutorizacao:
	        url: https://nfe-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx
	        method: nfeAutorizacaoLote
	        operation: NFeAutorizacao4
	        version: "4.00"
	jurisdictions:
	  SC:
	    authorizer: SVRS
	  SVCRS:
	    authorizer: SVCRS

Contingency codes (SVCAN, SVCRS, EPEC) are ordinary jurisdiction keys, so the
catalog does not know whether a key is a state or a contingency mode.
Jurisdiction entries may carry their own services, which take precedence over
the authorizer table (NFC-e QR code URLs are published per state).

The definitions for layout 4.00 are embedded; [NewDirLoader] reads them from
a directory instead.

	cat, err := catalog.Load(catalog.EmbeddedLoader(), "4.00", catalog.ModelNFe, catalog.ModelNFCe)
	entry, err := cat.Lookup(catalog.ServiceAuthorization, "SP", catalog.Homologation, catalog.ModelNFe)

A catalog is read-only after Load and safe for concurrent lookups.
*/
package catalog
