// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package soap builds and parses the SOAP 1.2 messages exchanged with the
authorizer web services.

# Requests

The payload travels inside nfeDadosMsg (or nfeDadosMsgZip, gzip + base64)
in the service namespace. Layouts before 4.00 also carry an nfeCabecMsg
header with the jurisdiction code and data version:

	env, err := soap.BuildEnvelope(soap.Request{
	    Namespace: "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4",
	    Payload:   batch,
	})

Authorization payloads are wrapped in an enviNFe batch first:

	batch, err := soap.WrapAuthorization(soap.Batch{ID: "1", Synchronous: true, Version: "4.00"}, signed)

# Responses

ParseResponse extracts the nfeResultMsg content and the cStat/xMotivo
status, plus the protocol (protNFe) of synchronous authorizations.
SOAP faults become errors wrapping ErrFault.
*/
package soap
