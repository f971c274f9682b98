// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transmit coordinates the transmission of NF-e and NFC-e documents
to the authorizer web services.

A transmission runs synchronously through these steps:

 1. sanitize the raw content
 2. correct the document for the declared contingency mode
 3. sign infNFe by its Id attribute
 4. for model 65, resolve the QR code query service and embed the
    verification code (infNFeSupl)
 5. validate against the layout schema (advisory)
 6. resolve the endpoint for the requested service
 7. build the SOAP envelope and dispatch it
 8. return the signed document, the raw response and the endpoint

# Usage

	o, err := transmit.NewOrchestrator(transmit.Config{
	    Resolver:      res,
	    Signer:        signer,
	    Validator:     schema.NewValidator("schemas"),
	    Transport:     transport.NewHTTPSClient(httpsConfig, logger),
	    CodeGenerator: qrcode.NewGenerator(logger),
	    CSCID:         "000001",
	    CSC:           csc,
	    Logger:        logger,
	})

	result, err := o.Transmit(ctx, raw, catalog.ServiceAuthorization, state)
	if errors.Is(err, transmit.ErrTransmissionFailed) {
	    // the document was signed but not delivered
	}
	if result.SchemaErr != nil {
	    // delivered, but the schema check failed
	}

# Contingency

The contingency state is an explicit argument of Transmit. Callers sharing
one declared mode across goroutines keep it in a contingency.Manager and
use TransmitCurrent.

# Errors

Correction and signing failures wrap ErrSigningFailed. Resolution and
dispatch failures wrap ErrTransmissionFailed. Neither is retried. A
transmission failure still returns the Result with the signed document, so
documents issued offline can be printed and sent once the authorizer is
reachable again. Schema
failures never abort a transmission; they are reported in Result.SchemaErr
wrapping ErrSchemaValidationFailed. The cause stays reachable through
errors.Is and errors.As in every case.
*/
package transmit
