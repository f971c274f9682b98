// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gonfe transmits Brazilian electronic invoices (NF-e, model 55, and
NFC-e, model 65) to the state authorizer web services (SEFAZ).

# Overview

A document is corrected for the declared contingency mode, signed with the
issuer's A1 certificate, checked against the layout schema and sent over
SOAP 1.2 with mutual TLS to the endpoint selected by jurisdiction,
environment, model and contingency state. NFC-e documents also receive
their QR code verification data before dispatch.

# Specifications Implemented

  - Manual de Orientação do Contribuinte, layout 4.00
  - NFC-e QR code, version 2
  - XML Signature Syntax and Processing: https://www.w3.org/TR/xmldsig-core/
  - SOAP 1.2: https://www.w3.org/TR/soap12-part1/

# Package Structure

	github.com/sirosfoundation/go-nfe/pkg/transmit    - Transmission orchestrator
	github.com/sirosfoundation/go-nfe/pkg/contingency - Contingency modes and shared state
	github.com/sirosfoundation/go-nfe/pkg/document    - Document handle, sanitizing and contingency correction
	github.com/sirosfoundation/go-nfe/pkg/accesskey   - 44-digit access key and modulo-11 check digit
	github.com/sirosfoundation/go-nfe/pkg/catalog     - Web service catalog per layout version and model
	github.com/sirosfoundation/go-nfe/pkg/resolver    - Endpoint resolution under contingency rules
	github.com/sirosfoundation/go-nfe/pkg/xmldsig     - Enveloped XML signatures over infNFe
	github.com/sirosfoundation/go-nfe/pkg/certificate - A1 certificate loading
	github.com/sirosfoundation/go-nfe/pkg/schema      - XSD validation
	github.com/sirosfoundation/go-nfe/pkg/soap        - SOAP 1.2 envelopes and responses
	github.com/sirosfoundation/go-nfe/pkg/compression - nfeDadosMsgZip encoding
	github.com/sirosfoundation/go-nfe/pkg/transport   - HTTPS client with client certificates
	github.com/sirosfoundation/go-nfe/pkg/qrcode      - NFC-e verification code

# Quick Start

	cat, _ := catalog.Load(catalog.EmbeddedLoader(), "4.00", catalog.ModelNFe, catalog.ModelNFCe)
	res, _ := resolver.New(cat, logger)
	cert, _ := certificate.Load(certificate.Source{Path: "a1.pfx", Password: pw})
	signer, _ := xmldsig.NewSigner(cert.PrivateKey, cert.Leaf)

	o, _ := transmit.NewOrchestrator(transmit.Config{
	    Resolver:  res,
	    Signer:    signer,
	    Validator: schema.NewValidator("schemas"),
	    Transport: transport.NewHTTPSClient(&transport.HTTPSConfig{
	        Certificates: []tls.Certificate{cert.TLSCertificate()},
	    }, logger),
	})

	result, err := o.Transmit(ctx, raw, catalog.ServiceAuthorization, contingency.State{})

The nfe-transmit command wires the same pieces from a YAML configuration.

# License

BSD-2-Clause License
*/
package gonfe
