// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport implements the HTTPS transport used to call the
authorizer web services.

Every call is a SOAP 1.2 POST over mutually authenticated TLS: the issuer's
A1 certificate is presented as the client certificate, and the web service
method travels in the action parameter of the Content-Type header.

# TLS Configuration

The default configuration requires TLS 1.2 or newer:

	config := transport.DefaultHTTPSConfig()
	// MinTLSVersion: TLS 1.2
	// MaxTLSVersion: TLS 1.3

For TLS 1.2, the following cipher suites are offered:
  - TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256
  - TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384
  - TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256
  - TLS_RSA_WITH_AES_256_GCM_SHA384
  - TLS_RSA_WITH_AES_128_GCM_SHA256

Some state authorizers still negotiate only the plain RSA key exchange
suites, so those are kept at the end of the list.

# Client Usage

	cert, _ := certificate.Load(certificate.Source{Path: "a1.pfx", Password: pw})
	roots, _ := transport.LoadRootCAs("icp-brasil.pem")

	client := transport.NewHTTPSClient(&transport.HTTPSConfig{
	    Certificates: []tls.Certificate{cert.TLSCertificate()},
	    RootCAs:      roots,
	}, logger)

	body, err := client.Send(ctx, desc.URL, desc.SOAPAction, envelope)

Failures to connect and non-200 answers are reported as errors wrapping
ErrTransport. The body of a non-200 answer is still returned, since
authorizers send SOAP faults with status 500.
*/
package transport
