// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression implements the gzip + base64 encoding of the
nfeDadosMsgZip variant of the authorization request.

Some authorizers accept the request batch compressed and base64 encoded
inside nfeDadosMsgZip (method nfeAutorizacaoLoteZip), which keeps large
batches under their message size limits.

	compressor := compression.NewCompressor()
	encoded, err := compressor.Encode(payload)
	payload, err = compressor.Decode(encoded)

# References

  - GZIP RFC 1952: https://datatracker.ietf.org/doc/html/rfc1952
*/
package compression
