// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package qrcode generates the NFC-e verification code (QR code, version 2)
and embeds it in the signed document.

Online emission encodes the access key, environment and CSC identifier,
authenticated by a SHA-1 hash over those fields concatenated with the
taxpayer's security code (CSC):

	<url>?p=<key>|2|<tpAmb>|<cscId>|<hash>

Offline emission (tpEmis 9) also carries the emission day, the total and
the hex-encoded signature digest:

	<url>?p=<key>|2|<tpAmb>|<day>|<vNF>|<hex(DigestValue)>|<cscId>|<hash>

The result is inserted as infNFeSupl between infNFe and the signature,
which leaves the signed content untouched.
*/
package qrcode
