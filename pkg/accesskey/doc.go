// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package accesskey handles the 44-digit NF-e/NFC-e access key (chave de acesso).

# Layout

Positions are 1-indexed:

	01-02  cUF     jurisdiction (IBGE code)
	03-06  AAMM    year and month of issue
	07-20  CNPJ    issuer
	21-22  mod     document model (55 or 65)
	23-25  serie
	26-34  nNF     document number
	35     tpEmis  emission mode
	36-43  cNF     random numeric code
	44     cDV     modulo-11 check digit

The key is carried in the infNFe Id attribute as "NFe" followed by the 44 digits.

# Check Digit

The check digit is computed over the first 43 digits with weights 2..9
applied from the rightmost digit, cycling back to 2 after 9. A remainder of
0 or 1 yields check digit 0, otherwise 11 minus the remainder.

	key, err := accesskey.Parse("35250732409620000175550010000037471011544648")
	corrected, err := key.WithEmissionMode(4)
*/
package accesskey
