package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// jurisdictionCodes maps state abbreviations to IBGE codes (cUF)
var jurisdictionCodes = map[string]int{
	"RO": 11, "AC": 12, "AM": 13, "RR": 14, "PA": 15, "AP": 16, "TO": 17,
	"MA": 21, "PI": 22, "CE": 23, "RN": 24, "PB": 25, "PE": 26, "AL": 27,
	"SE": 28, "BA": 29, "MG": 31, "ES": 32, "RJ": 33, "SP": 35, "PR": 41,
	"SC": 42, "RS": 43, "MS": 50, "MT": 51, "GO": 52, "DF": 53, "AN": 91,
}

// JurisdictionCode returns the IBGE code of a state abbreviation
func JurisdictionCode(uf string) (int, error) {
	code, ok := jurisdictionCodes[strings.ToUpper(uf)]
	if !ok {
		return 0, fmt.Errorf("unknown jurisdiction %q", uf)
	}
	return code, nil
}

// JurisdictionByCode returns the state abbreviation of an IBGE code
func JurisdictionByCode(code string) (string, error) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return "", fmt.Errorf("invalid jurisdiction code %q", code)
	}
	for uf, c := range jurisdictionCodes {
		if c == n {
			return uf, nil
		}
	}
	return "", fmt.Errorf("unknown jurisdiction code %q", code)
}
