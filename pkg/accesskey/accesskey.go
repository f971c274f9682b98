package accesskey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Length is the number of digits in an access key
	Length = 44
	// IDPrefix prefixes the key inside the infNFe Id attribute
	IDPrefix = "NFe"

	emissionModeIndex = 34
)

var (
	// ErrInvalidKey is returned for keys that are not 44 digits or fail the check digit
	ErrInvalidKey = errors.New("invalid access key")
	// ErrInvalidEmissionMode is returned for emission modes outside 1..9
	ErrInvalidEmissionMode = errors.New("invalid emission mode")
)

// CheckDigitAlgorithm computes the check digit of a key prefix
type CheckDigitAlgorithm interface {
	Compute(prefix string) (int, error)
}

// Modulo11 is the check digit algorithm published for NF-e keys
type Modulo11 struct{}

// Compute implements CheckDigitAlgorithm
func (Modulo11) Compute(prefix string) (int, error) {
	return CheckDigit(prefix)
}

// CheckDigit computes the modulo-11 check digit over a 43-digit prefix
func CheckDigit(prefix string) (int, error) {
	if len(prefix) != Length-1 || !isDigits(prefix) {
		return 0, fmt.Errorf("%w: prefix must have %d digits, got %q", ErrInvalidKey, Length-1, prefix)
	}

	sum, weight := 0, 2
	for i := len(prefix) - 1; i >= 0; i-- {
		sum += int(prefix[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}

	rem := sum % 11
	if rem < 2 {
		return 0, nil
	}
	return 11 - rem, nil
}

// Key is a validated 44-digit access key
type Key string

// Parse validates a 44-digit key including its check digit
func Parse(s string) (Key, error) {
	if len(s) != Length || !isDigits(s) {
		return "", fmt.Errorf("%w: expected %d digits, got %q", ErrInvalidKey, Length, s)
	}
	dv, err := CheckDigit(s[:Length-1])
	if err != nil {
		return "", err
	}
	if int(s[Length-1]-'0') != dv {
		return "", fmt.Errorf("%w: check digit %c does not match computed %d", ErrInvalidKey, s[Length-1], dv)
	}
	return Key(s), nil
}

// FromID extracts the key from an infNFe Id attribute ("NFe" + 44 digits).
// The check digit is not verified, so documents carrying a stale digit can still be corrected.
func FromID(id string) (Key, error) {
	digits := strings.TrimPrefix(id, IDPrefix)
	if len(digits) != Length || !isDigits(digits) {
		return "", fmt.Errorf("%w: malformed Id attribute %q", ErrInvalidKey, id)
	}
	return Key(digits), nil
}

// Parts holds the fields an access key is built from
type Parts struct {
	Jurisdiction string // cUF, 2 digits
	YearMonth    string // AAMM
	CNPJ         string // 14 digits
	Model        string // 55 or 65
	Series       int
	Number       int
	EmissionMode int
	Code         int // cNF
}

// Build assembles a key from its parts and appends the check digit
func Build(p Parts) (Key, error) {
	if p.EmissionMode < 1 || p.EmissionMode > 9 {
		return "", fmt.Errorf("%w: %d", ErrInvalidEmissionMode, p.EmissionMode)
	}
	for _, f := range []struct {
		value string
		width int
	}{{p.Jurisdiction, 2}, {p.YearMonth, 4}, {p.CNPJ, 14}, {p.Model, 2}} {
		if len(f.value) != f.width || !isDigits(f.value) {
			return "", fmt.Errorf("%w: field %q must have %d digits", ErrInvalidKey, f.value, f.width)
		}
	}
	prefix := p.Jurisdiction + p.YearMonth + p.CNPJ + p.Model +
		fmt.Sprintf("%03d%09d%d%08d", p.Series, p.Number, p.EmissionMode, p.Code)
	dv, err := CheckDigit(prefix)
	if err != nil {
		return "", err
	}
	return Key(prefix + strconv.Itoa(dv)), nil
}

// String returns the 44 digits
func (k Key) String() string { return string(k) }

// ID returns the value of the infNFe Id attribute for this key
func (k Key) ID() string { return IDPrefix + string(k) }

// Jurisdiction returns the cUF segment
func (k Key) Jurisdiction() string { return string(k[0:2]) }

// Model returns the document model segment
func (k Key) Model() string { return string(k[20:22]) }

// EmissionMode returns the tpEmis digit
func (k Key) EmissionMode() int { return int(k[emissionModeIndex] - '0') }

// Code returns the cNF segment
func (k Key) Code() string { return string(k[35:43]) }

// CheckDigit returns the cDV digit
func (k Key) CheckDigit() int { return int(k[Length-1] - '0') }

// WithEmissionMode overwrites the emission-mode digit and recomputes the check digit.
// Applying the same mode twice yields the same key.
func (k Key) WithEmissionMode(mode int) (Key, error) {
	if len(k) != Length {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, string(k))
	}
	if mode < 1 || mode > 9 {
		return "", fmt.Errorf("%w: %d", ErrInvalidEmissionMode, mode)
	}
	prefix := string(k[:emissionModeIndex]) + strconv.Itoa(mode) + string(k[emissionModeIndex+1:Length-1])
	dv, err := CheckDigit(prefix)
	if err != nil {
		return "", err
	}
	return Key(prefix + strconv.Itoa(dv)), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
