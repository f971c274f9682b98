package qrcode

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-nfe/pkg/accesskey"
	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
	"github.com/sirosfoundation/go-nfe/pkg/document"
)

// Version of the QR code layout
const Version = "2"

// ErrInvalidParams is returned for missing CSC data or URLs
var ErrInvalidParams = errors.New("invalid verification code parameters")

// Params carries what the code generation needs besides the document
type Params struct {
	// QueryURL is the NfeConsultaQR address of the jurisdiction
	QueryURL string
	// KeyURL is the NfeConsultaChave address printed as urlChave
	KeyURL string
	// Jurisdiction is the UF the document was issued in
	Jurisdiction string
	// LayoutVersion is the active protocol version
	LayoutVersion string
	// CSCID is the identifier of the security code
	CSCID string
	// CSC is the taxpayer security code
	CSC string
}

func (p Params) validate() error {
	switch {
	case p.QueryURL == "":
		return fmt.Errorf("%w: query URL is required", ErrInvalidParams)
	case strings.TrimSpace(p.CSC) == "":
		return fmt.Errorf("%w: CSC is required", ErrInvalidParams)
	case p.CSCID == "":
		return fmt.Errorf("%w: CSC id is required", ErrInvalidParams)
	}
	if _, err := cscID(p.CSCID); err != nil {
		return err
	}
	return nil
}

// cscID drops leading zeros
func cscID(id string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil {
		return "", fmt.Errorf("%w: CSC id %q", ErrInvalidParams, id)
	}
	return strconv.FormatUint(n, 10), nil
}

// Hash returns the uppercase hex SHA-1 of the fields followed by the CSC
func Hash(fields, csc string) string {
	sum := sha1.Sum([]byte(fields + csc))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Online returns the p parameter of a document transmitted online
func Online(key accesskey.Key, env catalog.Environment, id, csc string) (string, error) {
	id, err := cscID(id)
	if err != nil {
		return "", err
	}
	fields := strings.Join([]string{key.String(), Version, strconv.Itoa(int(env)), id}, "|")
	return fields + "|" + Hash(fields, csc), nil
}

// Offline returns the p parameter of a document issued in offline contingency
func Offline(key accesskey.Key, env catalog.Environment, day int, total, digest, id, csc string) (string, error) {
	id, err := cscID(id)
	if err != nil {
		return "", err
	}
	fields := strings.Join([]string{
		key.String(),
		Version,
		strconv.Itoa(int(env)),
		fmt.Sprintf("%02d", day),
		total,
		hex.EncodeToString([]byte(digest)),
		id,
	}, "|")
	return fields + "|" + Hash(fields, csc), nil
}

// Build computes the full QR code URL for a signed document
func Build(d *document.Document, p Params) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	key, err := d.Key()
	if err != nil {
		return "", err
	}
	env, err := d.Environment()
	if err != nil {
		return "", err
	}

	var param string
	if key.EmissionMode() == contingency.Offline.EmissionMode() {
		issued, err := d.IssuedAt()
		if err != nil {
			return "", err
		}
		total, err := d.Total()
		if err != nil {
			return "", err
		}
		digest, err := d.DigestValue()
		if err != nil {
			return "", err
		}
		param, err = Offline(key, env, issued.Day(), total, digest, p.CSCID, p.CSC)
		if err != nil {
			return "", err
		}
	} else {
		param, err = Online(key, env, p.CSCID, p.CSC)
		if err != nil {
			return "", err
		}
	}

	sep := "?"
	if strings.Contains(p.QueryURL, "?") {
		sep = "&"
	}
	return p.QueryURL + sep + "p=" + param, nil
}

// Embed writes infNFeSupl right after infNFe, replacing any previous one
func Embed(d *document.Document, qr, keyURL string) error {
	nfe := d.NFe()
	inf := d.InfNFe()
	if nfe == nil || inf == nil {
		return fmt.Errorf("%w: infNFe not found", document.ErrMalformedDocument)
	}
	document.RemoveSupplement(d)

	supl := etree.NewElement("infNFeSupl")
	supl.CreateElement("qrCode").CreateCData(qr)
	if keyURL != "" {
		supl.CreateElement("urlChave").SetText(keyURL)
	}
	nfe.InsertChildAt(inf.Index()+1, supl)
	return nil
}

// Generator embeds verification codes in signed documents
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate returns the signed document with its verification code embedded
func (g *Generator) Generate(signed []byte, p Params) ([]byte, error) {
	d, err := document.Parse(signed)
	if err != nil {
		return nil, err
	}
	qr, err := Build(d, p)
	if err != nil {
		return nil, err
	}
	if err := Embed(d, qr, p.KeyURL); err != nil {
		return nil, err
	}
	g.logger.Debug("verification code embedded",
		"uf", p.Jurisdiction,
		"version", p.LayoutVersion,
		"query_url", p.QueryURL)
	return d.Bytes()
}
