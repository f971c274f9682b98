package document

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-nfe/pkg/contingency"
)

// DateTimeLayout is the layout of dhEmi and dhCont
const DateTimeLayout = "2006-01-02T15:04:05-07:00"

// DefaultLocation is used for dhCont when no location is configured (UTC-03:00)
var DefaultLocation = time.FixedZone("BRT", -3*60*60)

// ide children preceding dhCont and xJust, nearest first
var (
	tpEmisAnchors = []string{"tpImp", "cMunFG", "idDest", "tpNF", "dhSaiEnt", "dhEmi"}
	dhContAnchors = []string{"verProc", "procEmi", "indIntermed", "indPres", "indFinal", "finNFe", "tpAmb", "cDV"}
	xJustAnchors  = append([]string{"dhCont"}, dhContAnchors...)
)

// Corrector rewrites documents for a contingency mode
type Corrector struct {
	location *time.Location
	logger   *slog.Logger
}

// CorrectorOption configures a Corrector
type CorrectorOption func(*Corrector)

// WithLocation sets the time zone dhCont is written in
func WithLocation(loc *time.Location) CorrectorOption {
	return func(c *Corrector) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) CorrectorOption {
	return func(c *Corrector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCorrector creates a Corrector
func NewCorrector(opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		location: DefaultLocation,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correct applies the contingency state to the document in place.
// With no contingency declared the document is not modified.
func (c *Corrector) Correct(d *Document, state contingency.State) error {
	if err := state.Validate(); err != nil {
		return err
	}
	if !state.Active() {
		return nil
	}

	ide := d.Ide()
	if ide == nil {
		return fmt.Errorf("%w: ide not found", ErrMalformedDocument)
	}
	inf := d.InfNFe()
	key, err := d.Key()
	if err != nil {
		return err
	}

	mode := state.Type.EmissionMode()
	corrected, err := key.WithEmissionMode(mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if n := RemoveSignature(d); n > 0 {
		c.logger.Debug("removed signature before correction", "key", key.String())
	}

	setChild(ide, "tpEmis", strconv.Itoa(mode), tpEmisAnchors)
	setChild(ide, "cDV", strconv.Itoa(corrected.CheckDigit()), []string{"tpEmis"})
	setChild(ide, "dhCont", state.ActivatedAt.In(c.location).Format(DateTimeLayout), dhContAnchors)
	setChild(ide, "xJust", Justification(state.Motive), xJustAnchors)
	inf.CreateAttr("Id", corrected.ID())

	if corrected != key {
		c.logger.Info("access key corrected for contingency",
			"contingency", string(state.Type),
			"from", key.String(),
			"to", corrected.String())
	}
	return nil
}

// CorrectBytes parses, corrects and serializes raw content
func (c *Corrector) CorrectBytes(data []byte, state contingency.State) ([]byte, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if !state.Active() {
		return data, nil
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := c.Correct(d, state); err != nil {
		return nil, err
	}
	return d.Bytes()
}

// setChild sets the text of parent/tag, inserting the element after the
// first anchor present when it does not exist. Without an anchor it goes
// before NFref or at the end.
func setChild(parent *etree.Element, tag, value string, anchors []string) {
	if el := parent.SelectElement(tag); el != nil {
		el.SetText(value)
		return
	}

	el := etree.NewElement(tag)
	el.SetText(value)
	for _, name := range anchors {
		if anchor := parent.SelectElement(name); anchor != nil {
			parent.InsertChildAt(anchor.Index()+1, el)
			return
		}
	}
	if ref := parent.SelectElement("NFref"); ref != nil {
		parent.InsertChildAt(ref.Index(), el)
		return
	}
	parent.AddChild(el)
}
