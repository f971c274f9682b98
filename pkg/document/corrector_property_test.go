package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/sirosfoundation/go-nfe/internal/fixtures"
	"github.com/sirosfoundation/go-nfe/pkg/accesskey"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
)

var contingencyTypes = []contingency.Type{
	contingency.SVCAN, contingency.SVCRS, contingency.EPEC, contingency.FSDA, contingency.Offline,
}

// TestCorrectProperties checks idempotence and key consistency for arbitrary states.
func TestCorrectProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	corrector := NewCorrector()

	properties.Property("correcting twice equals correcting once", prop.ForAll(
		func(idx int, motive string, unix int64) bool {
			state, err := contingency.Activate(contingencyTypes[idx], motive, time.Unix(unix, 0))
			if err != nil {
				return false
			}
			once, err := corrector.CorrectBytes(fixtures.NFe(), state)
			if err != nil {
				return false
			}
			twice, err := corrector.CorrectBytes(once, state)
			if err != nil {
				return false
			}
			return bytes.Equal(once, twice)
		},
		gen.IntRange(0, len(contingencyTypes)-1),
		gen.Identifier(),
		gen.Int64Range(1500000000, 2000000000),
	))

	properties.Property("corrected key matches tpEmis and cDV", prop.ForAll(
		func(idx int, motive string) bool {
			state, err := contingency.Activate(contingencyTypes[idx], motive, time.Now())
			if err != nil {
				return false
			}
			doc, err := Parse(fixtures.NFe())
			if err != nil {
				return false
			}
			if err := corrector.Correct(doc, state); err != nil {
				return false
			}
			key, err := doc.Key()
			if err != nil {
				return false
			}
			if _, err := accesskey.Parse(key.String()); err != nil {
				return false
			}
			mode, err := doc.EmissionMode()
			if err != nil {
				return false
			}
			cdv := doc.Ide().SelectElement("cDV").Text()
			return mode == key.EmissionMode() && cdv == key.String()[43:]
		},
		gen.IntRange(0, len(contingencyTypes)-1),
		gen.Identifier(),
	))

	properties.Property("no contingency leaves content untouched", prop.ForAll(
		func(motive string) bool {
			out, err := corrector.CorrectBytes(fixtures.NFe(), contingency.State{Motive: motive})
			return err == nil && bytes.Equal(out, fixtures.NFe())
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
