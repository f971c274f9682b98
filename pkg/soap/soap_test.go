package soap

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-nfe/pkg/compression"
)

const autorizacaoNS = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"

func parse(t *testing.T, data []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	return doc
}

func TestBuildEnvelope(t *testing.T) {
	payload := []byte(`<?xml version="1.0" encoding="UTF-8"?><consStatServ xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00"><tpAmb>2</tpAmb><cUF>35</cUF><xServ>STATUS</xServ></consStatServ>`)

	data, err := BuildEnvelope(Request{Namespace: autorizacaoNS, Payload: payload})
	require.NoError(t, err)

	doc := parse(t, data)
	env := doc.Root()
	require.NotNil(t, env)
	assert.Equal(t, "soap12", env.Space)
	assert.Equal(t, "Envelope", env.Tag)
	assert.Equal(t, NSSOAP12, env.SelectAttrValue("xmlns:soap12", ""))
	assert.Nil(t, env.SelectElement("Header"), "4.00 requests carry no header")

	msg := env.FindElement("Body/nfeDadosMsg")
	require.NotNil(t, msg)
	assert.Equal(t, autorizacaoNS, msg.SelectAttrValue("xmlns", ""))
	assert.Equal(t, "STATUS", msg.FindElement("consStatServ/xServ").Text())
	assert.NotContains(t, string(data), `encoding="UTF-8"?><consStatServ`)
}

func TestBuildEnvelopeHeader(t *testing.T) {
	data, err := BuildEnvelope(Request{
		Namespace: "http://www.portalfiscal.inf.br/nfe/wsdl/NfeStatusServico2",
		Payload:   []byte(`<consStatServ versao="3.10"/>`),
		Header:    &Header{JurisdictionCode: 43, DataVersion: "3.10"},
	})
	require.NoError(t, err)

	cabec := parse(t, data).FindElement("Envelope/Header/nfeCabecMsg")
	require.NotNil(t, cabec)
	assert.Equal(t, "43", cabec.SelectElement("cUF").Text())
	assert.Equal(t, "3.10", cabec.SelectElement("versaoDados").Text())
}

func TestBuildEnvelopeCompressed(t *testing.T) {
	payload := []byte(`<?xml version="1.0"?><enviNFe versao="4.00"><idLote>1</idLote></enviNFe>`)

	data, err := BuildEnvelope(Request{Namespace: autorizacaoNS, Payload: payload, Compress: true})
	require.NoError(t, err)

	doc := parse(t, data)
	assert.Nil(t, doc.FindElement("Envelope/Body/nfeDadosMsg"))
	msg := doc.FindElement("Envelope/Body/nfeDadosMsgZip")
	require.NotNil(t, msg)

	decoded, err := compression.NewCompressor().Decode(msg.Text())
	require.NoError(t, err)
	assert.Equal(t, `<enviNFe versao="4.00"><idLote>1</idLote></enviNFe>`, string(decoded))
}

func TestBuildEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no namespace", Request{Payload: []byte(`<a/>`)}},
		{"malformed payload", Request{Namespace: autorizacaoNS, Payload: []byte(`<a>`)}},
		{"empty payload", Request{Namespace: autorizacaoNS, Payload: []byte(` `)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildEnvelope(tt.req)
			assert.Error(t, err)
		})
	}
}

func TestWrapAuthorization(t *testing.T) {
	nfe := []byte(`<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe Id="NFe1" versao="4.00"/></NFe>`)

	data, err := WrapAuthorization(Batch{ID: "202507101015", Synchronous: true}, nfe)
	require.NoError(t, err)

	envi := parse(t, data).Root()
	require.NotNil(t, envi)
	assert.Equal(t, "enviNFe", envi.Tag)
	assert.Equal(t, "4.00", envi.SelectAttrValue("versao", ""))
	assert.Equal(t, NSNFe, envi.SelectAttrValue("xmlns", ""))
	assert.Equal(t, "202507101015", envi.SelectElement("idLote").Text())
	assert.Equal(t, "1", envi.SelectElement("indSinc").Text())
	require.NotNil(t, envi.FindElement("NFe/infNFe[@Id='NFe1']"))

	// schema order: idLote, indSinc, NFe
	children := envi.ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "NFe", children[2].Tag)
}

func TestWrapAuthorizationAsync(t *testing.T) {
	data, err := WrapAuthorization(Batch{ID: "7", Version: "4.00"}, []byte(`<NFe/>`), []byte(`<NFe/>`))
	require.NoError(t, err)

	envi := parse(t, data).Root()
	assert.Equal(t, "0", envi.SelectElement("indSinc").Text())
	assert.Len(t, envi.SelectElements("NFe"), 2)
}

func TestWrapAuthorizationErrors(t *testing.T) {
	_, err := WrapAuthorization(Batch{}, []byte(`<NFe/>`))
	assert.Error(t, err)

	_, err = WrapAuthorization(Batch{ID: "1"})
	assert.Error(t, err)

	_, err = WrapAuthorization(Batch{ID: "1"}, []byte(`<NFe>`))
	assert.Error(t, err)
}
