package transmit

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
	"github.com/sirosfoundation/go-nfe/pkg/document"
	"github.com/sirosfoundation/go-nfe/pkg/qrcode"
	"github.com/sirosfoundation/go-nfe/pkg/resolver"
	"github.com/sirosfoundation/go-nfe/pkg/soap"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

// Signed element and its identifier attribute
const (
	SignedElement = "infNFe"
	IDAttribute   = "Id"
)

// schemaRoot names the XSD of a standalone NF-e
const schemaRoot = "nfe"

// batchIDModulus keeps idLote within its 15 digits
const batchIDModulus = 1_000_000_000_000_000

// Config holds the collaborators and settings of an Orchestrator
type Config struct {
	Resolver      *resolver.Resolver
	Signer        Signer
	Validator     Validator
	Transport     Transport
	CodeGenerator CodeGenerator
	Corrector     *document.Corrector
	// Manager holds the shared contingency state read by TransmitCurrent
	Manager *contingency.Manager
	Logger  *slog.Logger

	// Model is the default for calls that carry no document
	Model catalog.Model
	// Environment is the default for calls that carry no document
	Environment catalog.Environment
	Algorithm   xmldsig.Algorithm

	// CSCID and CSC authenticate NFC-e verification codes
	CSCID string
	CSC   string

	// Compress sends payloads as nfeDadosMsgZip
	Compress bool
	// Synchronous requests indSinc=1 on authorization batches
	Synchronous bool
}

// Orchestrator transmits documents to the authorizers
type Orchestrator struct {
	resolver      *resolver.Resolver
	signer        Signer
	validator     Validator
	transport     Transport
	codeGenerator CodeGenerator
	corrector     *document.Corrector
	manager       *contingency.Manager
	logger        *slog.Logger

	model       catalog.Model
	environment catalog.Environment
	algorithm   xmldsig.Algorithm
	cscID       string
	csc         string
	compress    bool
	synchronous bool
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(config Config) (*Orchestrator, error) {
	if config.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if config.Signer == nil {
		return nil, errors.New("signer is required")
	}
	if config.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Corrector == nil {
		config.Corrector = document.NewCorrector(document.WithLogger(config.Logger))
	}
	if config.Manager == nil {
		config.Manager = contingency.NewManager(config.Logger)
	}
	if config.Model == "" {
		config.Model = catalog.ModelNFe
	}
	if config.Environment == 0 {
		config.Environment = catalog.Homologation
	}
	if config.Algorithm == "" {
		config.Algorithm = xmldsig.SHA1
	}

	return &Orchestrator{
		resolver:      config.Resolver,
		signer:        config.Signer,
		validator:     config.Validator,
		transport:     config.Transport,
		codeGenerator: config.CodeGenerator,
		corrector:     config.Corrector,
		manager:       config.Manager,
		logger:        config.Logger,
		model:         config.Model,
		environment:   config.Environment,
		algorithm:     config.Algorithm,
		cscID:         config.CSCID,
		csc:           config.CSC,
		compress:      config.Compress,
		synchronous:   config.Synchronous,
	}, nil
}

// Model returns the configured default model
func (o *Orchestrator) Model() catalog.Model {
	return o.model
}

// Manager returns the shared contingency state holder
func (o *Orchestrator) Manager() *contingency.Manager {
	return o.manager
}

// TransmitCurrent transmits under the state held by the Manager
func (o *Orchestrator) TransmitCurrent(ctx context.Context, raw []byte, service string) (*Result, error) {
	return o.Transmit(ctx, raw, service, o.manager.Current())
}

// Transmit corrects, signs, validates and sends a document.
// Once the document is signed, failures still return the partial Result
// carrying SignedDocument, which is what gets printed and sent later in
// offline modes.
func (o *Orchestrator) Transmit(ctx context.Context, raw []byte, service string, state contingency.State) (*Result, error) {
	result := &Result{ID: uuid.NewString()}
	log := o.logger.With(
		slog.String("transmission_id", result.ID),
		slog.String("service", service),
		slog.String("contingency", string(state.Type)))

	if err := state.Validate(); err != nil {
		log.Error("invalid contingency state", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	signed, err := o.sign(raw, state)
	if err != nil {
		log.Error("signing failed", "error", err)
		return nil, err
	}

	doc, err := document.Parse(signed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	uf, env, model, err := routing(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	log = log.With(slog.String("uf", uf))

	if model == catalog.ModelNFCe {
		signed, err = o.embedCode(signed, doc, uf, env)
		if err != nil {
			log.Error("verification code failed", "error", err)
			return nil, err
		}
	}
	result.SignedDocument = signed

	if err := o.validate(signed, doc.Version()); err != nil {
		result.SchemaErr = err
		log.Warn("schema validation failed", "error", err)
	}

	desc, err := o.resolver.Resolve(service, uf, env, model, state, false)
	if err != nil {
		log.Error("resolution failed", "error", err)
		return result, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
	}
	result.Endpoint = desc
	log = log.With(slog.String("endpoint", desc.URL))

	payload := signed
	if service == catalog.ServiceAuthorization {
		result.BatchID = batchID(result.ID)
		payload, err = soap.WrapAuthorization(soap.Batch{
			ID:          result.BatchID,
			Synchronous: o.synchronous,
			Version:     desc.Version,
		}, signed)
		if err != nil {
			return result, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
		}
	}

	resp, body, err := o.dispatch(ctx, desc, payload)
	result.RawResponse = body
	if err != nil {
		log.Error("dispatch failed", "error", err)
		return result, err
	}
	result.Response = resp
	result.Status = resp.Status

	log.Info("document transmitted",
		slog.String("batch_id", result.BatchID),
		slog.String("status", resp.Status.Code),
		slog.String("motive", resp.Status.Message))
	return result, nil
}

// Call sends a payload that is not a fiscal document, such as a status
// query, using the configured environment and model
func (o *Orchestrator) Call(ctx context.Context, service, uf string, payload []byte, state contingency.State) (*Result, error) {
	result := &Result{ID: uuid.NewString()}

	desc, err := o.resolver.Resolve(service, uf, o.environment, o.model, state, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
	}
	result.Endpoint = desc

	resp, body, err := o.dispatch(ctx, desc, payload)
	result.RawResponse = body
	if err != nil {
		o.logger.Error("dispatch failed",
			slog.String("transmission_id", result.ID),
			slog.String("service", service),
			slog.String("uf", uf),
			slog.String("endpoint", desc.URL),
			slog.Any("error", err))
		return nil, err
	}
	result.Response = resp
	result.Status = resp.Status
	return result, nil
}

// sign runs the sanitize, correct and sign steps
func (o *Orchestrator) sign(raw []byte, state contingency.State) ([]byte, error) {
	doc, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	if err := o.corrector.Correct(doc, state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	corrected, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	signed, err := o.signer.Sign(corrected, SignedElement, IDAttribute, o.algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return signed, nil
}

// embedCode resolves the NFC-e query services and embeds the verification
// code. The model is forced to 65 for these lookups only.
func (o *Orchestrator) embedCode(signed []byte, doc *document.Document, uf string, env catalog.Environment) ([]byte, error) {
	if o.codeGenerator == nil {
		return nil, fmt.Errorf("%w: no verification code generator configured", ErrSigningFailed)
	}

	query, err := o.resolver.Resolve(catalog.ServiceQRCode, uf, env, catalog.ModelNFCe, contingency.State{}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	var keyURL string
	switch lookup, err := o.resolver.Resolve(catalog.ServiceKeyQuery, uf, env, catalog.ModelNFCe, contingency.State{}, true); {
	case err == nil:
		keyURL = lookup.URL
	case errors.Is(err, catalog.ErrServiceNotFound):
		o.logger.Debug("no key query address", "uf", uf)
	default:
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	out, err := o.codeGenerator.Generate(signed, qrcode.Params{
		QueryURL:      query.URL,
		KeyURL:        keyURL,
		Jurisdiction:  uf,
		LayoutVersion: doc.Version(),
		CSCID:         o.cscID,
		CSC:           o.csc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return out, nil
}

func (o *Orchestrator) validate(data []byte, version string) error {
	if o.validator == nil {
		return nil
	}
	if err := o.validator.Validate(data, o.validator.Path(schemaRoot, version)); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaValidationFailed, err)
	}
	return nil
}

// dispatch builds the envelope, sends it and parses the answer
func (o *Orchestrator) dispatch(ctx context.Context, desc resolver.ServiceDescriptor, payload []byte) (*soap.Response, []byte, error) {
	req := soap.Request{
		Namespace: desc.Namespace,
		Payload:   payload,
		Compress:  o.compress,
	}
	if desc.Header != nil {
		req.Header = &soap.Header{
			JurisdictionCode: desc.Header.JurisdictionCode,
			DataVersion:      desc.Header.DataVersion,
		}
	}
	envelope, err := soap.BuildEnvelope(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
	}

	body, err := o.transport.Send(ctx, desc.URL, desc.SOAPAction, envelope)
	if err != nil {
		if len(body) > 0 {
			if _, faultErr := soap.ParseResponse(body); errors.Is(faultErr, soap.ErrFault) {
				err = fmt.Errorf("%w (%w)", err, faultErr)
			}
		}
		return nil, body, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
	}

	resp, err := soap.ParseResponse(body)
	if err != nil {
		return nil, body, fmt.Errorf("%w: %w", ErrTransmissionFailed, err)
	}
	return resp, body, nil
}

// routing reads the resolution inputs from the signed document
func routing(doc *document.Document) (string, catalog.Environment, catalog.Model, error) {
	uf, err := doc.Jurisdiction()
	if err != nil {
		return "", 0, "", err
	}
	env, err := doc.Environment()
	if err != nil {
		return "", 0, "", err
	}
	model, err := doc.Model()
	if err != nil {
		return "", 0, "", err
	}
	return uf, env, model, nil
}

// batchID derives a numeric idLote from the transmission id
func batchID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return "1"
	}
	n := binary.BigEndian.Uint64(u[:8]) % batchIDModulus
	return strconv.FormatUint(n, 10)
}
