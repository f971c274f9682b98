package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
)

// PortalBase is the root of the web service namespaces
const PortalBase = "http://www.portalfiscal.inf.br/nfe"

// ErrContingencyUnavailable is returned when the declared contingency mode does not allow the service
var ErrContingencyUnavailable = errors.New("service unavailable in contingency")

// headerlessSince is the first layout version without nfeCabecMsg
var headerlessSince = semver.New(4, 0, 0, "", "")

// Header is the nfeCabecMsg payload of layouts before 4.00
type Header struct {
	JurisdictionCode int
	DataVersion      string
}

// ServiceDescriptor describes how to call one web service
type ServiceDescriptor struct {
	URL        string
	Method     string
	Operation  string
	Version    string
	Namespace  string
	SOAPAction string
	Header     *Header
}

// Catalog is the lookup side of catalog.Catalog
type Catalog interface {
	Lookup(service, jurisdiction string, env catalog.Environment, model catalog.Model) (catalog.Entry, error)
	Version() string
}

// Resolver resolves service descriptors against a catalog
type Resolver struct {
	catalog Catalog
	layout  *semver.Version
	logger  *slog.Logger
}

// New creates a Resolver. The catalog's layout version decides whether headers are emitted.
func New(cat Catalog, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	layout, err := ParseLayoutVersion(cat.Version())
	if err != nil {
		return nil, err
	}
	return &Resolver{
		catalog: cat,
		layout:  layout,
		logger:  logger,
	}, nil
}

// ParseLayoutVersion parses a layout version such as "4.00" or "3.10"
func ParseLayoutVersion(s string) (*semver.Version, error) {
	majorStr, minorStr, _ := strings.Cut(strings.TrimSpace(s), ".")
	major, err := strconv.ParseUint(majorStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid layout version %q: %w", s, err)
	}
	var minor uint64
	if minorStr != "" {
		if minor, err = strconv.ParseUint(minorStr, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid layout version %q: %w", s, err)
		}
	}
	return semver.New(major, minor, 0, "", ""), nil
}

// Available reports whether a service may be called under the contingency state
func Available(service string, state contingency.State) error {
	switch {
	case state.Type.Offline():
		return fmt.Errorf("%w: no authorizer reachable in %s mode", ErrContingencyUnavailable, state.Type)
	case state.Type == contingency.EPEC && service != catalog.ServiceEPEC:
		return fmt.Errorf("%w: only %s is available in EPEC mode, got %s",
			ErrContingencyUnavailable, catalog.ServiceEPEC, service)
	}
	return nil
}

// Resolve builds the descriptor for a service.
// With ignoreContingency set the state is neither checked nor used for routing.
func (r *Resolver) Resolve(service, uf string, env catalog.Environment, model catalog.Model,
	state contingency.State, ignoreContingency bool) (ServiceDescriptor, error) {
	key := uf
	if !ignoreContingency {
		if err := Available(service, state); err != nil {
			return ServiceDescriptor{}, err
		}
		if state.Active() {
			key = string(state.Type)
		}
	}

	entry, err := r.catalog.Lookup(service, key, env, model)
	if err != nil {
		return ServiceDescriptor{}, err
	}

	namespace := PortalBase + "/wsdl/" + entry.Operation
	desc := ServiceDescriptor{
		URL:        entry.URL,
		Method:     entry.Method,
		Operation:  entry.Operation,
		Version:    entry.Version,
		Namespace:  namespace,
		SOAPAction: namespace + "/" + entry.Method,
	}

	if r.layout.LessThan(headerlessSince) {
		code, err := catalog.JurisdictionCode(uf)
		if err != nil {
			return ServiceDescriptor{}, err
		}
		desc.Header = &Header{
			JurisdictionCode: code,
			DataVersion:      entry.Version,
		}
	}

	r.logger.Debug("resolved service",
		"service", service,
		"uf", uf,
		"key", key,
		"environment", env.String(),
		"model", string(model),
		"endpoint", desc.URL)
	return desc, nil
}
