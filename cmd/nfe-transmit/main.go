// Command nfe-transmit signs and transmits an NF-e or NFC-e document
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/sirosfoundation/go-nfe/internal/config"
	"github.com/sirosfoundation/go-nfe/pkg/catalog"
	"github.com/sirosfoundation/go-nfe/pkg/certificate"
	"github.com/sirosfoundation/go-nfe/pkg/contingency"
	"github.com/sirosfoundation/go-nfe/pkg/document"
	"github.com/sirosfoundation/go-nfe/pkg/qrcode"
	"github.com/sirosfoundation/go-nfe/pkg/resolver"
	"github.com/sirosfoundation/go-nfe/pkg/schema"
	"github.com/sirosfoundation/go-nfe/pkg/transmit"
	"github.com/sirosfoundation/go-nfe/pkg/transport"
	"github.com/sirosfoundation/go-nfe/pkg/xmldsig"
)

// certificateWarning is how close to expiry the certificate gets logged
const certificateWarning = 30 * 24 * time.Hour

type options struct {
	configPath  string
	envFile     string
	service     string
	contingency string
	motive      string
	clear       bool
	output      string
	input       string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("nfe-transmit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "nfe.yaml", "configuration file")
	fs.StringVar(&o.envFile, "env-file", ".env", "environment file loaded before the configuration")
	fs.StringVar(&o.service, "service", catalog.ServiceAuthorization, "web service to call")
	fs.StringVar(&o.contingency, "contingency", "", "declare a contingency mode (SVCAN, SVCRS, EPEC, FSDA, OFFLINE, or AUTO for the jurisdiction's SVC)")
	fs.StringVar(&o.motive, "motive", "", "contingency justification")
	fs.BoolVar(&o.clear, "clear-contingency", false, "return to normal operation before transmitting")
	fs.StringVar(&o.output, "out", "", "write the signed document to this file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: nfe-transmit [flags] document.xml\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("exactly one document is required")
	}
	o.input = fs.Arg(0)
	if o.contingency != "" && o.clear {
		return o, errors.New("-contingency and -clear-contingency are exclusive")
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "nfe-transmit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger(stderr)
	slog.SetDefault(logger)

	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	manager := contingency.NewManager(logger)
	if err := loadState(cfg.Contingency.StateFile, manager); err != nil {
		return err
	}
	if err := applyContingency(opts, raw, manager); err != nil {
		return err
	}
	if err := saveState(cfg.Contingency.StateFile, manager.Current()); err != nil {
		return err
	}

	validator := schema.NewValidator(cfg.Schemas.Dir, schema.WithLogger(logger))
	defer validator.Close()

	orchestrator, err := build(cfg, manager, validator, logger)
	if err != nil {
		return err
	}

	result, err := orchestrator.TransmitCurrent(ctx, raw, opts.service)
	if result != nil && opts.output != "" {
		if werr := os.WriteFile(opts.output, result.SignedDocument, 0o644); werr != nil {
			return errors.Join(err, fmt.Errorf("writing signed document: %w", werr))
		}
	}
	if err != nil {
		return err
	}

	if result.SchemaErr != nil {
		fmt.Fprintf(stdout, "schema: %v\n", result.SchemaErr)
	}
	fmt.Fprintf(stdout, "transmission: %s\nendpoint: %s\nstatus: %s\n", result.ID, result.Endpoint.URL, result.Status)
	if result.Response != nil {
		for _, p := range result.Response.Protocols {
			fmt.Fprintf(stdout, "protocol: %s %s %s\n", p.Key, p.Number, p.Status)
		}
	}
	return nil
}

// build wires the orchestrator from configuration. The validator is created
// by the caller so its compiled schemas can be released.
func build(cfg *config.Config, manager *contingency.Manager, validator *schema.Validator, logger *slog.Logger) (*transmit.Orchestrator, error) {
	cert, err := certificate.Load(certificate.Source{
		Path:     cfg.Certificate.Path,
		KeyPath:  cfg.Certificate.KeyPath,
		Password: cfg.Certificate.Password,
	})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := cert.Validate(now); err != nil {
		return nil, err
	}
	if left := cert.ExpiresIn(now); left < certificateWarning {
		logger.Warn("certificate expires soon", "cnpj", cert.CNPJ(), "expires_in", left.Round(time.Hour))
	}

	signer, err := xmldsig.NewSigner(cert.PrivateKey, cert.Leaf)
	if err != nil {
		return nil, err
	}

	var loader catalog.Loader = catalog.EmbeddedLoader()
	if cfg.Catalog.Dir != "" {
		loader = catalog.NewDirLoader(cfg.Catalog.Dir)
	}
	cat, err := catalog.Load(loader, cfg.LayoutVersion, catalog.ModelNFe, catalog.ModelNFCe)
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(cat, logger)
	if err != nil {
		return nil, err
	}

	roots, err := transport.LoadRootCAs(cfg.Certificate.CABundles...)
	if err != nil {
		return nil, err
	}
	if len(cfg.Certificate.CABundles) > 0 {
		if err := cert.Verify(roots, now); err != nil {
			logger.Warn("certificate chain not trusted by the configured bundles", "error", err)
		}
	}
	httpsConfig := transport.DefaultHTTPSConfig()
	httpsConfig.Certificates = []tls.Certificate{cert.TLSCertificate()}
	httpsConfig.RootCAs = roots
	httpsConfig.Timeout = cfg.Transport.Timeout

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return transmit.NewOrchestrator(transmit.Config{
		Resolver:      res,
		Signer:        signer.WithLogger(logger),
		Validator:     validator,
		Transport:     transport.NewHTTPSClient(httpsConfig, logger),
		CodeGenerator: qrcode.NewGenerator(logger),
		Corrector:     document.NewCorrector(document.WithLocation(loc), document.WithLogger(logger)),
		Manager:       manager,
		Logger:        logger,
		Model:         cfg.DocumentModel(),
		Environment:   cfg.Env(),
		Algorithm:     cfg.Algorithm(),
		CSCID:         cfg.NFCe.CSCID,
		CSC:           cfg.NFCe.CSC,
		Compress:      cfg.Transport.Compress,
		Synchronous:   cfg.Synchronous(),
	})
}

// applyContingency handles the -contingency and -clear-contingency flags
func applyContingency(opts options, raw []byte, manager *contingency.Manager) error {
	if opts.clear {
		manager.Clear()
		return nil
	}
	if opts.contingency == "" {
		return nil
	}

	var typ contingency.Type
	if opts.contingency == "AUTO" || opts.contingency == "auto" {
		doc, err := document.Parse(raw)
		if err != nil {
			return err
		}
		uf, err := doc.Jurisdiction()
		if err != nil {
			return err
		}
		typ = contingency.DefaultForJurisdiction(uf)
	} else {
		var err error
		if typ, err = contingency.ParseType(opts.contingency); err != nil {
			return err
		}
	}
	_, err := manager.Activate(typ, opts.motive, time.Now())
	return err
}

func loadState(path string, manager *contingency.Manager) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading contingency state: %w", err)
	}
	state, err := contingency.Decode(data)
	if err != nil {
		return err
	}
	manager.Restore(state)
	return nil
}

func saveState(path string, state contingency.State) error {
	if path == "" {
		return nil
	}
	data, err := state.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing contingency state: %w", err)
	}
	return nil
}
