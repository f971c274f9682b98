package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
)

// MaxReportedErrors bounds the validation messages kept in an error
const MaxReportedErrors = 5

var (
	// ErrInvalid is returned when a document does not conform to its schema
	ErrInvalid = errors.New("document does not conform to schema")
	// ErrSchema is returned when a schema file cannot be compiled
	ErrSchema = errors.New("unusable schema")
)

// Validator checks documents against XSD files. Compiled schemas are
// cached by path until Close. Validations are serialized.
type Validator struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	schemas map[string]*xsd.Schema
}

// Option configures a Validator
type Option func(*Validator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewValidator creates a Validator for the schemas in dir
func NewValidator(dir string, opts ...Option) *Validator {
	v := &Validator{
		dir:     dir,
		logger:  slog.Default(),
		schemas: make(map[string]*xsd.Schema),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Path returns the schema file for a root element and layout version,
// e.g. ("nfe", "4.00") -> <dir>/nfe_v4.00.xsd
func (v *Validator) Path(root, version string) string {
	return filepath.Join(v.dir, fmt.Sprintf("%s_v%s.xsd", root, version))
}

// Validate checks data against the schema at schemaPath.
// A schema that does not exist is treated as a pass.
func (v *Validator) Validate(data []byte, schemaPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.schema(schemaPath)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	doc, err := libxml2.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	defer doc.Free()

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return nil
}

// IsValid reports whether data conforms to the schema at schemaPath
func (v *Validator) IsValid(data []byte, schemaPath string) bool {
	return v.Validate(data, schemaPath) == nil
}

// Close releases the compiled schemas
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for path, s := range v.schemas {
		s.Free()
		delete(v.schemas, path)
	}
}

// schema returns the compiled schema at path, or nil when the file does not
// exist. Callers hold mu.
func (v *Validator) schema(path string) (*xsd.Schema, error) {
	if s, ok := v.schemas[path]; ok {
		return s, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			v.logger.Debug("schema not found, skipping validation", "schema", path)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	// includes and imports resolve relative to the schema file
	s, err := xsd.ParseFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchema, path, err)
	}
	v.schemas[path] = s
	v.logger.Debug("schema compiled", "schema", path)
	return s, nil
}

func describe(err error) string {
	var verr xsd.SchemaValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	var msgs []string
	for _, e := range verr.Errors() {
		msgs = append(msgs, strings.TrimSpace(e.Error()))
		if len(msgs) == MaxReportedErrors {
			break
		}
	}
	if len(msgs) == 0 {
		return err.Error()
	}
	return strings.Join(msgs, "; ")
}
