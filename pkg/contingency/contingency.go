package contingency

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Type identifies a contingency mode
type Type string

const (
	None    Type = ""
	SVCAN   Type = "SVCAN"
	SVCRS   Type = "SVCRS"
	EPEC    Type = "EPEC"
	FSDA    Type = "FSDA"
	Offline Type = "OFFLINE"
)

// MaxMotiveLength is the xJust limit of the NF-e layout
const MaxMotiveLength = 256

// ErrInvalidArgument is returned for unknown modes or empty motives
var ErrInvalidArgument = errors.New("invalid argument")

var emissionModes = map[Type]int{
	None:    1,
	EPEC:    4,
	FSDA:    5,
	SVCAN:   6,
	SVCRS:   7,
	Offline: 9,
}

// ParseType parses a mode name, case-insensitively
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if t == "NONE" || t == "NORMAL" {
		return None, nil
	}
	if _, ok := emissionModes[t]; !ok {
		return None, fmt.Errorf("%w: unknown contingency type %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// EmissionMode returns the tpEmis code for the mode
func (t Type) EmissionMode() int {
	return emissionModes[t]
}

// Offline reports whether no authorizer can be reached in this mode
func (t Type) Offline() bool {
	return t == FSDA || t == Offline
}

// State is the declared contingency mode
type State struct {
	Type         Type
	Motive       string
	ActivatedAt  time.Time
	EmissionMode int
}

// Active reports whether a contingency mode is declared
func (s State) Active() bool {
	return s.Type != None
}

// Validate checks a state built outside Activate. A declared mode needs a
// known type, a motive and an activation time.
func (s State) Validate() error {
	if !s.Active() {
		return nil
	}
	mode, ok := emissionModes[s.Type]
	if !ok {
		return fmt.Errorf("%w: unknown contingency type %q", ErrInvalidArgument, s.Type)
	}
	if s.EmissionMode != 0 && s.EmissionMode != mode {
		return fmt.Errorf("%w: tpEmis %d does not match %s", ErrInvalidArgument, s.EmissionMode, s.Type)
	}
	if strings.TrimSpace(s.Motive) == "" {
		return fmt.Errorf("%w: contingency motive is required", ErrInvalidArgument)
	}
	if s.ActivatedAt.IsZero() {
		return fmt.Errorf("%w: activation time is required", ErrInvalidArgument)
	}
	return nil
}

// Activate declares a contingency mode
func (s *State) Activate(t Type, motive string, at time.Time) error {
	if t == None {
		return fmt.Errorf("%w: contingency type is required", ErrInvalidArgument)
	}
	mode, ok := emissionModes[t]
	if !ok {
		return fmt.Errorf("%w: unknown contingency type %q", ErrInvalidArgument, t)
	}
	motive = strings.TrimSpace(motive)
	if motive == "" {
		return fmt.Errorf("%w: contingency motive is required", ErrInvalidArgument)
	}
	if at.IsZero() {
		return fmt.Errorf("%w: activation time is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(motive) > MaxMotiveLength {
		motive = string([]rune(motive)[:MaxMotiveLength])
	}

	*s = State{
		Type:         t,
		Motive:       motive,
		ActivatedAt:  at,
		EmissionMode: mode,
	}
	return nil
}

// Clear resets the state to normal operation
func (s *State) Clear() {
	*s = State{}
}

// Activate returns a new active State
func Activate(t Type, motive string, at time.Time) (State, error) {
	var s State
	err := s.Activate(t, motive, at)
	return s, err
}

// jsonState is the persisted form of a State
type jsonState struct {
	Motive    string `json:"motive"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	TpEmis    int    `json:"tpEmis"`
}

// Encode serializes the state for an external store
func (s State) Encode() ([]byte, error) {
	js := jsonState{
		Motive: s.Motive,
		Type:   string(s.Type),
		TpEmis: s.Type.EmissionMode(),
	}
	if s.Active() {
		js.Timestamp = s.ActivatedAt.Unix()
	}
	return json.Marshal(js)
}

// Decode restores a state produced by Encode. Empty input decodes to normal operation.
func Decode(data []byte) (State, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return State{}, nil
	}
	var js jsonState
	if err := json.Unmarshal(data, &js); err != nil {
		return State{}, fmt.Errorf("%w: decoding contingency state: %w", ErrInvalidArgument, err)
	}
	t, err := ParseType(js.Type)
	if err != nil {
		return State{}, err
	}
	if t == None {
		return State{}, nil
	}
	return Activate(t, js.Motive, time.Unix(js.Timestamp, 0))
}

// Manager holds the process-wide contingency state.
// Activation is rare and reads happen on every transmission, so reads share a lock.
type Manager struct {
	mu     sync.RWMutex
	state  State
	logger *slog.Logger
}

// NewManager creates a manager in normal operation
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Activate declares a contingency mode for all subsequent transmissions
func (m *Manager) Activate(t Type, motive string, at time.Time) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state
	if err := next.Activate(t, motive, at); err != nil {
		return m.state, err
	}
	m.state = next
	m.logger.Warn("contingency activated",
		slog.String("type", string(next.Type)),
		slog.Int("tp_emis", next.EmissionMode),
		slog.String("motive", next.Motive))
	return next, nil
}

// Restore replaces the state, typically with one loaded through Decode
func (m *Manager) Restore(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Clear returns to normal operation
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Active() {
		m.logger.Info("contingency cleared", slog.String("type", string(m.state.Type)))
	}
	m.state.Clear()
}

// Current returns a snapshot of the state
func (m *Manager) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// svcRS lists the jurisdictions served by SVC-RS; every other one uses SVC-AN
var svcRS = map[string]bool{
	"AM": true, "BA": true, "GO": true, "MA": true,
	"MS": true, "MT": true, "PE": true, "PR": true,
}

// DefaultForJurisdiction returns the virtual contingency authorizer of a jurisdiction
func DefaultForJurisdiction(uf string) Type {
	if svcRS[strings.ToUpper(uf)] {
		return SVCRS
	}
	return SVCAN
}
