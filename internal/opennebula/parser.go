package opennebula

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/stensonb/cloud-agent/internal/logging"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

const (
	// HeaderMarker is the first line of every OpenNebula context.
	HeaderMarker = "# Context variables generated by OpenNebula"

	// Provenance tags configurations produced by this package.
	Provenance = "opennebula"

	// DefaultPath is where the context CD is mounted.
	DefaultPath = "/mnt/context.sh"
)

// Common errors
var (
	ErrUnsupportedContext = errors.New("unsupported context")
	ErrInvalidUnit        = errors.New("invalid interface unit")
	ErrIdentity           = errors.New("failed to calculate instance hash")
)

// ParseError reports a fatal problem on a specific context line.
type ParseError struct {
	Line int
	Key  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Logger is the diagnostics sink used by the parser.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Observer receives parse outcomes. metrics.Recorder implements it.
type Observer interface {
	ObserveParse(result string, d time.Duration)
	ObserveAddress(kind sysconfig.Kind)
}

// Parse results reported to the Observer.
const (
	ResultOK          = "ok"
	ResultAbsent      = "absent"
	ResultUnsupported = "unsupported"
	ResultError       = "error"
)

// AddrFunc registers a network address.
type AddrFunc func(sc *sysconfig.SystemConfig, unit uint16, value string, family sysconfig.Family, kind sysconfig.Kind) error

// KeyFunc registers an SSH public key.
type KeyFunc func(sc *sysconfig.SystemConfig, value, comment string) error

// Provider loads OpenNebula contexts.
type Provider struct {
	path           string
	log            Logger
	observer       Observer
	legacyComments bool
	addAddr        AddrFunc
	addKey         KeyFunc
}

// Option configures a Provider.
type Option func(*Provider)

// WithPath sets the context file location.
func WithPath(path string) Option {
	return func(p *Provider) { p.path = path }
}

// WithLogger sets the diagnostics sink.
func WithLogger(l Logger) Option {
	return func(p *Provider) { p.log = l }
}

// WithObserver reports parse outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// WithLegacyComments cuts lines at the first '#' even inside quotes,
// matching older agents byte for byte.
func WithLegacyComments(legacy bool) Option {
	return func(p *Provider) { p.legacyComments = legacy }
}

// WithAddrFunc replaces the network address registration.
func WithAddrFunc(f AddrFunc) Option {
	return func(p *Provider) { p.addAddr = f }
}

// WithKeyFunc replaces the public key registration.
func WithKeyFunc(f KeyFunc) Option {
	return func(p *Provider) { p.addKey = f }
}

// NewProvider returns a Provider reading DefaultPath unless told otherwise.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		path:    DefaultPath,
		addAddr: sysconfig.AddNetAddr,
		addKey:  sysconfig.AddPubKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.WithComponent("opennebula")
	}
	return p
}

// Path returns the context file location.
func (p *Provider) Path() string {
	return p.path
}

// Load parses the context file into sc.
//
// A context file that cannot be opened means OpenNebula is not in use
// here; Load then returns false and no error. A file with the wrong header
// returns false and ErrUnsupportedContext. Any other failure returns true
// and an error, and sc may hold addresses from the lines that were read.
func (p *Provider) Load(sc *sysconfig.SystemConfig) (bool, error) {
	start := time.Now()

	f, err := os.Open(p.path)
	if err != nil {
		p.log.Debug("no context", "path", p.path, "error", err)
		p.observe(ResultAbsent, start)
		return false, nil
	}

	b := newBuilder(sc)
	err = p.parse(f, b)
	f.Close()
	if err != nil {
		return p.fail(err, start)
	}

	id, err := IdentityFile(p.path)
	if err != nil {
		p.log.Debug("failed to calculate instance hash", "path", p.path, "error", err)
		return p.fail(fmt.Errorf("%w: %v", ErrIdentity, err), start)
	}

	p.finish(b, id)
	p.observe(ResultOK, start)
	return true, nil
}

// Parse reads a context from r into sc. The identity is the digest of the
// bytes consumed from r.
func (p *Provider) Parse(r io.Reader, sc *sysconfig.SystemConfig) error {
	start := time.Now()
	hasher := sha256.New()

	b := newBuilder(sc)
	if err := p.parse(io.TeeReader(r, hasher), b); err != nil {
		_, err = p.fail(err, start)
		return err
	}

	p.finish(b, hex.EncodeToString(hasher.Sum(nil)))
	p.observe(ResultOK, start)
	return nil
}

func (p *Provider) fail(err error, start time.Time) (bool, error) {
	if errors.Is(err, ErrUnsupportedContext) {
		p.observe(ResultUnsupported, start)
		return false, err
	}
	p.observe(ResultError, start)
	return true, err
}

func (p *Provider) finish(b *builder, id string) {
	b.commit(id)
	p.log.Debug("context instance", "id", id)
	if b.sc.Hostname != "" {
		p.log.Debug("hostname", "name", b.sc.Hostname)
	}
}

func (p *Provider) observe(result string, start time.Time) {
	if p.observer != nil {
		p.observer.ObserveParse(result, time.Since(start))
	}
}

// parse runs the line loop until EOF or the first fatal error.
func (p *Provider) parse(r io.Reader, b *builder) error {
	lr := NewReader(r)
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read context: %w", err)
		}
		if err := p.processLine(b, line); err != nil {
			return err
		}
	}

	if b.lines == 0 {
		p.log.Debug("empty context")
		return ErrUnsupportedContext
	}
	return nil
}

func (p *Provider) processLine(b *builder, line Line) error {
	b.lines++
	if b.lines == 1 {
		if line.Text != HeaderMarker {
			p.log.Debug("unsupported context", "line", line.Number)
			return ErrUnsupportedContext
		}
		b.sc.Provenance = Provenance
		return nil
	}

	key, raw, ok := splitAssignment(stripComment(line.Text, p.legacyComments))
	if !ok {
		return nil
	}
	value, ok := dequote(raw)
	if !ok {
		return nil
	}

	p.log.Debug("context variable", "key", key, "value", value)

	ck, err := classifyKey(key)
	if err != nil {
		p.log.Debug("bad interface key", "line", line.Number, "key", key)
		return &ParseError{Line: line.Number, Key: key, Err: err}
	}

	switch ck.Kind {
	case keyNetwork:
		switch {
		case strings.EqualFold(value, "YES"):
			b.sc.SetNetwork(true)
		case strings.EqualFold(value, "NO"):
			b.sc.SetNetwork(false)
		}
	case keyInterface:
		if err := p.applyInterface(b, ck, value); err != nil {
			p.log.Debug("failed to parse", "line", line.Number, "key", key, "error", err)
			return &ParseError{Line: line.Number, Key: key, Err: err}
		}
	case keyHostname:
		b.stageHostname(value)
	case keySSHPublicKey:
		if err := p.addKey(b.sc, value, ""); err != nil {
			p.log.Warn("failed to set ssh pubkey", "line", line.Number, "error", err)
		}
	}
	return nil
}

func (p *Provider) applyInterface(b *builder, ck contextKey, value string) error {
	sk, ok := interfaceSubkeys[ck.Sub]
	if !ok {
		return nil
	}

	// DNS settings are global in this format whatever the unit says.
	if sk.list {
		for _, tok := range strings.Fields(value) {
			if err := p.register(b, 0, tok, sk); err != nil {
				return err
			}
		}
		return nil
	}

	if sk.kind == sysconfig.KindMAC && ck.Unit == 0 {
		b.fillHostname(macHostname(value))
	}
	return p.register(b, ck.Unit, value, sk)
}

func (p *Provider) register(b *builder, unit uint16, value string, sk subkey) error {
	if err := p.addAddr(b.sc, unit, value, sk.family, sk.kind); err != nil {
		return err
	}
	if p.observer != nil {
		p.observer.ObserveAddress(sk.kind)
	}
	return nil
}
