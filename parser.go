package fix

import (
	"log/slog"
	"time"
)

// engine is the state a Parser shares with every message it creates. It stays
// reachable from the messages after the parser is freed.
type engine struct {
	dict      *Dictionary
	flags     Flags
	alloc     *allocator
	validator *CompiledValidator
	metrics   *Metrics
}

// Parser parses and creates messages of one Dictionary. Its configuration is
// fixed at construction; a Parser may be shared between goroutines.
type Parser struct {
	env     *engine
	limits  Limits
	rules   []fieldRule
	logger  *slog.Logger
	metrics *Metrics
}

type fieldRule struct {
	tag  int // 0 applies to every field
	rule ValidationRule
}

// NewParser creates a parser for dict applying the checks selected by flags.
func NewParser(dict *Dictionary, flags Flags, opts ...ParserOption) (*Parser, error) {
	if dict == nil {
		return nil, newError(CodeInvalidArgument, "dictionary is nil")
	}
	if flags&^CheckAll != 0 {
		return nil, newError(CodeInvalidArgument, "unknown flags 0x%x", uint32(flags&^CheckAll))
	}
	p := &Parser{
		limits: DefaultLimits(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	limits, err := p.limits.normalize()
	if err != nil {
		return nil, err
	}
	p.limits = limits

	validator := NewCompiledValidator()
	for _, r := range p.rules {
		if r.tag == 0 {
			validator.AddGlobalRule(r.rule)
		} else {
			validator.AddFieldRule(r.tag, r.rule)
		}
	}

	p.env = &engine{
		dict:      dict,
		flags:     flags,
		alloc:     newAllocator(limits),
		validator: validator,
		metrics:   p.metrics,
	}
	p.logger.Debug("fix parser created",
		"protocol", dict.ProtocolVersion(),
		"transport", dict.TransportVersion(),
		"flags", flags.String())
	return p, nil
}

// NewParserFromFile loads the dictionary at path and creates a parser for it.
func NewParserFromFile(path string, flags Flags, opts ...ParserOption) (*Parser, error) {
	dict, err := LoadDictionaryFile(path)
	if err != nil {
		return nil, err
	}
	return NewParser(dict, flags, opts...)
}

// Free drops the pages cached for reuse. Messages created by the parser stay
// usable.
func (p *Parser) Free() {
	p.env.alloc.release()
}

// Dictionary returns the parser's dictionary.
func (p *Parser) Dictionary() *Dictionary { return p.env.dict }

// Flags returns the checks the parser applies.
func (p *Parser) Flags() Flags { return p.env.flags }

// Limits returns the effective limits.
func (p *Parser) Limits() Limits { return p.limits }

// ProtocolVersion returns the dictionary's protocol version.
func (p *Parser) ProtocolVersion() string { return p.env.dict.ProtocolVersion() }

// Usage reports the pages and group instances currently held by live
// messages.
func (p *Parser) Usage() (pages, groups int) {
	return p.env.alloc.stats()
}

// NewMessage creates an empty message of the given type with BeginString and
// MsgType set.
func (p *Parser) NewMessage(msgType string) (*Message, error) {
	def, err := p.env.dict.MessageDefinition(msgType)
	if err != nil {
		return nil, err
	}
	m := newMessage(p.env, def)
	if err := m.stamp(); err != nil {
		m.Free()
		return nil, err
	}
	return m, nil
}

// Parse parses the first message in data. Fields are separated by delim,
// which is normally SOH. Bytes after the message are ignored.
func (p *Parser) Parse(data []byte, delim byte) (*Message, error) {
	m, _, err := p.ParseNext(data, delim)
	return m, err
}

// ParseNext parses the first message in data and also returns the number of
// bytes it occupied, so consecutive messages can be parsed from one buffer.
// No message is returned on failure.
func (p *Parser) ParseNext(data []byte, delim byte) (*Message, int, error) {
	start := time.Now()
	d := decoder{env: p.env, data: data, delim: delim}
	m, err := d.run()
	if err != nil {
		p.metrics.parseFailed(err)
		p.logger.Debug("fix parse failed", "error", err, "code", CodeOf(err), "state", d.state.String())
		return nil, 0, err
	}
	p.metrics.parsed(m.Type(), time.Since(start))
	return m, d.end, nil
}
