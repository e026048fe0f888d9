package fix

import "log/slog"

// ParserOption represents a functional option for parser configuration
type ParserOption func(*Parser)

// WithLimits sets the page and group limits
func WithLimits(limits Limits) ParserOption {
	return func(p *Parser) {
		p.limits = limits
	}
}

// WithLogger sets the logger used for parser diagnostics
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records parse and serialization counters on m
func WithMetrics(m *Metrics) ParserOption {
	return func(p *Parser) {
		p.metrics = m
	}
}

// WithFieldRule adds a value rule for one tag. It runs when CheckValue is set.
func WithFieldRule(tag int, rule ValidationRule) ParserOption {
	return func(p *Parser) {
		p.rules = append(p.rules, fieldRule{tag: tag, rule: rule})
	}
}

// WithGlobalRule adds a value rule for every field
func WithGlobalRule(rule ValidationRule) ParserOption {
	return func(p *Parser) {
		p.rules = append(p.rules, fieldRule{rule: rule})
	}
}

// ProcessorOption defines a function signature for configuring a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency sets the maximum number of concurrent parses.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDelimiter sets the field delimiter of the input. SOH by default.
func WithDelimiter(delim byte) ProcessorOption {
	return func(p *Processor) {
		p.delim = delim
	}
}

// WithMaxMessageSize bounds the size of one framed message in a stream.
func WithMaxMessageSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxMessage = n
		}
	}
}

// WithErrorHandler sets a callback for messages that fail to parse. Returning
// a non-nil error stops the processing with that error.
func WithErrorHandler(handler func(index int, err error) error) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}
