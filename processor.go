package fix

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Processor provides high-level concurrent parsing of FIX messages.
// It parses raw byte slices or a framed stream into Messages using a bounded
// number of goroutines.
type Processor struct {
	parser       *Parser
	delim        byte
	concurrency  int // Max number of concurrent parses
	maxMessage   int
	errorHandler func(index int, err error) error
	logger       *slog.Logger
}

// NewProcessor creates a new Processor over parser with the given options.
func NewProcessor(parser *Parser, opts ...ProcessorOption) *Processor {
	p := &Processor{
		parser:      parser,
		delim:       SOH,
		concurrency: 4,
		maxMessage:  DefaultMaxMessageSize,
		logger:      parser.logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process parses a single raw message. The caller owns the returned message.
func (p *Processor) Process(data []byte) (*Message, error) {
	return p.parser.Parse(data, p.delim)
}

// handle reports a failed message. Without a handler the failure stops the
// processing.
func (p *Processor) handle(index int, err error) error {
	p.logger.Warn("fix message rejected", "index", index, "code", CodeOf(err), "error", err)
	if p.errorHandler == nil {
		return fmt.Errorf("message %d: %w", index, err)
	}
	return p.errorHandler(index, err)
}

// ProcessBatch parses a slice of raw messages concurrently. Results keep the
// input order; entries the error handler skipped are nil. On error every
// parsed message is freed and nil is returned.
func (p *Processor) ProcessBatch(ctx context.Context, batch [][]byte) ([]*Message, error) {
	results := make([]*Message, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, data := range batch {
		if gctx.Err() != nil {
			break
		}
		i, data := i, data
		g.Go(func() error {
			m, err := p.parser.Parse(data, p.delim)
			if err != nil {
				return p.handle(i, err)
			}
			results[i] = m
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for _, m := range results {
			if m != nil {
				m.Free()
			}
		}
		return nil, err
	}
	return results, nil
}

// ProcessStream reads messages framed by BeginString and BodyLength from r
// and sends the parsed messages to out. With a concurrency above one the
// output order may differ from the input order. out is not closed.
func (p *Processor) ProcessStream(ctx context.Context, r io.Reader, out chan<- *Message) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	scanner := NewScanner(r, p.delim, p.maxMessage)
	index := 0
	for gctx.Err() == nil && scanner.Scan() {
		// the scanner reuses its buffer
		data := append([]byte(nil), scanner.Bytes()...)
		i := index
		index++
		g.Go(func() error {
			m, err := p.parser.Parse(data, p.delim)
			if err != nil {
				return p.handle(i, err)
			}
			select {
			case out <- m:
				return nil
			case <-gctx.Done():
				m.Free()
				return gctx.Err()
			}
		})
	}
	scanErr := scanner.Err()
	if err := g.Wait(); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("read stream: %w", scanErr)
	}
	return ctx.Err()
}
