// Command fixconv reads FIX messages from files or stdin, parses them with the
// configured checks and writes them back with another delimiter.
//
//	fixconv --in-delim pipe --out-delim soh orders.fix > orders.bin
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/mkadit/fix"
	"github.com/mkadit/fix/internal/config"
	"github.com/mkadit/fix/internal/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fixconv:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, inputs, err := config.Load(config.NewFlagSet("fixconv"), args)
	if err != nil {
		return err
	}
	log, flush := logger.New(cfg.Production)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return convert(ctx, cfg, log, inputs, stdin, stdout)
}

func loadDictionary(path string) (*fix.Dictionary, error) {
	if path == "" {
		return fix.FIX44()
	}
	return fix.LoadDictionaryFile(path)
}

func convert(ctx context.Context, cfg *config.Config, log *slog.Logger, inputs []string, stdin io.Reader, stdout io.Writer) error {
	dict, err := loadDictionary(cfg.Dictionary)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	flags, _ := cfg.Flags()
	inDelim, _ := config.ParseDelimiter(cfg.InputDelimiter)
	outDelim, _ := config.ParseDelimiter(cfg.OutputDelimiter)

	reg := prometheus.NewRegistry()
	parser, err := fix.NewParser(dict, flags,
		fix.WithLimits(cfg.Limits),
		fix.WithLogger(log),
		fix.WithMetrics(fix.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}
	defer parser.Free()

	proc := fix.NewProcessor(parser,
		fix.WithDelimiter(inDelim),
		fix.WithConcurrency(cfg.Concurrency),
		fix.WithMaxMessageSize(cfg.MaxMessageSize),
		fix.WithErrorHandler(func(int, error) error { return nil }),
	)

	readers := []io.Reader{stdin}
	if len(inputs) > 0 {
		readers = readers[:0]
		for _, name := range inputs {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			readers = append(readers, f)
		}
	}

	w := bufio.NewWriter(stdout)
	out := make(chan *fix.Message, cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(out)
		return proc.ProcessStream(gctx, io.MultiReader(readers...), out)
	})
	g.Go(func() error {
		for m := range out {
			b, err := m.Bytes(outDelim)
			m.Free()
			if err != nil {
				log.Warn("fix message not serialized", "code", fix.CodeOf(err), "error", err)
				continue
			}
			b = append(b, '\n')
			if _, err := w.Write(b); err != nil {
				return err
			}
		}
		return nil
	})
	err = g.Wait()
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	logSummary(log, reg)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// logSummary logs the totals of the parser counters.
func logSummary(log *slog.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		return
	}
	attrs := make([]any, 0, 2*len(families))
	for _, mf := range families {
		var total float64
		counter := false
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
				counter = true
			}
		}
		if counter {
			attrs = append(attrs, mf.GetName(), total)
		}
	}
	log.Info("fixconv finished", attrs...)
}
