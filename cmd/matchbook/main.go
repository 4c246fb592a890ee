// matchbook replays an order feed CSV through the matching engine and
// writes every outcome record to a result CSV, then reports throughput
// and the final state of each order book.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/enzomontariol/matchbook/pkg/feed"
	"github.com/enzomontariol/matchbook/pkg/lob"
	"github.com/enzomontariol/matchbook/pkg/log"
	"github.com/enzomontariol/matchbook/pkg/metrics"
)

type Config struct {
	Input   string
	Output  string
	Verbose bool

	MetricsAddr string

	LogLevel string
	LogFile  string
}

func parseFlags() *Config {
	cfg := &Config{}
	flag.StringVar(&cfg.Input, "input", "", "order feed CSV to replay (required)")
	flag.StringVar(&cfg.Output, "output", "", "result CSV to write (required)")
	flag.BoolVar(&cfg.Verbose, "v", false, "echo every order and result to stdout")
	flag.StringVar(&cfg.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "also log to this file, rotated")
	flag.Parse()

	if cfg.Input == "" || cfg.Output == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -input <orders.csv> -output <results.csv>\n", os.Args[0])
		os.Exit(2)
	}
	return cfg
}

func main() {
	cfg := parseFlags()

	logger, err := log.New(log.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *Config, logger *zap.Logger) error {
	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New("matchbook")
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("opening order feed: %w", err)
	}
	defer in.Close()

	reader := feed.NewReader(in, logger)
	orders, err := reader.ReadAll()
	if err != nil {
		return err
	}
	logger.Info("loaded order feed",
		zap.String("file", cfg.Input),
		zap.Int("orders", len(orders)),
		zap.Int("skipped", reader.Skipped()))

	out, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	defer out.Close()

	writer := feed.NewResultWriter(out)
	if err := writer.WriteHeader(); err != nil {
		return err
	}

	engine := lob.NewEngine()
	instruments := make([]string, 0, 8)
	seen := make(map[string]bool)

	started := time.Now()
	for _, order := range orders {
		if !seen[order.Instrument] {
			seen[order.Instrument] = true
			instruments = append(instruments, order.Instrument)
		}
		if cfg.Verbose {
			printOrder(order)
		}

		callStart := time.Now()
		results := engine.ProcessOrder(order)
		elapsed := time.Since(callStart)

		if m != nil {
			var qty int64
			for _, r := range results[1:] {
				qty += r.ExecutedQuantity
			}
			m.RecordOrder(results[0].Status == lob.Rejected, len(results)-1, qty, elapsed)
		}
		for _, res := range results {
			if err := writer.Write(res); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			if cfg.Verbose {
				printResult(res)
			}
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}

	took := time.Since(started)
	logger.Info("feed replayed",
		zap.Int("orders", len(orders)),
		zap.Duration("took", took),
		zap.Float64("orders_per_sec", float64(len(orders))/took.Seconds()),
		zap.String("results", cfg.Output))

	reportBooks(engine, instruments, m)
	return nil
}

func printOrder(o lob.Order) {
	fmt.Printf("Order #%d - %s %d %s @ %s [%s] %s\n",
		o.ID, o.Side, o.Quantity, o.Instrument, o.Price.StringFixed(2), o.Action, o.Kind)
}

func printResult(r lob.OrderResult) {
	fmt.Printf("Result for order #%d: %s", r.ID, r.Status)
	if r.ExecutedQuantity > 0 {
		fmt.Printf(" - executed %d @ %s (counterparty %d)",
			r.ExecutedQuantity, r.ExecutionPrice.StringFixed(2), r.CounterpartyID)
	}
	fmt.Println()
}

// reportBooks prints the final depth of every touched book, best
// price first on each side.
func reportBooks(engine *lob.Engine, instruments []string, m *metrics.Metrics) {
	fmt.Println("\nFinal order book status:")
	for _, instrument := range instruments {
		book, ok := engine.Book(instrument)
		if !ok {
			continue
		}
		fmt.Printf("\n== %s ==\n", instrument)
		printSide("BUY", book.BuySide())
		printSide("SELL", book.SellSide())

		if m != nil {
			m.SetBookDepth(instrument, "BUY", countOrders(book.BuySide()))
			m.SetBookDepth(instrument, "SELL", countOrders(book.SellSide()))
		}
	}
}

func printSide(name string, levels []lob.Level) {
	fmt.Printf("%s side:\n", name)
	if len(levels) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, lvl := range levels {
		fmt.Printf("  Price %s: %d orders\n", lvl.Price.StringFixed(2), len(lvl.Orders))
	}
}

func countOrders(levels []lob.Level) int {
	n := 0
	for _, lvl := range levels {
		n += len(lvl.Orders)
	}
	return n
}
