// matchbook-gen writes a synthetic order feed CSV for load runs and
// benchmarks. Output is deterministic for a fixed seed.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

type Config struct {
	Out         string
	Orders      int
	Instruments int
	Seed        uint64

	// Event mix; whatever is left over becomes NEW limit orders.
	MarketRatio float64
	ModifyRatio float64
	CancelRatio float64
}

func parseFlags() *Config {
	cfg := &Config{}
	flag.StringVar(&cfg.Out, "out", "orders.csv", "output file")
	flag.IntVar(&cfg.Orders, "n", 100000, "number of order events")
	flag.IntVar(&cfg.Instruments, "instruments", 4, "number of distinct instruments")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "PRNG seed")
	flag.Float64Var(&cfg.MarketRatio, "market", 0.10, "fraction of NEW orders that are MARKET")
	flag.Float64Var(&cfg.ModifyRatio, "modify", 0.05, "fraction of events that are MODIFY")
	flag.Float64Var(&cfg.CancelRatio, "cancel", 0.10, "fraction of events that are CANCEL")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	faker := gofakeit.New(int64(cfg.Seed))

	instruments := make([]string, cfg.Instruments)
	for i := range instruments {
		instruments[i] = fmt.Sprintf("%s%d", strings.ToUpper(faker.LetterN(3)), i)
	}

	out, err := os.Create(cfg.Out)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{
		"timestamp", "order_id", "instrument", "side", "type",
		"quantity", "price", "action",
	}); err != nil {
		return err
	}

	// Ids eligible for MODIFY/CANCEL, per instrument. Cancelled ids
	// are not retired from the pool on purpose: duplicate cancels
	// exercise the rejection path downstream.
	placed := make(map[string][]int64)

	timestamp := uint64(1609459200000)
	nextID := int64(0)

	for i := 0; i < cfg.Orders; i++ {
		timestamp += uint64(faker.Number(1, 50))
		instrument := instruments[faker.Number(0, len(instruments)-1)]

		side := "BUY"
		if faker.Bool() {
			side = "SELL"
		}
		quantity := int64(faker.Number(1, 500))
		price := faker.Price(90, 110)

		pool := placed[instrument]
		var record []string
		switch {
		case len(pool) > 0 && faker.Float64Range(0, 1) < cfg.CancelRatio:
			id := pool[faker.Number(0, len(pool)-1)]
			record = row(timestamp, id, instrument, side, "LIMIT", quantity, price, "CANCEL")
		case len(pool) > 0 && faker.Float64Range(0, 1) < cfg.ModifyRatio:
			id := pool[faker.Number(0, len(pool)-1)]
			record = row(timestamp, id, instrument, side, "LIMIT", quantity, price, "MODIFY")
		case faker.Float64Range(0, 1) < cfg.MarketRatio:
			nextID++
			record = row(timestamp, nextID, instrument, side, "MARKET", quantity, 0, "NEW")
		default:
			nextID++
			placed[instrument] = append(pool, nextID)
			record = row(timestamp, nextID, instrument, side, "LIMIT", quantity, price, "NEW")
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	fmt.Printf("wrote %d order events to %s\n", cfg.Orders, cfg.Out)
	return nil
}

func row(ts uint64, id int64, instrument, side, kind string, qty int64, price float64, action string) []string {
	return []string{
		strconv.FormatUint(ts, 10),
		strconv.FormatInt(id, 10),
		instrument,
		side,
		kind,
		strconv.FormatInt(qty, 10),
		strconv.FormatFloat(price, 'f', 2, 64),
		action,
	}
}
