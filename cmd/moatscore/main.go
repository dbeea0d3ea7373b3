// Command moatscore is the interactive console for the company scoring
// engine. It scores companies through the configured oracle, shows stored
// records with totals and percentiles, and ranks the portfolio either by
// stored totals or by live pairwise comparison.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-moat/infrastructure/llm"
	"github.com/ahrav/go-moat/infrastructure/middleware"
	"github.com/ahrav/go-moat/internal/application"
	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/identity"
	"github.com/ahrav/go-moat/internal/scorebook"
)

func main() {
	configPath := flag.String("config", "moatscore.yaml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("moatscore: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	apiKey, err := cfg.Oracle.APIKey()
	if err != nil {
		return err
	}

	core, err := llm.NewCore(cfg.Oracle.Provider, llm.ClientConfig{
		APIKey:  apiKey,
		Model:   cfg.Oracle.Model,
		BaseURL: cfg.Oracle.BaseURL,
		Middleware: []llm.Middleware{
			llm.RateLimitMiddleware(rate.Limit(cfg.Oracle.RateLimit), cfg.Oracle.Burst),
			llm.CircuitBreakerMiddleware(5, 30*time.Second),
			llm.RetryMiddleware(cfg.Oracle.Retry.MaxAttempts, cfg.Oracle.Retry.InitialWait(), cfg.Oracle.Retry.MaxWait()),
			llm.TimeoutMiddleware(cfg.Oracle.Timeout()),
			llm.MetricsMiddleware(middleware.NewPrometheusMetrics()),
			llm.TracingMiddleware(),
		},
	})
	if err != nil {
		return err
	}

	registry := domain.DefaultRegistry()
	oracle := llm.NewOracle(core, registry)

	book, err := scorebook.Open(cfg.Paths.Scores)
	if err != nil {
		log.Printf("warning: %v (starting with an empty score book)", err)
	}

	overrides, err := identity.OpenOverrideTable(cfg.Paths.Overrides)
	if err != nil {
		return err
	}
	resolver := identity.NewResolver(identity.NewFileSource(cfg.Paths.Reference), overrides, nil)

	engine := application.NewEngine(registry, resolver, book, oracle)
	ranker := application.NewRanker(oracle)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := &console{
		engine:    engine,
		ranker:    ranker,
		book:      book,
		resolver:  resolver,
		overrides: overrides,
	}
	return console.loop(ctx)
}

type console struct {
	engine    *application.Engine
	ranker    *application.Ranker
	book      *scorebook.Book
	resolver  *identity.Resolver
	overrides *identity.OverrideTable
}

const usage = `Commands:
  score <company>     score a company, asking the oracle only for missing metrics
  view <company>      show a stored record with its total and percentile
  rank [metric]       rank stored companies by total score or by one metric
  sort                rank stored companies by live pairwise oracle comparison
  fill                acquire missing metrics for every stored company
  delete <company>    remove a stored record
  migrate             fold legacy keys and re-key name records to tickers
  define <tkr> <name> add a curated ticker definition
  undefine <tkr>      remove a curated ticker definition
  defs                list curated ticker definitions
  help                show this help
  quit                exit`

func (c *console) loop(ctx context.Context) error {
	fmt.Println("moatscore - company moat scoring console")
	fmt.Println(usage)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg := splitCommand(line)
		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "help":
			fmt.Println(usage)
		case "score":
			c.score(ctx, arg)
		case "view":
			c.view(arg)
		case "rank", "list":
			c.rank(arg)
		case "sort":
			c.sortByOracle(ctx)
		case "fill":
			c.fill(ctx)
		case "delete":
			c.delete(arg)
		case "migrate":
			c.migrate()
		case "define":
			c.define(arg)
		case "undefine":
			c.undefine(arg)
		case "defs":
			c.listDefs()
		default:
			fmt.Printf("unknown command %q; try 'help'\n", cmd)
		}
	}
}

func splitCommand(line string) (cmd, arg string) {
	parts := strings.SplitN(line, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func (c *console) score(ctx context.Context, raw string) {
	if raw == "" {
		fmt.Println("usage: score <company>")
		return
	}

	id, rec, err := c.engine.EnsureScored(ctx, raw)
	if errors.Is(err, domain.ErrUnresolvedIdentity) {
		fmt.Printf("could not resolve %q to a known company\n", raw)
		for _, s := range c.resolver.Suggest(raw, 3) {
			fmt.Printf("  did you mean %s (%s)?\n", s.Ticker, s.Name)
		}
		return
	}
	if err != nil {
		fmt.Printf("scored %s with errors: %v\n", id, err)
	}
	c.printRecord(id, rec)
}

func (c *console) view(raw string) {
	if raw == "" {
		fmt.Println("usage: view <company>")
		return
	}

	id, rec, ok := c.engine.Lookup(raw)
	if !ok {
		fmt.Printf("no record for %q\n", raw)
		return
	}
	c.printRecord(id, rec)
}

func (c *console) printRecord(id domain.Identity, rec domain.MetricRecord) {
	reg := c.engine.Registry()

	fmt.Printf("\n%s\n", id)
	for _, def := range reg.Metrics() {
		value := rec[def.Key]
		if value == "" {
			value = "-"
		}
		direction := ""
		if def.Reverse {
			direction = " (lower is better)"
		}
		fmt.Printf("  %-24s %s%s\n", def.DisplayName, value, direction)
	}

	res := c.engine.Summarize(rec)
	fmt.Printf("  %-24s %.0f / %.0f (%d%%)\n", "Total", res.Total, reg.MaxPossible(),
		domain.FormatPercentage(res.Total, reg.MaxPossible()))
	if !res.Complete {
		fmt.Println("  (incomplete record: total understates the company)")
	}
	if res.HasPercentile {
		fmt.Printf("  %-24s %d\n", "Percentile", res.Percentile)
	}
	fmt.Println()
}

type scoredRow struct {
	key      string
	label    string
	total    float64
	complete bool
}

// rank prints stored companies ordered by total score, or by a single
// metric when one is named. Reverse metrics rank lowest first so the best
// company always tops the list.
func (c *console) rank(metric string) {
	reg := c.engine.Registry()

	var def domain.MetricDefinition
	if metric != "" {
		var err error
		if def, err = reg.Lookup(metric); err != nil {
			fmt.Printf("unknown metric %q; known keys:\n", metric)
			for _, d := range reg.Metrics() {
				fmt.Printf("  %s\n", d.Key)
			}
			return
		}
	}

	var rows []scoredRow
	for _, key := range c.book.Keys() {
		rec, ok := c.book.Get(key)
		if !ok {
			continue
		}

		row := scoredRow{key: key, label: c.labelFor(key), complete: rec.Complete(reg)}
		if metric == "" {
			row.total, _ = domain.TotalScore(reg, rec)
		} else {
			if !rec.Present(def.Key) {
				continue
			}
			row.total, _ = rec.Float(def.Key)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		fmt.Println("no companies scored yet")
		return
	}

	best := func(i, j int) bool { return rows[i].total > rows[j].total }
	if def.Reverse {
		best = func(i, j int) bool { return rows[i].total < rows[j].total }
	}
	sort.SliceStable(rows, best)

	fmt.Println()
	for i, row := range rows {
		marker := ""
		if !row.complete {
			marker = " *"
		}
		fmt.Printf("  %2d. %-32s %6.0f%s\n", i+1, row.label, row.total, marker)
	}
	fmt.Println("  (* incomplete record)")
	fmt.Println()
}

func (c *console) labelFor(key string) string {
	if id, err := c.resolver.Resolve(key); err == nil {
		return id.String()
	}
	return key
}

func (c *console) sortByOracle(ctx context.Context) {
	var entities []domain.Identity
	for _, key := range c.book.Keys() {
		id, err := c.resolver.Resolve(key)
		if err != nil {
			fmt.Printf("  skipping %q: not resolvable to a ticker\n", key)
			continue
		}
		entities = append(entities, id)
	}
	if len(entities) < 2 {
		fmt.Println("need at least two resolvable companies to sort")
		return
	}

	fmt.Printf("comparing %d companies pairwise...\n", len(entities))
	sorted, calls, err := c.ranker.Rank(ctx, entities)
	if err != nil {
		fmt.Printf("sort aborted: %v\n", err)
		return
	}

	fmt.Println()
	for i, id := range sorted {
		fmt.Printf("  %2d. %s\n", i+1, id)
	}
	fmt.Printf("  (%d oracle comparisons)\n\n", calls)
}

func (c *console) fill(ctx context.Context) {
	filled, err := c.engine.Fill(ctx)
	if err != nil {
		fmt.Printf("fill finished with errors: %v\n", err)
	}
	fmt.Printf("filled %d missing values\n", filled)
}

func (c *console) delete(raw string) {
	if raw == "" {
		fmt.Println("usage: delete <company>")
		return
	}

	removed, err := c.engine.Delete(raw)
	if err != nil {
		fmt.Printf("delete failed: %v\n", err)
		return
	}
	if !removed {
		fmt.Printf("no record for %q\n", raw)
		return
	}
	fmt.Printf("deleted %q\n", raw)
}

func (c *console) migrate() {
	normalized := c.book.NormalizeKeys(c.resolver)
	migrated := c.book.MigrateToTickers(c.resolver)

	if !normalized.Changed() && !migrated.Changed() {
		fmt.Println("nothing to migrate")
		return
	}

	for old, folded := range normalized.Renamed {
		fmt.Printf("  %q -> %q\n", old, folded)
	}
	for old, ticker := range migrated.Renamed {
		fmt.Printf("  %q -> %s\n", old, ticker)
	}
	for _, dropped := range append(normalized.Dropped, migrated.Dropped...) {
		fmt.Printf("  dropped stale record %q\n", dropped)
	}

	if err := c.book.Save(); err != nil {
		fmt.Printf("saving migrated book failed: %v\n", err)
	}
}

func (c *console) define(arg string) {
	parts := strings.SplitN(arg, " ", 2)
	if len(parts) < 2 {
		fmt.Println("usage: define <ticker> <company name>")
		return
	}

	if err := c.overrides.Add(parts[0], parts[1]); err != nil {
		fmt.Printf("define failed: %v\n", err)
		return
	}
	c.resolver.Invalidate()
	fmt.Printf("defined %s = %s\n", strings.ToUpper(parts[0]), strings.TrimSpace(parts[1]))
}

func (c *console) undefine(arg string) {
	if arg == "" {
		fmt.Println("usage: undefine <ticker>")
		return
	}

	removed, err := c.overrides.Remove(arg)
	if err != nil {
		fmt.Printf("undefine failed: %v\n", err)
		return
	}
	if !removed {
		fmt.Printf("no definition for %q\n", arg)
		return
	}
	c.resolver.Invalidate()
	fmt.Printf("removed definition for %s\n", strings.ToUpper(arg))
}

func (c *console) listDefs() {
	defs := c.overrides.List()
	if len(defs) == 0 {
		fmt.Println("no curated definitions")
		return
	}
	for _, e := range defs {
		fmt.Printf("  %-8s %s\n", e.Ticker, e.Name)
	}
}
