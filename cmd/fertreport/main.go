package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fertpulse/internal/config"
	"fertpulse/internal/dataset"
	"fertpulse/internal/exporter"
	"fertpulse/internal/files"
	"fertpulse/internal/infrastructure"
	"fertpulse/internal/services"
	"fertpulse/pkg/contracts"
)

const formatBoth = "both"

// options are the command line flags.
type options struct {
	Data      string
	Out       string
	Year      string
	Month     string
	State     string
	Sort      string
	Direction string
	Format    string
	Version   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("fertreport", flag.ContinueOnError)
	fs.StringVar(&opts.Data, "data", "", "dataset file, directory or URL (defaults to the configured source)")
	fs.StringVar(&opts.Out, "out", "", "output directory (defaults to data/reports relative to executable)")
	fs.StringVar(&opts.Year, "year", "", "only include this year")
	fs.StringVar(&opts.Month, "month", "", "only include this month, e.g. April")
	fs.StringVar(&opts.State, "state", "", "only include this state")
	fs.StringVar(&opts.Sort, "sort", "", "product table sort column (product, requirement, availability, net_balance)")
	fs.StringVar(&opts.Direction, "direction", "", "sort direction: ascending or descending")
	fs.StringVar(&opts.Format, "format", formatBoth, "output format: csv, xlsx or both")
	fs.BoolVar(&opts.Version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// formats expands the -format flag.
func formats(value string) ([]exporter.Format, error) {
	if strings.EqualFold(strings.TrimSpace(value), formatBoth) {
		return []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX}, nil
	}
	f, err := exporter.ParseFormat(value)
	if err != nil {
		return nil, err
	}
	return []exporter.Format{f}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	paths, err := cfg.ResolvePaths()
	if err != nil {
		logger.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	// Flag paths are relative to the working directory, configured ones to
	// the executable.
	if opts.Data == "" {
		opts.Data = paths.Resolve(cfg.Data.Source)
	}
	if opts.Out == "" {
		opts.Out = paths.ReportsDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &reporter{
		paths:        paths,
		fetchTimeout: cfg.Data.FetchTimeout,
		dashboard:    cfg.Dashboard,
		logger:       logger,
		stdout:       os.Stdout,
	}
	if err := r.run(ctx, opts); err != nil {
		logger.Error("Report failed", "error", err)
		os.Exit(1)
	}
}

// reporter loads the dataset once and writes the product and record tables.
type reporter struct {
	paths        *config.Paths
	fetchTimeout time.Duration
	dashboard    config.DashboardConfig
	logger       *slog.Logger
	stdout       io.Writer
}

// run loads the dataset and writes the requested formats. It stops at the
// first unreadable input or unwritable output.
func (r *reporter) run(ctx context.Context, opts options) error {
	start := time.Now()

	outFormats, err := formats(opts.Format)
	if err != nil {
		return err
	}

	source, err := files.NewDiscovery("").ResolveSource(opts.Data)
	if err != nil {
		return fmt.Errorf("failed to resolve dataset: %w", err)
	}

	r.logger.Info("Loading dataset", "source", source)
	records, err := dataset.Read(ctx, files.NewOpener(r.fetchTimeout, r.logger), source)
	if err != nil {
		return err
	}
	quality := dataset.Inspect(records)
	quality.Log(ctx, r.logger)

	service := services.NewDashboardService(dataset.NewStaticStore(records), nil, nil, r.dashboard, nil, r.logger)

	kpis, err := service.KPIs(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("Dataset KPIs",
		"records", kpis.RecordCount,
		"total_requirement", kpis.TotalRequirement,
		"total_availability", kpis.TotalAvailability,
		"net_balance", kpis.NetBalance,
		"fulfillment_rate", kpis.FulfillmentRate,
		"status", kpis.Status)

	p := message.NewPrinter(language.English)
	p.Fprintf(r.stdout, "Records: %d\nRequirement: %.2f MT\nAvailability: %.2f MT\nNet balance: %.2f MT (%s)\n",
		kpis.RecordCount, kpis.TotalRequirement, kpis.TotalAvailability, kpis.NetBalance, kpis.Status)

	q := services.TableQuery{
		Year:      opts.Year,
		Month:     opts.Month,
		State:     opts.State,
		Sort:      opts.Sort,
		Direction: opts.Direction,
	}
	products, err := service.ProductTable(ctx, q)
	if err != nil {
		return err
	}

	// The record table takes its own sort keys; only filters carry over
	q.Sort, q.Direction = "", ""
	recordRows, err := service.RecordTable(ctx, q)
	if err != nil {
		return err
	}

	tables := []exporter.Table{
		exporter.ProductTable(products.Rows, products.Totals),
		exporter.RecordTable(recordRows.Records),
	}

	written, err := r.write(opts.Out, outFormats, tables)
	if err != nil {
		return err
	}

	r.logger.Info("Report complete",
		"files", written,
		"products", len(products.Rows),
		"records", len(recordRows.Records),
		"duration", time.Since(start))
	for _, path := range written {
		fmt.Fprintln(r.stdout, path)
	}
	return nil
}

// write produces one CSV per table and one workbook holding every table.
func (r *reporter) write(outDir string, outFormats []exporter.Format, tables []exporter.Table) ([]string, error) {
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}
	if err := files.EnsureDirectory(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range outFormats {
		switch format {
		case exporter.FormatCSV:
			w := exporter.NewCSVWriter(r.paths, r.logger)
			for _, t := range tables {
				name := format.Filename("fertilizer-" + strings.ToLower(t.Name))
				path, err := w.WriteFile(filepath.Join(outDir, name), t, exporter.WriteOptions{BOMPrefix: true})
				if err != nil {
					return written, fmt.Errorf("failed to write %s: %w", name, err)
				}
				written = append(written, path)
			}
		case exporter.FormatXLSX:
			w := exporter.NewXLSXWriter(r.paths, r.logger)
			name := format.Filename("fertilizer")
			path, err := w.WriteFile(filepath.Join(outDir, name), tables...)
			if err != nil {
				return written, fmt.Errorf("failed to write %s: %w", name, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}
