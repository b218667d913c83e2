package main

import (
	"fmt"
	"io"
	"os"

	httpDelivery "github.com/itembuilder/backend/internal/delivery/http"
	"github.com/itembuilder/backend/internal/domain"
	"github.com/itembuilder/backend/internal/infrastructure/metrics"
	"github.com/itembuilder/backend/internal/infrastructure/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type enrichOptions struct {
	upcsPath       string
	categoriesPath string
	supplierPath   string
	outPath        string
	noProgress     bool
}

func enrichCmd() *cobra.Command {
	var opts enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Generate the item table for a list of UPCs",
		Long: `Generate the item table for a list of UPCs.

Reads a UPC list (column "UPC"), a category mapping table (columns
"Category", "Sub-Cat 1", "Sub-Cat 2", "Sub-Cat 3") and an optional supplier
table, and writes one output row per input UPC in input order.`,
		Example: `  itembuilder enrich --upcs upcs.csv --categories categories.csv --supplier supplier.csv
  itembuilder enrich --upcs upcs.csv --categories categories.csv --out - > items.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.upcsPath, "upcs", "", "CSV file with a UPC column (required)")
	cmd.Flags().StringVar(&opts.categoriesPath, "categories", "", "category mapping CSV (required)")
	cmd.Flags().StringVar(&opts.supplierPath, "supplier", "", "supplier fallback CSV")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", httpDelivery.ItemsFilename, `output CSV path ("-" for stdout)`)
	cmd.Flags().Int("workers", 1, "concurrent UPC lookups")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")

	_ = cmd.MarkFlagRequired("upcs")
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}

func runEnrich(cmd *cobra.Command, opts enrichOptions) error {
	ctx := cmd.Context()

	input, err := readInputTables(opts)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.NewRegistry())
	service, closeService, err := buildEnrichmentService(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer closeService()

	var bar *progressbar.ProgressBar
	if !opts.noProgress && len(input.UPCs) > 0 {
		bar = progressbar.NewOptions(len(input.UPCs),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Enriching UPCs"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
	}

	result, err := service.Run(ctx, input, func(done, _ int) {
		if bar != nil {
			_ = bar.Set(done)
		}
	})
	if err != nil {
		return err
	}

	if err := writeItems(cmd.OutOrStdout(), opts.outPath, result.Rows); err != nil {
		return err
	}

	s := result.Stats
	fmt.Fprintf(cmd.ErrOrStderr(),
		"Item generation complete: %d rows (%d looked up, %d from supplier, %d unresolved, %d uncategorized, %d classifier overrides)\n",
		s.Rows, s.LookupHits, s.SupplierFallbacks, s.Unresolved, s.Uncategorized, s.ClassifierOverrides)
	if opts.outPath != "-" {
		log.Info("item table written", zap.String("run_id", result.RunID), zap.String("path", opts.outPath))
	}
	return nil
}

// readInputTables loads the UPC list, mapping table and optional supplier table
func readInputTables(opts enrichOptions) (domain.EnrichmentInput, error) {
	var input domain.EnrichmentInput

	if err := readFile(opts.upcsPath, func(r io.Reader) (err error) {
		input.UPCs, err = table.ReadUPCs(r)
		return err
	}); err != nil {
		return input, err
	}

	if err := readFile(opts.categoriesPath, func(r io.Reader) (err error) {
		input.Mapping, err = table.ReadCategoryMapping(r)
		return err
	}); err != nil {
		return input, err
	}

	if opts.supplierPath != "" {
		if err := readFile(opts.supplierPath, func(r io.Reader) (err error) {
			input.Supplier, err = table.ReadSupplierTable(r)
			return err
		}); err != nil {
			return input, err
		}
	}

	return input, nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// writeItems writes rows to path, or to stdout when path is "-"
func writeItems(stdout io.Writer, path string, rows []domain.OutputRow) error {
	if path == "-" {
		return table.WriteItems(stdout, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := table.WriteItems(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
