// Package cmd - enrich command
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sales-enrich/adapters/storage"
	"sales-enrich/core/catalog"
	"sales-enrich/core/engine"
	"sales-enrich/core/output"
	"sales-enrich/core/sales"
	"sales-enrich/core/ui"
	"sales-enrich/internal/config"
	"sales-enrich/internal/logging"
)

var (
	enrichInput   string
	enrichOutput  string
	enrichBackend string
	enrichBucket  string
	enrichObject  string
	enrichFormat  string
	enrichBaseURL string
	enrichLimit   int
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich sales transactions and write the report",
	Long: `Fetch the product catalog, join it against the sales transactions and
write the enriched report.

The input is a pipe-delimited text file with a header line, or a JSON array
of records when the file name ends in .json. gs://bucket/object inputs are
read from Cloud Storage.

Examples:
  sales-enrich enrich
  sales-enrich enrich --input sales.json --limit 100
  sales-enrich enrich --backend stdout --format json
  sales-enrich enrich --backend gcs --bucket reports --object daily/enriched.txt`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichInput, "input", "i", "", "sales data file (default "+config.DefaultInputPath+")")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "report path for the file backend (default "+config.DefaultOutputPath+")")
	enrichCmd.Flags().StringVar(&enrichBackend, "backend", "", "report backend (file, stdout, gcs)")
	enrichCmd.Flags().StringVar(&enrichBucket, "bucket", "", "GCS bucket for the gcs backend")
	enrichCmd.Flags().StringVar(&enrichObject, "object", "", "GCS object for the gcs backend")
	enrichCmd.Flags().StringVarP(&enrichFormat, "format", "f", "", "report format (pipe, json)")
	enrichCmd.Flags().StringVar(&enrichBaseURL, "base-url", "", "catalog endpoint")
	enrichCmd.Flags().IntVarP(&enrichLimit, "limit", "l", 0, "number of catalog products to fetch (0 = API default)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := enrichConfig(cmd)
	if err != nil {
		return err
	}

	// Status goes to stderr when the report itself is on stdout
	var status io.Writer = cmd.OutOrStdout()
	if cfg.Output.Backend == config.BackendStdout {
		status = cmd.ErrOrStderr()
	}
	w := ui.NewWriter(status, noColor)
	if verbose {
		w.SetVerbosity(2)
	}

	logging.Info("Starting enrichment")

	in, err := storage.OpenInput(ctx, cfg.Sales.InputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	txs, stats, err := sales.Load(in, cfg.Sales.InputPath)
	if err != nil {
		return err
	}
	w.Info("Loaded %d transactions from %s", stats.Rows, cfg.Sales.InputPath)
	if stats.Skipped > 0 {
		w.Warning("Skipped %d malformed rows", stats.Skipped)
	}

	sink, err := storage.SinkFactory(cfg.Output)
	if err != nil {
		return err
	}
	formatter, err := output.NewFormatter(output.Format(cfg.Output.Format))
	if err != nil {
		return err
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
		catalog.WithLogger(logging.Named("catalog")),
	)
	eng := engine.New(client, sink,
		engine.WithFormatter(formatter),
		engine.WithLogger(logging.Named("engine")),
	)

	res, err := eng.Run(ctx, engine.RunRequest{
		Transactions: txs,
		Limit:        cfg.Catalog.Limit,
	})
	if err != nil {
		return err
	}

	s := res.Summary
	summary := w.NewEnrichmentSummary()
	summary.RunID = s.RunID
	summary.Total = s.Total
	summary.Matched = s.Matched
	summary.Unmatched = s.Unmatched
	summary.MatchRate = s.MatchRate
	summary.Revenue = s.Revenue.StringFixed(2)
	summary.CatalogSize = s.CatalogSize
	summary.Location = s.Location
	summary.Duration = s.Duration
	summary.Render()

	w.Success("Enriched data saved to %s", s.Location)
	return nil
}

// enrichConfig overlays the command's flags on the loaded configuration
func enrichConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := *config.Get()
	flags := cmd.Flags()

	if flags.Changed("input") {
		cfg.Sales.InputPath = enrichInput
	}
	if flags.Changed("output") {
		cfg.Output.Path = enrichOutput
	}
	if flags.Changed("backend") {
		cfg.Output.Backend = enrichBackend
	}
	if flags.Changed("bucket") {
		cfg.Output.Bucket = enrichBucket
	}
	if flags.Changed("object") {
		cfg.Output.Object = enrichObject
	}
	if flags.Changed("format") {
		cfg.Output.Format = enrichFormat
	}
	if flags.Changed("base-url") {
		cfg.Catalog.BaseURL = enrichBaseURL
	}
	if flags.Changed("limit") {
		cfg.Catalog.Limit = enrichLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
