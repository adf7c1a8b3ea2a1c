// Package cmd - catalog inspection commands
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sales-enrich/core/catalog"
	"sales-enrich/core/output"
	"sales-enrich/core/ui"
	"sales-enrich/internal/config"
	"sales-enrich/internal/errors"
	"sales-enrich/internal/logging"
)

var (
	catalogLimit   int
	catalogJSON    bool
	catalogBaseURL string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the product catalog",
	Long: `Query the product catalog the enrichment runs against.

Examples:
  sales-enrich catalog list --limit 10
  sales-enrich catalog get 7
  sales-enrich catalog search "phone case" --json`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalogClient(cmd)
		var (
			p   catalog.Payload
			err error
		)
		if catalogLimit > 0 {
			p, err = client.GetWithLimit(cmd.Context(), catalogLimit)
		} else {
			p, err = client.GetAll(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printProducts(cmd, p)
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Input(fmt.Sprintf("invalid product id %q", args[0]), err)
		}

		p, err := catalogClient(cmd).GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if catalogJSON {
			return printRaw(cmd, p)
		}

		prod, err := p.Product()
		if err != nil {
			return err
		}
		return printProducts(cmd, catalog.Payload{Kind: catalog.PayloadList, Products: []catalog.Product{prod}})
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search catalog products",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := catalogClient(cmd).Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printProducts(cmd, p)
	},
}

func init() {
	catalogCmd.PersistentFlags().BoolVar(&catalogJSON, "json", false, "print the raw JSON response")
	catalogCmd.PersistentFlags().StringVar(&catalogBaseURL, "base-url", "", "catalog endpoint")
	catalogListCmd.Flags().IntVarP(&catalogLimit, "limit", "l", 0, "number of products to fetch (0 = API default)")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogGetCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
}

func catalogClient(cmd *cobra.Command) *catalog.Client {
	cfg := config.Get()
	baseURL := cfg.Catalog.BaseURL
	if cmd.Flags().Changed("base-url") {
		baseURL = catalogBaseURL
	}
	return catalog.NewClient(baseURL,
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
		catalog.WithLogger(logging.Named("catalog")),
	)
}

func printProducts(cmd *cobra.Command, p catalog.Payload) error {
	if catalogJSON {
		return printRaw(cmd, p)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), noColor)
	table := w.NewTable("ID", "Title", "Category", "Brand", "Rating")
	for _, prod := range p.Products {
		id := ""
		if prod.ID != nil {
			id = strconv.Itoa(*prod.ID)
		}
		rating := prod.Rating
		table.AddRow(id, prod.Title, prod.Category, prod.Brand, output.FormatRating(&rating))
	}
	table.Render()

	if p.Kind == catalog.PayloadEnvelope && p.Total > 0 {
		w.Info("Showing %d of %d products", len(p.Products), p.Total)
	}
	return nil
}

func printRaw(cmd *cobra.Command, p catalog.Payload) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
