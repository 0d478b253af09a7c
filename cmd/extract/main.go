// Command extract runs product record extraction from the command line: over saved
// detail or search pages, over a live detail page, or over a single sales phrase.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/marketlens/backend/config"
	"github.com/marketlens/backend/internal/infrastructure/htmlnode"
	"github.com/marketlens/backend/internal/infrastructure/logging"
	"github.com/marketlens/backend/internal/infrastructure/marketplace"
	"github.com/marketlens/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the flags shared by every subcommand
type options struct {
	layout  string
	pageURL string
	file    string
	verbose bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "extract",
		Short: "Extract product records from marketplace pages",
		Long: `Extract assembles product records from marketplace markup.

Examples:
  # Extract a saved detail page
  extract detail --file page.html --layout primary

  # Extract every row of a saved search page
  extract listing --file results.html --layout secondary

  # Fetch and extract a live detail page
  extract fetch --url https://www.example.com/dp/B0TEST0001

  # Classify a sales phrase
  extract sales "Mais de 4 mil compras no mês passado"`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.layout, "layout", "l", "", "marketplace layout: primary or secondary (default from config)")
	root.PersistentFlags().StringVarP(&opts.pageURL, "url", "u", "", "page URL, used to resolve relative links")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log strategy failures to stderr")

	root.AddCommand(
		newDetailCmd(opts),
		newListingCmd(opts),
		newFetchCmd(opts),
		newSalesCmd(opts),
	)
	return root
}

func newDetailCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Extract the record of a saved detail page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _, err := buildServices(opts)
			if err != nil {
				return err
			}
			body, err := readInput(cmd, opts.file)
			if err != nil {
				return err
			}
			record, err := service.ExtractDetail(cmd.Context(), usecase.ExtractionRequest{
				Layout: opts.layout,
				URL:    opts.pageURL,
				Body:   body,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "HTML file to read, - for stdin")
	return cmd
}

func newListingCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Extract every row of a saved search results page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _, err := buildServices(opts)
			if err != nil {
				return err
			}
			body, err := readInput(cmd, opts.file)
			if err != nil {
				return err
			}
			records, err := service.ExtractListing(cmd.Context(), usecase.ExtractionRequest{
				Layout: opts.layout,
				URL:    opts.pageURL,
				Body:   body,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"items": records,
				"count": len(records),
			})
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "HTML file to read, - for stdin")
	return cmd
}

func newFetchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a live detail page and extract its record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.pageURL == "" {
				return fmt.Errorf("--url is required")
			}
			service, cfg, err := buildServices(opts)
			if err != nil {
				return err
			}
			client := marketplace.NewClient(marketplace.ClientConfig{
				UserAgent:      cfg.Fetch.UserAgent,
				AcceptLanguage: cfg.Fetch.AcceptLanguage,
				Timeout:        cfg.Fetch.Timeout,
				RatePerSecond:  cfg.Fetch.RatePerSecond,
				Burst:          cfg.Fetch.Burst,
			}, nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Fetch.Timeout)
			defer cancel()

			body, err := client.FetchPage(ctx, opts.pageURL)
			if err != nil {
				return err
			}
			record, err := service.ExtractDetail(ctx, usecase.ExtractionRequest{
				Layout: opts.layout,
				URL:    opts.pageURL,
				Body:   body,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newSalesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sales <text>",
		Short: "Classify a sales phrase and show the rules that decided it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, err := buildServices(opts)
			if err != nil {
				return err
			}
			signal, trace := service.ExplainSales(args[0])
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"signal": signal,
				"trace":  trace,
			})
		},
	}
}

// buildServices wires the extraction service from configuration
func buildServices(opts *options) (*usecase.ExtractionService, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger, err = logging.New(logging.Config{Level: "debug", Encoding: "console", Development: true})
		if err != nil {
			return nil, nil, err
		}
	}

	service := usecase.NewExtractionService(htmlnode.Parser{}, usecase.ExtractionServiceConfig{
		ApproximateUplift: cfg.Extraction.ApproximateUplift,
		MaxSalesUnits:     cfg.Extraction.MaxSalesUnits,
		DefaultLayout:     cfg.Extraction.DefaultLayout,
	}, logger)
	return service, cfg, nil
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return body, nil
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
