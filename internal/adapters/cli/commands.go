package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/format"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var origin, destination string

	cmd := &cobra.Command{
		Use:     "analyze <product description>",
		Short:   "Rank candidate HTS codes for a product",
		Example: `  tia analyze --origin CN "plastic retainer clips for car bumpers"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := servicesFrom(cmd)
			if err != nil {
				return err
			}
			result, err := svc.Analyzer.AnalyzeProduct(cmd.Context(), joinArgs(args), origin, destination)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			format.WriteAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "ISO-2 country of origin (required)")
	cmd.Flags().StringVar(&destination, "destination", "US", "ISO-2 destination country")
	_ = cmd.MarkFlagRequired("origin")
	return cmd
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Show the tariff record for an HTS code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := servicesFrom(cmd)
			if err != nil {
				return err
			}
			rec, err := svc.Codes.CodeDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			format.WriteDocument(cmd.OutOrStdout(), &domain.TariffDocument{Record: *rec})
			if rec.IsFallback {
				fmt.Fprintln(cmd.OutOrStdout(), "Tariff lookup unavailable; rates are placeholders.")
			}
			return nil
		},
	}
}

func newStrategiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies <code>",
		Short: "Estimate duty-minimization strategies for an HTS code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := servicesFrom(cmd)
			if err != nil {
				return err
			}
			report, err := svc.Codes.Strategies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			format.WriteStrategies(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newDocumentCmd(opts *rootOptions) *cobra.Command {
	var analysisID, description, origin, destination string

	cmd := &cobra.Command{
		Use:   "document <code>",
		Short: "Build the tariff document for a selected code",
		Long:  "Build the tariff document for a code, either from a stored analysis (--analysis-id) or for an ad-hoc product (--description and --origin).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := servicesFrom(cmd)
			if err != nil {
				return err
			}

			var doc *domain.TariffDocument
			switch {
			case analysisID != "":
				doc, err = svc.Analyzer.TariffDocumentForAnalysis(cmd.Context(), analysisID, args[0])
			case description != "" && origin != "":
				doc, err = svc.Analyzer.TariffDocument(cmd.Context(), description, args[0], origin, destination)
			default:
				return errors.New("either --analysis-id or both --description and --origin are required")
			}
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			format.WriteDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&analysisID, "analysis-id", "", "Stored analysis to take the product and trade lane from")
	cmd.Flags().StringVar(&description, "description", "", "Product description")
	cmd.Flags().StringVar(&origin, "origin", "", "ISO-2 country of origin")
	cmd.Flags().StringVar(&destination, "destination", "US", "ISO-2 destination country")
	cmd.MarkFlagsMutuallyExclusive("analysis-id", "description")
	return cmd
}

func newCountriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := servicesFrom(cmd)
			if err != nil {
				return err
			}
			var countries []domain.Country
			if svc.Countries != nil {
				countries = svc.Countries()
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), countries)
			}
			for _, c := range countries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.Code, c.Name)
			}
			return nil
		},
	}
}
