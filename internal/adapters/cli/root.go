// Package cli implements the tia command line client. Commands call the pipeline
// in-process rather than through the HTTP API.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tariff-assistant/internal/core/domain"
	"github.com/kirillkom/tariff-assistant/internal/core/ports"
)

// Services are the use cases the commands need.
type Services struct {
	Analyzer  ports.ProductAnalyzer
	Codes     ports.CodeInspector
	Countries func() []domain.Country
}

// Opener builds Services on first use; the returned func releases them.
type Opener func(ctx context.Context) (Services, func(), error)

type rootOptions struct {
	jsonOutput bool
}

type servicesKey struct{}

// Execute runs the command line in args and releases the services afterwards.
func Execute(ctx context.Context, open Opener, args []string, stdout, stderr io.Writer) error {
	var release func()
	defer func() {
		if release != nil {
			release()
		}
	}()

	root := newRootCmd(func(ctx context.Context) (Services, error) {
		svc, closeFn, err := open(ctx)
		release = closeFn
		return svc, err
	})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(open func(context.Context) (Services, error)) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "tia",
		Short:         "Tariff intelligence assistant",
		Long:          "Classify products into HTS codes, inspect duty rates and compare duty-minimization strategies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), servicesKey{}, svc))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print raw JSON instead of text")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newLookupCmd(opts),
		newStrategiesCmd(opts),
		newDocumentCmd(opts),
		newCountriesCmd(opts),
	)
	return root
}

func servicesFrom(cmd *cobra.Command) (Services, error) {
	svc, ok := cmd.Context().Value(servicesKey{}).(Services)
	if !ok {
		return Services{}, errors.New("services are not initialized")
	}
	return svc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
