// Package cli provides the command-line interface for swatch.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatch/internal/config"
	"github.com/jmylchreest/swatch/internal/version"
)

// app is the state shared by all subcommands.
type app struct {
	cfg     config.Config
	verbose bool
	quiet   bool
	logger  hclog.Logger
}

// NewRootCmd builds the swatch command tree. cfg supplies the flag defaults.
func NewRootCmd(cfg config.Config) *cobra.Command {
	a := &app{cfg: cfg, logger: hclog.NewNullLogger()}

	root := &cobra.Command{
		Use:   "swatch",
		Short: "Extract colour palettes from images",
		Long: `swatch reduces an image to a short palette of representative colours,
ordered by how much of the image each colour covers.

Defaults can be set with SWATCH_* environment variables or a .env file in
the working directory. Command-line flags take precedence.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), logLevel(a.cfg.LogLevel, a.verbose, a.quiet))
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.SetVersionTemplate(version.String() + "\n")
	root.AddCommand(newVersionCmd())
	root.AddCommand(newExtractCmd(a))

	return root
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			data, err := json.MarshalIndent(version.GetInfo(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	return cmd
}
