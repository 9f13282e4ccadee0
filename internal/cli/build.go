package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	serlivre "github.com/Space-Wizard-Studios/ser-livre-psicologia"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/logx"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/sitedef"
)

var verifyDeterminism bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble and publish the static bundle",
	Long: `build loads the site definition, transcodes image variants, packages
typefaces, composes the entry document, and atomically replaces the output
directory. A machine-readable report is written to stdout; a non-zero exit
means nothing was published and the previous bundle is untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, ok := runBuild(cmd.Context())
		if err := report.Write(os.Stdout); err != nil {
			return err
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

// runBuild executes one full build and folds the outcome into a report.
func runBuild(ctx context.Context) (serlivre.Report, bool) {
	def, err := sitedef.Load(settings.Site)
	if err != nil {
		logx.L().Error("site definition rejected", "site", settings.Site, "err", err)
		return serlivre.FailureReport(err), false
	}

	opts := []serlivre.Option{serlivre.WithWorkers(settings.Workers)}
	if verifyDeterminism {
		opts = append(opts, serlivre.WithVerify())
	}

	result, err := serlivre.Build(ctx, def, opts...)
	if err != nil {
		logx.L().Error("build failed", "err", err)
		return serlivre.FailureReport(err), false
	}
	return serlivre.SuccessReport(result), true
}

func init() {
	buildCmd.Flags().BoolVar(&verifyDeterminism, "verify", false, "assemble twice and fail on diverging output")
	rootCmd.AddCommand(buildCmd)
}
