package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <source-type>",
	Short: "Check that a source is configured and reachable",
	Long: `Resolves configuration and credentials for the source type, builds the
connector and makes one lightweight authenticated call.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc, err := requireDiagnostics()
	if err != nil {
		return err
	}
	st := newStyles(cmd.OutOrStdout())
	sourceType := args[0]

	err = svc.CheckConnection(cmd.Context(), sourceType)
	if err == nil {
		cmd.Printf("%s %s is ready\n", st.Success.Render("✓"), sourceType)
		return nil
	}

	cmd.Printf("%s %s: %s\n", st.Error.Render("✗"), sourceType, prerequisite(err))
	cmd.Printf("  %s\n", st.Muted.Render(err.Error()))
	return fmt.Errorf("check %s failed", sourceType)
}

// prerequisite names the missing piece behind a check failure.
func prerequisite(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		return "unknown source type"
	case errors.Is(err, domain.ErrMissingConfig):
		return "configuration incomplete"
	case errors.Is(err, domain.ErrAuthRequired):
		return "credentials missing"
	case errors.Is(err, domain.ErrAuthInvalid):
		return "credentials rejected"
	case errors.Is(err, domain.ErrConnectorValidation):
		return "validation failed"
	default:
		return "source unreachable"
	}
}
