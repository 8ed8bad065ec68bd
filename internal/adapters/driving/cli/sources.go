package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List supported source types",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	svc, err := requireDiagnostics()
	if err != nil {
		return err
	}
	st := newStyles(cmd.OutOrStdout())

	for _, ct := range svc.SourceTypes() {
		cmd.Printf("%s %s\n", st.Title.Render(ct.ID), st.Muted.Render("("+ct.Name+")"))
		if ct.Description != "" {
			cmd.Printf("  %s\n", ct.Description)
		}
		cmd.Printf("  %s %s\n", st.Key.Render("auth:"), ct.AuthMethod)

		var required, optional []string
		for _, k := range ct.ConfigKeys {
			if k.Required {
				required = append(required, k.Key)
			} else {
				optional = append(optional, k.Key)
			}
		}
		if len(required) > 0 {
			cmd.Printf("  %s %s\n", st.Key.Render("required:"), strings.Join(required, ", "))
		}
		if len(optional) > 0 {
			cmd.Printf("  %s %s\n", st.Key.Render("optional:"), strings.Join(optional, ", "))
		}
	}
	return nil
}
