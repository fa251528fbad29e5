package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate <type> -f <file>",
		Short: "Validate a local manifest without touching the cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resourceType := strings.ToLower(args[0])
			doc, err := loadManifest(file)
			if err != nil {
				return err
			}
			issues, err := newGateway().ValidateConfig(cmd.Context(), resourceType, doc)
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", issue)
			}
			return fmt.Errorf("%d validation issue(s)", len(issues))
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file to validate (YAML or JSON)")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}
