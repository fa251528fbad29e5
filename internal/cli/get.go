package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

func newGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <type> <namespace> <name>",
		Short: "Fetch the live configuration of a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := resolveRef(args)
			if err != nil {
				return err
			}
			syntax := document.Syntax(output)
			if syntax != document.SyntaxYAML && syntax != document.SyntaxJSON {
				return fmt.Errorf("unsupported output format %q", output)
			}

			doc, err := newGateway().GetConfig(cmd.Context(), ref)
			if err != nil {
				return err
			}
			text, err := document.ToText(doc, syntax)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}
