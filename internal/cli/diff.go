package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubedeck/kubedeck-backend/internal/document/diff"
)

func printChanges(cmd *cobra.Command, changes []diff.Change) {
	for _, c := range changes {
		switch c.Kind {
		case diff.Added:
			fmt.Fprintf(cmd.OutOrStdout(), "+ %s = %v\n", c.FieldPath, c.After)
		case diff.Removed:
			fmt.Fprintf(cmd.OutOrStdout(), "- %s = %v\n", c.FieldPath, c.Before)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "~ %s: %v -> %v\n", c.FieldPath, c.Before, c.After)
		}
	}
}

func newDiffCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "diff <type> <namespace> <name> -f <file>",
		Short: "Show what applying a local manifest would change",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := resolveRef(args)
			if err != nil {
				return err
			}
			updated, err := loadManifest(file)
			if err != nil {
				return err
			}

			gw := newGateway()
			current, err := gw.GetConfig(cmd.Context(), ref)
			if err != nil {
				return err
			}
			changes, err := gw.ConfigDiff(cmd.Context(), current, updated)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			printChanges(cmd, changes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file to compare (YAML or JSON)")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}
