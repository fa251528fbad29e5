package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/editor"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// loadManifest reads a local YAML or JSON manifest into a normalized
// document. YAML is converted through the JSON type system so the
// result is identical no matter which syntax the file used.
func loadManifest(path string) (document.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := sigsyaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return document.Normalize(m), nil
}

func newApplyCmd() *cobra.Command {
	var (
		file     string
		dryRun   bool
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "apply <type> <namespace> <name> -f <file>",
		Short: "Apply a local manifest to a resource through an editing session",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := resolveRef(args)
			if err != nil {
				return err
			}
			if strategy != string(models.StrategyMerge) && strategy != string(models.StrategyReplace) {
				return fmt.Errorf("unsupported strategy %q", strategy)
			}
			doc, err := loadManifest(file)
			if err != nil {
				return err
			}

			// Run the change through a session so it gets the same
			// validation and diff treatment as the web editor.
			session := editor.NewSession(ref, newGateway(), editor.Options{
				ValidateDebounce: -1, // no keystrokes to debounce
			})
			defer session.Close()

			if err := session.Open(cmd.Context()); err != nil {
				return fmt.Errorf("fetch current configuration: %w", err)
			}
			text, err := document.ToText(doc, document.SyntaxYAML)
			if err != nil {
				return err
			}
			session.Edit(text.Text)

			snap := session.Snapshot()
			if snap.SyntaxError != "" {
				return fmt.Errorf("manifest rejected: %s", snap.SyntaxError)
			}
			for _, issue := range snap.Issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", issue)
			}
			if !snap.HasChanges {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			printChanges(cmd, snap.Changes)

			result, err := session.Apply(cmd.Context(), dryRun, models.UpdateStrategy(strategy))
			if err != nil {
				return err
			}
			if !result.Success {
				for _, msg := range result.ValidationErrors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", msg)
				}
				return fmt.Errorf("apply failed: %s", result.Message)
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "dry run succeeded, nothing was changed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s (rollback key %s)\n", ref, result.RollbackKey)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file to apply (YAML or JSON)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate server-side without persisting")
	cmd.Flags().StringVar(&strategy, "strategy", string(models.StrategyMerge), "update strategy: merge or replace")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}
