package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubedeck/kubedeck-backend/internal/livefeed"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

func newWatchCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live update events from the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := feedURL()
			if err != nil {
				return err
			}

			done := make(chan error, 1)
			channel := livefeed.NewChannel(livefeed.Options{
				URL: wsURL,
				Notify: func(n livefeed.Notification) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Message)
					if n.Level == "error" {
						done <- fmt.Errorf("live feed: %s", n.Message)
					}
				},
			})
			defer channel.Dispose()

			cancel := channel.Subscribe(
				func(m models.LiveMessage) bool { return true },
				func(m models.LiveMessage) {
					if raw {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", m.Type, m.Data)
						return
					}
					printEvent(cmd, m)
				},
			)
			defer cancel()

			if err := channel.Connect(); err != nil {
				return err
			}

			select {
			case <-cmd.Context().Done():
				channel.Disconnect()
				return nil
			case err := <-done:
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print raw frames instead of formatted events")
	return cmd
}

func printEvent(cmd *cobra.Command, m models.LiveMessage) {
	switch m.Type {
	case models.MsgResourceUpdated:
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %v updated by %v\n",
			m.Timestamp.Format("15:04:05"), m.Data["resource"], m.Data["user"])
	case models.MsgAuditLog:
		fmt.Fprintf(cmd.OutOrStdout(), "%s  audit: %v %v by %v\n",
			m.Timestamp.Format("15:04:05"), m.Data["operation"], m.Data["resource"], m.Data["user"])
	case models.MsgBatchOperation:
		fmt.Fprintf(cmd.OutOrStdout(), "%s  batch %v by %v: %v succeeded, %v failed\n",
			m.Timestamp.Format("15:04:05"), m.Data["operation"], m.Data["user"], m.Data["success_count"], m.Data["failed_count"])
	case models.MsgCacheInvalidated:
		fmt.Fprintf(cmd.OutOrStdout(), "%s  cache invalidated (%v)\n",
			m.Timestamp.Format("15:04:05"), m.Data["scope"])
	}
}
