// Package cli implements the kubedeckctl command tree: a terminal
// client for the dashboard API, covering config fetch, edit/apply,
// diff, validation and the live update feed.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubedeck/kubedeck-backend/internal/gateway"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

var (
	serverURL string
	token     string
)

// NewRootCmd builds the kubedeckctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kubedeckctl",
		Short:         "Terminal client for the kubedeck dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("KUBEDECK_SERVER", "http://localhost:8080"), "dashboard API base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("KUBEDECK_TOKEN"), "bearer token (defaults to $KUBEDECK_TOKEN)")

	root.AddCommand(newGetCmd())
	root.AddCommand(newApplyCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newWatchCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newGateway() *gateway.Client {
	return gateway.NewClient(serverURL, gateway.WithToken(token))
}

// resolveRef turns positional args <type> <namespace> <name> into a
// validated resource reference.
func resolveRef(args []string) (models.ResourceRef, error) {
	ref := models.ResourceRef{
		Type:      strings.ToLower(args[0]),
		Namespace: args[1],
		Name:      args[2],
	}
	if !models.SupportedResourceTypes[ref.Type] {
		return models.ResourceRef{}, fmt.Errorf("unsupported resource type %q", ref.Type)
	}
	return ref, nil
}

// feedURL derives the websocket live feed URL from the API base URL.
func feedURL() (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
