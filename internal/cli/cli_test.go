package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadManifestYAMLAndJSONAgree(t *testing.T) {
	yamlPath := writeFile(t, "m.yaml", "spec:\n  replicas: 3\n  paused: false\n")
	jsonPath := writeFile(t, "m.json", `{"spec":{"replicas":3,"paused":false}}`)

	fromYAML, err := loadManifest(yamlPath)
	require.NoError(t, err)
	fromJSON, err := loadManifest(jsonPath)
	require.NoError(t, err)

	assert.True(t, document.DeepEqual(fromYAML, fromJSON))
	assert.Equal(t, int64(3), fromYAML["spec"].(map[string]any)["replicas"])
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "spec: [unclosed\n")
	_, err = loadManifest(bad)
	assert.Error(t, err)
}

func TestResolveRef(t *testing.T) {
	ref, err := resolveRef([]string{"Deployment", "default", "web"})
	require.NoError(t, err)
	assert.Equal(t, "deployment", ref.Type)
	assert.Equal(t, "web", ref.Name)

	_, err = resolveRef([]string{"pod", "default", "web"})
	assert.Error(t, err)
}

func TestFeedURL(t *testing.T) {
	oldServer, oldToken := serverURL, token
	defer func() { serverURL, token = oldServer, oldToken }()

	serverURL = "https://deck.example.com"
	token = "tok-1"
	u, err := feedURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://deck.example.com/ws?token=tok-1", u)

	serverURL = "http://localhost:8080"
	token = ""
	u, err = feedURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", u)

	serverURL = "ftp://x"
	_, err = feedURL()
	assert.Error(t, err)
}
