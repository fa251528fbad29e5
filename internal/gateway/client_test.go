package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

func testRef() models.ResourceRef {
	return models.ResourceRef{Type: "deployment", Namespace: "default", Name: "web"}
}

func TestGetConfig(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/deployment/default/web/config", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resource_type": "deployment",
			"configuration": map[string]any{"spec": map[string]any{"replicas": 3}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/api", WithToken("tok"))
	doc, err := c.GetConfig(context.Background(), testRef())
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc["spec"].(map[string]any)["replicas"])
}

func TestPutConfigSendsBody(t *testing.T) {
	var got putConfigBody
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(models.ApplyResult{Success: true, RollbackKey: "rb-1"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/api")
	doc := document.Document{"spec": map[string]any{"replicas": int64(5)}}
	result, err := c.PutConfig(context.Background(), testRef(), doc, true, models.StrategyMerge)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "rb-1", result.RollbackKey)
	assert.True(t, got.DryRun)
	assert.Equal(t, models.StrategyMerge, got.Strategy)
	assert.True(t, document.DeepEqual(doc, got.Configuration))
}

func TestValidateConfig(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/validate-config", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": false,
			"validation_errors": []map[string]any{
				{"field": "spec.replicas", "message": "replicas must be a non-negative integer"},
			},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/api")
	issues, err := c.ValidateConfig(context.Background(), "deployment", document.Document{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "spec.replicas", issues[0].Field)
}

func TestConfigDiff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/config-diff", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"diff": []map[string]any{
				{"field_path": "spec.replicas", "change_type": "modified", "old_value": 3, "new_value": 5},
			},
			"has_changes": true,
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/api")
	changes, err := c.ConfigDiff(context.Background(), document.Document{}, document.Document{})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "spec.replicas", changes[0].FieldPath)
}

func TestErrorKindMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusConflict, KindConflict},
		{http.StatusUnprocessableEntity, KindValidationRejected},
		{http.StatusBadRequest, KindValidationRejected},
		{http.StatusInternalServerError, KindUnknown},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"code":"X","message":"nope"}}`))
		}))
		c := NewClient(ts.URL + "/api")
		_, err := c.GetConfig(context.Background(), testRef())
		ts.Close()

		var ge *Error
		require.True(t, errors.As(err, &ge), "status %d", tc.status)
		assert.Equal(t, tc.kind, ge.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, ge.StatusCode)
		assert.Equal(t, "nope", ge.Message)
		assert.Equal(t, tc.kind, KindOf(err))
	}
}

func TestNetworkErrorIsUnknownKind(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api")
	_, err := c.GetConfig(context.Background(), testRef())
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
}
