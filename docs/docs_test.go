package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	assert.Equal(t, "Freight Backend API", parsed.Info.Title)
	assert.Equal(t, "1.0", parsed.Info.Version)
	assert.Equal(t, "/api/v1", parsed.BasePath)

	routes := map[string]string{
		"/finance/applications":                 "post",
		"/finance/applications/{number}/cancel": "post",
		"/finance/costs/settle":                 "post",
		"/finance/costs/cancel-settlement":      "post",
		"/finance/reconciliation/run":           "post",
		"/shipments/{id}":                       "delete",
		"/shipments/{id}/attachments":           "post",
		"/customers":                            "post",
		"/suppliers/{id}":                       "get",
	}
	for path, method := range routes {
		require.Contains(t, parsed.Paths, path)
		assert.Contains(t, parsed.Paths[path], method, path)
	}
}
