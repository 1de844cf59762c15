package client_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// TestEndToEnd runs against a live blockgen-d with a configured model.
func TestEndToEnd(t *testing.T) {
	if os.Getenv("E2E") != "true" {
		t.Skip("Skipping e2e test")
	}

	endpoint := os.Getenv("BLOCKGEN_ENDPOINT")
	if endpoint == "" {
		endpoint = client.DefaultEndpoint
	}

	c := client.NewClient(endpoint)

	// Poll Ping until success
	var err error
	for i := 0; i < 30; i++ {
		_, err = c.Ping(context.Background())
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatal("Failed to ping server after 30 seconds")
	}

	tmpl, err := c.Template(context.Background())
	require.NoError(t, err)
	assert.Equal(t, diagram.DefaultTemplate(), tmpl)

	d, err := c.Generate(context.Background(), "Bluetooth speaker with RGB lighting effects")
	require.NoError(t, err)
	assert.Len(t, d.Blocks, diagram.BlockCount)
	for _, f := range diagram.Lint(d) {
		t.Logf("lint: %s", f.Message)
	}

	// Check Web UI is serving
	resp, err := http.Get(endpoint + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
