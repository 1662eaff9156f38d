package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memberrelay/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Region:           "ap-southeast-2",
		Env:              "dev",
		TolerantEnvs:     []string{"dev"},
		StoreBackend:     config.BackendPostgres,
		DatabaseURL:      "postgres://relay@localhost:5432/relay?sslmode=disable",
		MemberTable:      "members",
		ContractTable:    "contracts",
		SuspensionTable:  "suspensions",
		ProspectTable:    "prospects",
		WebhookRate:      5,
		WebhookBurst:     1,
		BatchConcurrency: 2,
	}
}

func TestNew(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	relay, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer relay.Close()

	require.NotNil(t, relay.Handler)
	assert.NotNil(t, relay.db)
}

func TestRouter(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	relay, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer relay.Close()

	server := httptest.NewServer(Router(relay.Handler))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// An empty batch touches neither the store nor the webhooks.
	resp, err = http.Post(server.URL+"/events", "application/json", strings.NewReader(`{"Records":[]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
