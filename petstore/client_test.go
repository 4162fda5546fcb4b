package petstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/goliatone/go-lifecycle"
)

func TestFindByStatusDecodesPets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pet/findByStatus", r.URL.Path)
		require.Equal(t, "available", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":7,"name":"Rex","status":"available","price":250}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	pets, err := client.FindByStatus(context.Background(), "available")
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, int64(7), pets[0].ID)
	assert.Equal(t, "Rex", pets[0].Name)
	assert.Equal(t, 250.0, pets[0].Price)
}

func TestFindByStatusNon200IsExternalCallError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FindByStatus(context.Background(), "available")
	require.Error(t, err)
	assert.Equal(t, lifecycle.ErrCodeExternalCall, lifecycle.ErrorCode(err))
}

func TestInventoryDecodesCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/store/inventory", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available":12,"pending":3,"sold":40}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	counts, err := client.Inventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, counts["available"])
	assert.Equal(t, 40, counts["sold"])
}

func TestInventoryConnectionFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Inventory(context.Background())
	require.Error(t, err)
	assert.Equal(t, lifecycle.ErrCodeExternalCall, lifecycle.ErrorCode(err))
}
