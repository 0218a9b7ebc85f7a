package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchWritesDestination(t *testing.T) {
	t.Parallel()

	payload := []byte("model-weights")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "nested", "model.bin")
	err := Fetch(context.Background(), Options{
		URL:         server.URL,
		Destination: destination,
		NoProgress:  true,
		Retries:     1,
	})
	require.NoError(t, err)

	onDisk, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)

	_, err = os.Stat(destination + ".part")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "artifact")
	err := Fetch(context.Background(), Options{
		URL:         server.URL,
		Destination: destination,
		NoProgress:  true,
		Retries:     3,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, attempts.Load())
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "artifact")
	err := Fetch(context.Background(), Options{
		URL:         server.URL,
		Destination: destination,
		NoProgress:  true,
		Retries:     2,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")

	_, err = os.Stat(destination)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchValidatesOptions(t *testing.T) {
	t.Parallel()

	require.Error(t, Fetch(context.Background(), Options{Destination: "x"}))
	require.Error(t, Fetch(context.Background(), Options{URL: "http://example.com"}))
}
