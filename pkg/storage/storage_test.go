package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/refinelab/refinery/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=refinerystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/refinerystore;"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewReturnsSystem(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "files",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys == nil {
		t.Fatal("New() returned nil system")
	}
}

func TestNewInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "files",
		ConnectionString: "not-a-connection-string",
	}

	_, err := storage.New(cfg, testLogger())
	if err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestKeyValidation(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "files",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()

	t.Run("empty key", func(t *testing.T) {
		err := sys.Upload(ctx, "", strings.NewReader("data"), "text/plain")
		if !errors.Is(err, storage.ErrEmptyKey) {
			t.Errorf("Upload(empty) = %v, want ErrEmptyKey", err)
		}
	})

	t.Run("path traversal key", func(t *testing.T) {
		err := sys.Delete(ctx, "uploads/../secrets")
		if !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Delete(traversal) = %v, want ErrInvalidKey", err)
		}
	})

	t.Run("traversal key on download", func(t *testing.T) {
		_, err := sys.Download(ctx, "../escape")
		if !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Download(traversal) = %v, want ErrInvalidKey", err)
		}
	})
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "ErrNotFound",
			err:     storage.ErrNotFound,
			wantMsg: "blob not found",
		},
		{
			name:    "ErrEmptyKey",
			err:     storage.ErrEmptyKey,
			wantMsg: "storage key must not be empty",
		},
		{
			name:    "ErrInvalidKey",
			err:     storage.ErrInvalidKey,
			wantMsg: "storage key contains invalid path segment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "ErrNotFound maps to 404",
			err:  storage.ErrNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "ErrEmptyKey maps to 400",
			err:  storage.ErrEmptyKey,
			want: http.StatusBadRequest,
		},
		{
			name: "ErrInvalidKey maps to 400",
			err:  storage.ErrInvalidKey,
			want: http.StatusBadRequest,
		},
		{
			name: "wrapped ErrNotFound maps to 404",
			err:  fmt.Errorf("operation failed: %w", storage.ErrNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "unknown error maps to 500",
			err:  fmt.Errorf("unexpected failure"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storage.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
