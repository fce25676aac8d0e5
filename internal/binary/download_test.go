package binary

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDownloaderDownloadToFile(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{
			name:       "successful_download",
			statusCode: http.StatusOK,
			body:       "test archive content",
			wantErr:    false,
		},
		{
			name:       "404_not_found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
		},
		{
			name:       "500_server_error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}

				w.WriteHeader(tt.statusCode)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("failed to write response: %v", err)
				}
			}))
			defer server.Close()

			downloader := NewDownloader()
			downloader.retries = 1
			downloader.backoff = time.Millisecond

			destPath := filepath.Join(t.TempDir(), "test-file")
			err := downloader.DownloadToFile(context.Background(), server.URL, destPath)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				if _, statErr := os.Stat(destPath + ".tmp"); !os.IsNotExist(statErr) {
					t.Error("temp file should be cleaned up")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(destPath)
			if err != nil {
				t.Fatalf("failed to read downloaded file: %v", err)
			}

			if string(content) != tt.body {
				t.Errorf("content mismatch:\ngot:  %q\nwant: %q", string(content), tt.body)
			}
		})
	}
}

func TestDownloaderRetryLogic(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	downloader := NewDownloader()
	downloader.backoff = time.Millisecond

	destPath := filepath.Join(t.TempDir(), "test-file")
	if err := downloader.DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDownloaderRetriesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	downloader := NewDownloader()
	downloader.retries = 2
	downloader.backoff = time.Millisecond

	err := downloader.DownloadToFile(context.Background(), server.URL, filepath.Join(t.TempDir(), "f"))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "after 2 retries") {
		t.Errorf("error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDownloader().DownloadToFile(ctx, server.URL, filepath.Join(t.TempDir(), "f"))
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDownloaderFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/butler/linux-amd64-head/LATEST/.zip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/butler/linux-amd64-head/v15.21.0/.zip", http.StatusFound)
	})
	mux.HandleFunc("/butler/linux-amd64-head/v15.21.0/.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "butler.zip")
	err := NewDownloader().DownloadToFile(context.Background(), server.URL+"/butler/linux-amd64-head/LATEST/.zip", destPath)
	if err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}
	content, _ := os.ReadFile(destPath)
	if string(content) != "zip bytes" {
		t.Errorf("content = %q", content)
	}
}

func TestDownloaderProgress(t *testing.T) {
	body := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	var progress bytes.Buffer
	destPath := filepath.Join(t.TempDir(), "butler.zip")
	if err := NewDownloader().WithProgress(&progress).DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("DownloadToFile() error = %v", err)
	}

	content, _ := os.ReadFile(destPath)
	if len(content) != len(body) {
		t.Errorf("downloaded %d bytes, want %d", len(content), len(body))
	}
	if progress.Len() == 0 {
		t.Error("expected progress output")
	}
}
