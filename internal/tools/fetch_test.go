package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := baseRetryDelay
	baseRetryDelay = time.Millisecond
	t.Cleanup(func() { baseRetryDelay = old })
}

func TestFetchFile(t *testing.T) {
	content := strings.Repeat("payload-", 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "tool")
	var finalDone, finalTotal int64
	err := fetchFile(context.Background(), testClient(t), server.URL, dest, func(done, total int64) {
		finalDone, finalTotal = done, total
	})
	if err != nil {
		t.Fatalf("fetchFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("content mismatch, got %d bytes want %d", len(data), len(content))
	}
	if finalDone != int64(len(content)) || finalTotal != int64(len(content)) {
		t.Errorf("final progress = %d/%d, want %d/%d", finalDone, finalTotal, len(content), len(content))
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Error("staging file still present after success")
	}
}

func TestFetchFileRetries(t *testing.T) {
	fastRetries(t)
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("eventually"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "tool")
	if err := fetchFile(context.Background(), testClient(t), server.URL, dest, nil); err != nil {
		t.Fatalf("fetchFile: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "eventually" {
		t.Errorf("content = %q", data)
	}
}

func TestFetchFileExhaustsRetries(t *testing.T) {
	fastRetries(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "tool")
	err := fetchFile(context.Background(), testClient(t), server.URL, dest, nil)
	if err == nil {
		t.Fatal("fetchFile succeeded against a failing server")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %v, want mention of exhausted attempts", err)
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("staging file left behind after final failure")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file created despite failure")
	}
}

func TestFetchFileResumeRejectsErrorStatus(t *testing.T) {
	fastRetries(t)
	var sawRange atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			sawRange.Store(true)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>500 internal server error</html>"))
	}))
	defer server.Close()

	// partial data from an earlier interrupted attempt
	dest := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(dest+".part", []byte("partial-data"), 0644); err != nil {
		t.Fatal(err)
	}
	err := fetchFile(context.Background(), testClient(t), server.URL, dest, nil)
	if err == nil {
		t.Fatal("fetchFile succeeded on an error response to a resume request")
	}
	if !sawRange.Load() {
		t.Fatal("resume request carried no Range header")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		data, _ := os.ReadFile(dest)
		t.Errorf("destination created from an error body: %q", data)
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("staging file left behind after final failure")
	}
}

func TestFetchFileRestartsWhenResumeUnsupported(t *testing.T) {
	content := "full-payload-from-scratch"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ignore the Range header and send the whole body with 200
		w.Write([]byte(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(dest+".part", []byte("stale-partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fetchFile(context.Background(), testClient(t), server.URL, dest, nil); err != nil {
		t.Fatalf("fetchFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want full restart payload", data)
	}
}

func TestFetchFileCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(strings.Repeat("x", 1024)))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	dest := filepath.Join(t.TempDir(), "tool")
	err := fetchFile(ctx, testClient(t), server.URL, dest, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("staging file left behind after cancellation")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file created despite cancellation")
	}
}
