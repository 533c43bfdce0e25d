package models

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

func testURLs(baseURL string) URLs {
	return URLs{
		KeyNLUModel:       baseURL + "/nlu/nlu.tflite",
		KeyNLUMetadata:    baseURL + "/nlu/metadata.json",
		KeyNLUVocabulary:  baseURL + "/nlu/vocab.txt",
		KeyWakewordFilter: baseURL + "/wake/filter.tflite",
		KeyWakewordEncode: baseURL + "/wake/encode.tflite",
		KeyWakewordDetect: baseURL + "/wake/detect.tflite",
	}
}

func TestDownloadAllWritesEveryModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("model:" + r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	coordinator := NewCoordinator(dir, WithHTTPClient(server.Client()))

	set, err := coordinator.DownloadAll(context.Background(), testURLs(server.URL))
	if err != nil {
		t.Fatalf("expected download to succeed, got %v", err)
	}

	if set.NLUMetadata != filepath.Join(dir, "metadata.json") {
		t.Fatalf("unexpected metadata path %q", set.NLUMetadata)
	}
	if set.WakewordDetect != filepath.Join(dir, "detect.tflite") {
		t.Fatalf("unexpected detect path %q", set.WakewordDetect)
	}
	if missing := set.Missing(); len(missing) != 0 {
		t.Fatalf("expected all models on disk, missing %v", missing)
	}

	content, err := os.ReadFile(set.NLUVocabulary)
	if err != nil {
		t.Fatalf("failed to read vocabulary: %v", err)
	}
	if string(content) != "model:/nlu/vocab.txt" {
		t.Fatalf("unexpected vocabulary content %q", content)
	}
}

func TestDownloadAllRejectsNonOKStatus(t *testing.T) {
	testCases := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "no content", status: http.StatusNoContent},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "encode.tflite") {
					w.WriteHeader(testCase.status)
					return
				}
				_, _ = w.Write([]byte("ok"))
			}))
			defer server.Close()

			coordinator := NewCoordinator(t.TempDir(), WithHTTPClient(server.Client()))
			set, err := coordinator.DownloadAll(context.Background(), testURLs(server.URL))
			if !errors.Is(err, ErrInvalidModelDownloadStatus) {
				t.Fatalf("expected invalid status error, got %v", err)
			}
			if set != (DownloadedModelSet{}) {
				t.Fatalf("expected no partial result, got %+v", set)
			}
		})
	}
}

func TestDownloadAllFailsFastAndCancelsSiblings(t *testing.T) {
	var cancelled atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "nlu.tflite") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		select {
		case <-r.Context().Done():
			cancelled.Add(1)
		case <-time.After(5 * time.Second):
			_, _ = w.Write([]byte("late"))
		}
	}))
	defer server.Close()

	coordinator := NewCoordinator(t.TempDir(), WithHTTPClient(server.Client()))

	started := time.Now()
	_, err := coordinator.DownloadAll(context.Background(), testURLs(server.URL))
	if !errors.Is(err, ErrInvalidModelDownloadStatus) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("expected fail-fast, took %s", elapsed)
	}
}

func TestDownloadAllTransportFailureIsInvalidStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	coordinator := NewCoordinator(t.TempDir())
	_, err := coordinator.DownloadAll(context.Background(), testURLs(baseURL))
	if !errors.Is(err, ErrInvalidModelDownloadStatus) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestDownloadAllRequiresEveryURL(t *testing.T) {
	urls := testURLs("https://example.invalid")
	delete(urls, KeyNLUVocabulary)

	_, err := NewCoordinator(t.TempDir()).DownloadAll(context.Background(), urls)
	if !errors.Is(err, ErrMissingModelURL) {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestResolveMatchesDownloadLocations(t *testing.T) {
	dir := t.TempDir()
	set, err := NewCoordinator(dir).Resolve(testURLs("https://example.invalid"))
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}

	if set.NLUModel != filepath.Join(dir, "nlu.tflite") || set.WakewordFilter != filepath.Join(dir, "filter.tflite") {
		t.Fatalf("unexpected set %+v", set)
	}
	if got := len(set.Missing()); got != 6 {
		t.Fatalf("expected 6 missing files before download, got %d", got)
	}
}

func TestDefaultWakewordURLsMergeWithNLU(t *testing.T) {
	urls := DefaultWakewordURLs().Merge(URLs{
		KeyNLUModel:      "https://example.com/nlu.tflite",
		KeyNLUMetadata:   "https://example.com/metadata.json",
		KeyNLUVocabulary: "https://example.com/vocab.txt",
	})

	if err := urls.Validate(); err != nil {
		t.Fatalf("expected merged urls to validate, got %v", err)
	}
	if !strings.HasSuffix(urls[KeyWakewordDetect], "/detect.tflite") {
		t.Fatalf("unexpected detect url %q", urls[KeyWakewordDetect])
	}
}
