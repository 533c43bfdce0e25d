// Package models downloads and locates the NLU and wake-word model files a
// tray session runs on.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Coordinator struct {
	client *http.Client
	dir    string

	downloadedBytes metric.Int64Counter
}

type CoordinatorOption func(*Coordinator)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client *http.Client) CoordinatorOption {
	return func(c *Coordinator) {
		if client != nil {
			c.client = client
		}
	}
}

// NewCoordinator stores downloaded models in dir.
func NewCoordinator(dir string, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		dir:    dir,
	}
	for _, opt := range opts {
		opt(c)
	}

	counter, err := meter.Int64Counter(
		"models.downloaded_bytes",
		metric.WithDescription("Bytes of model data written to disk"),
		metric.WithUnit("By"),
	)
	if err != nil {
		logger.Warn("failed to create download counter", "error", err)
	}
	c.downloadedBytes = counter

	return c
}

// Resolve derives the local model paths for urls without fetching anything.
func (c *Coordinator) Resolve(urls URLs) (DownloadedModelSet, error) {
	if err := urls.Validate(); err != nil {
		return DownloadedModelSet{}, err
	}

	var set DownloadedModelSet
	for _, key := range Keys {
		p, err := destination(c.dir, urls[key])
		if err != nil {
			return DownloadedModelSet{}, err
		}
		set.set(key, p)
	}
	return set, nil
}

// DownloadAll fetches all six models concurrently. The first failure cancels
// the remaining downloads and is returned; no partial set is ever returned.
func (c *Coordinator) DownloadAll(ctx context.Context, urls URLs) (DownloadedModelSet, error) {
	ctx, span := tracer.Start(ctx, "download models")
	defer span.End()

	set, err := c.Resolve(urls)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid model urls")
		return DownloadedModelSet{}, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		err = fmt.Errorf("error creating model directory: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "model directory unavailable")
		return DownloadedModelSet{}, err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, key := range Keys {
		key, rawURL := key, urls[key]
		group.Go(func() error {
			p, _ := destination(c.dir, rawURL)
			return c.download(groupCtx, key, rawURL, p)
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model download failed")
		return DownloadedModelSet{}, err
	}

	return set, nil
}

func (c *Coordinator) download(ctx context.Context, key, rawURL, dest string) error {
	ctx, span := tracer.Start(ctx, "download model",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("model.key", key),
			attribute.String("request.url", rawURL),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrInvalidModelDownloadStatus, key, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrInvalidModelDownloadStatus, key, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %s: %s", ErrInvalidModelDownloadStatus, key, resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-OK HTTP status")
		return err
	}

	written, err := writeFile(dest, resp.Body)
	if err != nil {
		err = fmt.Errorf("error writing model %s: %w", key, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return err
	}

	if c.downloadedBytes != nil {
		c.downloadedBytes.Add(ctx, written, metric.WithAttributes(attribute.String("model.key", key)))
	}
	logger.Debug("model downloaded", "key", key, "path", dest, "bytes", written)
	return nil
}

// writeFile writes through a temporary file so a failed download never
// leaves a truncated model at dest.
func writeFile(dest string, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}
	return written, os.Rename(tmp.Name(), dest)
}
