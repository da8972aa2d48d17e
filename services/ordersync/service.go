// Package ordersync ties the cache and the oberlo scraper together:
// it decides which date range is stale, scrapes it through an
// authenticated session, and persists the result as a cache file so
// repeated runs on the same day never touch the network.
package ordersync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ordersync-backend/lib/ordercache"
	"ordersync-backend/lib/orders"
	"ordersync-backend/lib/scrapers/oberlo"
	"ordersync-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/ordersync")

const DefaultPrefix = "Oberlo Orders"

type Options struct {
	BaseUrl    string
	CacheDir   string
	Prefix     string
	ProfileDir string
	Username   string
	Password   string
	// NewSession overrides how sessions are opened; tests inject fakes
	// through it. Nil uses the real browser session.
	NewSession func(ctx context.Context) (oberlo.Session, error)
}

type Service struct {
	opts Options
}

func NewService(opts Options) Service {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.CacheDir == "" {
		opts.CacheDir = "."
	}
	if opts.NewSession == nil {
		baseUrl := opts.BaseUrl
		profileDir := opts.ProfileDir
		opts.NewSession = func(ctx context.Context) (oberlo.Session, error) {
			return oberlo.NewSession(ctx, oberlo.SessionOptions{
				BaseUrl:    baseUrl,
				ProfileDir: profileDir,
			})
		}
	}
	return Service{opts: opts}
}

// GetLatestOrders returns every order row from the start of the stale
// window through today, reusing the newest cache file when it already
// covers today.
func (s Service) GetLatestOrders(ctx context.Context) ([]orders.Row, error) {
	ctx, span := tracer.Start(ctx, "service:GetLatestOrders")
	defer span.End()

	latest, ok, err := ordercache.FindLatest(ctx, s.opts.CacheDir, s.opts.Prefix)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scan cache directory")
		return nil, err
	}

	decision := ordercache.Resolve(latest, ok, timezone.Now())
	if decision.UseCache {
		slog.InfoContext(ctx, "latest cache file is from today", "path", decision.Path)
		return ordercache.Read(ctx, decision.Path)
	}

	slog.InfoContext(
		ctx, "finding orders",
		"from", decision.From.Format("2006-01-02"),
		"to", decision.To.Format("2006-01-02"),
	)
	return s.GetOrders(ctx, decision.From, decision.To, false)
}

// GetOrders fetches the rows for an exact date range. A cache file
// already covering that exact range short-circuits the scrape unless
// force is set. On any fetch failure no cache file is written.
func (s Service) GetOrders(ctx context.Context, from, to time.Time, force bool) ([]orders.Row, error) {
	ctx, span := tracer.Start(ctx, "service:GetOrders")
	defer span.End()

	path := filepath.Join(s.opts.CacheDir, ordercache.Filename(s.opts.Prefix, from, to))
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_file",
		Value: attribute.StringValue(path),
	})

	if !force {
		_, err := os.Stat(path)
		if err == nil {
			slog.InfoContext(ctx, "found cached file", "path", path)
			return ordercache.Read(ctx, path)
		}
	}

	session, err := s.opts.NewSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open session")
		return nil, err
	}

	client := oberlo.NewClient(oberlo.ClientOptions{
		BaseUrl: s.opts.BaseUrl,
		Session: session,
	})
	rows, err := client.FetchOrders(ctx, from, to, s.opts.Username, s.opts.Password)
	if err != nil {
		span.SetStatus(codes.Error, "scrape failed")
		return nil, err
	}

	err = ordercache.Write(ctx, path, rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cache file")
		return nil, err
	}

	slog.InfoContext(ctx, "wrote cache file", "path", path, "rows", len(rows))
	return rows, nil
}
