// Package ordercache persists scraped order rows as date-range-named
// csv files and decides which date range still needs fetching.
package ordercache

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"ordersync-backend/lib/orders"
	"ordersync-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/ordercache")

const fileDateLayout = "2006-01-02"

// CacheFile is a previously written cache file, identified by the date
// range encoded in its name.
type CacheFile struct {
	From time.Time
	To   time.Time
	Path string
}

// Filename renders the canonical cache file name for a date range,
// e.g. "Oberlo Orders 2023-01-01-2023-12-31.csv".
func Filename(prefix string, from, to time.Time) string {
	return fmt.Sprintf(
		"%s %s-%s.csv",
		prefix,
		from.Format(fileDateLayout),
		to.Format(fileDateLayout),
	)
}

var rangeSuffix = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})-(\d{4}-\d{2}-\d{2})\.csv$`)

// List returns every cache file in dir carrying the prefix, in lexical
// filename order. Filenames that carry the prefix but not a parsable
// date-range suffix are skipped.
func List(ctx context.Context, dir, prefix string) ([]CacheFile, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cache directory")
		return nil, err
	}

	pattern := regexp.MustCompile(
		"^" + regexp.QuoteMeta(prefix) + " " + rangeSuffix.String(),
	)

	var files []CacheFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		groups := pattern.FindStringSubmatch(entry.Name())
		if groups == nil {
			continue
		}
		from, err := time.ParseInLocation(fileDateLayout, groups[1], timezone.Location)
		if err != nil {
			continue
		}
		to, err := time.ParseInLocation(fileDateLayout, groups[2], timezone.Location)
		if err != nil {
			continue
		}
		files = append(files, CacheFile{
			From: from,
			To:   to,
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	return files, nil
}

// FindLatest returns the cache file whose encoded end date is the most
// recent. When two files share an end date the one sorting last wins
// (os.ReadDir returns names in lexical order).
func FindLatest(ctx context.Context, dir, prefix string) (CacheFile, bool, error) {
	ctx, span := tracer.Start(ctx, "FindLatest")
	defer span.End()

	files, err := List(ctx, dir, prefix)
	if err != nil {
		return CacheFile{}, false, err
	}

	var latest CacheFile
	var found bool
	for _, file := range files {
		if !found || !file.To.Before(latest.To) {
			latest = file
			found = true
		}
	}

	if found {
		span.SetAttributes(attribute.KeyValue{
			Key:   "latest",
			Value: attribute.StringValue(latest.Path),
		})
	}
	return latest, found, nil
}

// Read loads every row of a cache file.
func Read(ctx context.Context, path string) ([]orders.Row, error) {
	ctx, span := tracer.Start(ctx, "Read")
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open cache file")
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse cache file")
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cache file %s is missing its header row", path)
	}

	rows := make([]orders.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := orders.FromRecord(record)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse cache row")
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write persists rows to path, header row first. A half-written file
// is removed so a failed run never leaves a cache file behind.
func Write(ctx context.Context, path string, rows []orders.Row) error {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()

	f, err := os.Create(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache file")
		return err
	}

	writer := csv.NewWriter(f)
	err = writer.Write(orders.Header())
	if err == nil {
		for _, row := range rows {
			err = writer.Write(row.Record())
			if err != nil {
				break
			}
		}
	}
	if err == nil {
		writer.Flush()
		err = writer.Error()
	}
	if err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		os.Remove(path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cache file")
		return err
	}
	return nil
}
