package ordercache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ordersync-backend/lib/orders"
	"ordersync-backend/lib/telemetry"
	"ordersync-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, timezone.Location)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestFilename(t *testing.T) {
	name := Filename("Oberlo Orders", date(2023, 1, 1), date(2023, 12, 31))
	require.Equal(t, "Oberlo Orders 2023-01-01-2023-12-31.csv", name)
}

func TestFindLatest(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/ordercache")
	defer cleanup()

	ctx := context.Background()
	dir := t.TempDir()

	touch(t, dir, "P 2023-01-01-2023-06-30.csv")
	touch(t, dir, "P 2023-01-01-2023-12-31.csv")
	touch(t, dir, "notmatching.csv")
	touch(t, dir, "P not-a-range.csv")

	latest, found, err := FindLatest(ctx, dir, "P")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, found)
	require.Equal(t, filepath.Join(dir, "P 2023-01-01-2023-12-31.csv"), latest.Path)
	require.True(t, latest.To.Equal(date(2023, 12, 31)))
	require.True(t, latest.From.Equal(date(2023, 1, 1)))
}

func TestFindLatestEmptyDir(t *testing.T) {
	_, found, err := FindLatest(context.Background(), t.TempDir(), "P")
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, found)
}

func TestFindLatestTieBreak(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	touch(t, dir, "P 2023-01-01-2023-12-31.csv")
	touch(t, dir, "P 2023-06-01-2023-12-31.csv")

	// equal end dates resolve to the lexically larger filename
	latest, found, err := FindLatest(ctx, dir, "P")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, found)
	require.Equal(t, filepath.Join(dir, "P 2023-06-01-2023-12-31.csv"), latest.Path)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	touch(t, dir, "P 2023-01-01-2023-06-30.csv")
	touch(t, dir, "P 2023-01-01-2023-12-31.csv")
	touch(t, dir, "other.txt")

	files, err := List(ctx, dir, "P")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, files, 2)
}

func sampleRows() []orders.Row {
	return []orders.Row{
		{
			OrderNumber:       "#1001",
			CreatedDate:       time.Date(2023, 5, 1, 10, 30, 0, 0, timezone.Location),
			FinancialStatus:   "paid",
			FulfillmentStatus: "fulfilled",
			Supplier:          "AliSupplier",
			SKU:               "SKU-1",
			ProductName:       "Phone Case",
			Variant:           "Black",
			Quantity:          2,
			ProductPrice:      decimal.RequireFromString("19.95"),
			Cost:              decimal.RequireFromString("2.50"),
			TotalPrice:        decimal.RequireFromString("59.90"),
			TrackingNumber:    "RR123456785NO, RR123456786NO",
			AliOrderNumber:    "81002537",
			CustomerName:      "Ola Nordmann",
			CustomerAddress:   "Storgata 1",
			CustomerAddress2:  "",
			CustomerCity:      "Oslo",
			CustomerZip:       "0150",
			OrderNote:         "leave at door",
		},
		{
			OrderNumber:       "#1001",
			CreatedDate:       time.Date(2023, 5, 1, 10, 30, 0, 0, timezone.Location),
			FinancialStatus:   "paid",
			FulfillmentStatus: "unfulfilled",
			Supplier:          "AliSupplier",
			SKU:               "SKU-2",
			ProductName:       "Screen Protector",
			Variant:           "",
			Quantity:          1,
			ProductPrice:      decimal.RequireFromString("9.90"),
			Cost:              decimal.RequireFromString("0.80"),
			TotalPrice:        decimal.RequireFromString("59.90"),
			TrackingNumber:    "",
			AliOrderNumber:    "81002538",
			CustomerName:      "Ola Nordmann",
			CustomerAddress:   "Storgata 1",
			CustomerAddress2:  "",
			CustomerCity:      "Oslo",
			CustomerZip:       "0150",
			OrderNote:         "leave at door",
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "P 2023-01-01-2023-05-01.csv")

	written := sampleRows()
	err := Write(ctx, path, written)
	if err != nil {
		t.Fatal(err)
	}

	read, err := Read(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	diff := cmp.Diff(written, read)
	if diff != "" {
		t.Fatalf("round trip mismatch (-written +read):\n%s", diff)
	}

	// number and date formatting must survive byte-for-byte
	for i := range written {
		require.Equal(t, written[i].Record(), read[i].Record())
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
