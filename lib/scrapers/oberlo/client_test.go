package oberlo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"testing"
	"time"

	"ordersync-backend/lib/telemetry"
	"ordersync-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, timezone.Location)
}

// fakeSession serves canned payloads per page number and records the
// order in which pages were visited.
type fakeSession struct {
	pages     map[int]string
	loginForm bool
	timeoutOn int

	page     int
	visited  []int
	loggedIn bool
	closed   bool
}

func (f *fakeSession) Navigate(ctx context.Context, rawurl string) error {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	page, err := strconv.Atoi(parsed.Query().Get("page"))
	if err != nil {
		return err
	}
	f.page = page
	f.visited = append(f.visited, page)
	return nil
}

func (f *fakeSession) WaitReady(ctx context.Context) error {
	if f.timeoutOn != 0 && f.page == f.timeoutOn {
		return ErrPageLoadTimeout
	}
	return nil
}

func (f *fakeSession) ExecuteScript(ctx context.Context, expr string) ([]byte, error) {
	payload, ok := f.pages[f.page]
	if !ok {
		return nil, fmt.Errorf("no payload for page %d", f.page)
	}
	return []byte(payload), nil
}

func (f *fakeSession) HasLoginForm(ctx context.Context) bool {
	return f.loginForm && !f.loggedIn
}

func (f *fakeSession) SubmitLogin(ctx context.Context, username, password string) error {
	f.loggedIn = true
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func pageJSON(current, last int, orderNames ...string) string {
	data := ""
	for i, name := range orderNames {
		if i > 0 {
			data += ","
		}
		data += fmt.Sprintf(`{
			"order_name": %q, "processed_at": "2023-05-01 10:30:00",
			"total_price": "10.00", "financial_status": "paid",
			"fulfillment_status": "fulfilled", "shipping_name": "n",
			"shipping_zip": "z", "shipping_city": "c",
			"shipping_address1": "a", "shipping_address2": "",
			"local_note": "",
			"orderitems": [{
				"ali_order_no": "8", "sku": "s", "supplier_name": "sup",
				"title": "t", "variant_title": "", "cost": "1.00",
				"quantity": 1, "price": "2.00", "fulfillments": []
			}]
		}`, name)
	}
	return fmt.Sprintf(
		`{"current_page": %d, "last_page": %d, "per_page": 2, "data": [%s]}`,
		current, last, data,
	)
}

func TestFetchOrdersPaginates(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/scrapers/oberlo")
	defer cleanup()

	session := &fakeSession{
		pages: map[int]string{
			1: pageJSON(1, 3, "#1", "#2"),
			2: pageJSON(2, 3, "#3", "#4"),
			3: pageJSON(3, 3, "#5"),
		},
	}
	client := NewClient(ClientOptions{
		BaseUrl: "https://app.example.com",
		Session: session,
	})

	rows, err := client.FetchOrders(
		context.Background(),
		date(2023, 1, 1), date(2023, 5, 1),
		"user", "pass",
	)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []int{1, 2, 3}, session.visited)
	require.Len(t, rows, 5)
	require.True(t, session.closed)
}

func TestFetchOrdersLogsInOnce(t *testing.T) {
	session := &fakeSession{
		loginForm: true,
		pages: map[int]string{
			1: pageJSON(1, 2, "#1"),
			2: pageJSON(2, 2, "#2"),
		},
	}
	client := NewClient(ClientOptions{
		BaseUrl: "https://app.example.com",
		Session: session,
	})

	rows, err := client.FetchOrders(
		context.Background(),
		date(2023, 1, 1), date(2023, 5, 1),
		"user", "pass",
	)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, session.loggedIn)
	require.Len(t, rows, 2)
}

func TestFetchOrdersAbortsOnTimeout(t *testing.T) {
	session := &fakeSession{
		timeoutOn: 2,
		pages: map[int]string{
			1: pageJSON(1, 3, "#1"),
			2: pageJSON(2, 3, "#2"),
			3: pageJSON(3, 3, "#3"),
		},
	}
	client := NewClient(ClientOptions{
		BaseUrl: "https://app.example.com",
		Session: session,
	})

	rows, err := client.FetchOrders(
		context.Background(),
		date(2023, 1, 1), date(2023, 5, 1),
		"user", "pass",
	)
	require.ErrorIs(t, err, ErrPageLoadTimeout)
	require.Nil(t, rows)
	require.True(t, session.closed)
}

func TestFetchOrdersAbortsOnBadPayload(t *testing.T) {
	session := &fakeSession{
		pages: map[int]string{
			1: pageJSON(1, 2, "#1"),
			2: `{"current_page": 2, "per_page": 2, "data": []}`,
		},
	}
	client := NewClient(ClientOptions{
		BaseUrl: "https://app.example.com",
		Session: session,
	})

	rows, err := client.FetchOrders(
		context.Background(),
		date(2023, 1, 1), date(2023, 5, 1),
		"user", "pass",
	)
	require.Error(t, err)
	require.Nil(t, rows)
}

func TestPageUrl(t *testing.T) {
	client := NewClient(ClientOptions{BaseUrl: "https://app.example.com"})
	require.Equal(
		t,
		"https://app.example.com/orders?from=2023-01-01&to=2023-05-01&page=3",
		client.pageUrl(date(2023, 1, 1), date(2023, 5, 1), 3),
	)
}
