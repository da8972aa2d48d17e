// Package oberlo scrapes order data out of the Oberlo web app by
// driving an authenticated page session and reading the JSON payload
// the app embeds into its rendered order pages.
package oberlo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ordersync-backend/lib/orders"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const payloadExpr = "window.App.payload.orders"
const urlDateLayout = "2006-01-02"

type Client struct {
	session Session
	baseUrl string
}

type ClientOptions struct {
	BaseUrl string
	Session Session
}

func NewClient(opts ClientOptions) *Client {
	return &Client{
		session: opts.Session,
		baseUrl: opts.BaseUrl,
	}
}

func (c *Client) pageUrl(from, to time.Time, page int) string {
	return fmt.Sprintf(
		"%s/orders?from=%s&to=%s&page=%d",
		c.baseUrl,
		from.Format(urlDateLayout),
		to.Format(urlDateLayout),
		page,
	)
}

// FetchOrders scrapes every order page in [from, to] and returns the
// flattened rows. The login form is handled once, if the first page
// challenges with one; remaining pages ride the authenticated session.
// Any failure aborts the whole fetch, nothing partial is returned.
// The session is closed before returning, success or not.
func (c *Client) FetchOrders(ctx context.Context, from, to time.Time, username, password string) ([]orders.Row, error) {
	ctx, span := tracer.Start(ctx, "client:FetchOrders")
	defer span.End()
	span.SetAttributes(
		attribute.KeyValue{Key: "from", Value: attribute.StringValue(from.Format(urlDateLayout))},
		attribute.KeyValue{Key: "to", Value: attribute.StringValue(to.Format(urlDateLayout))},
	)
	defer c.session.Close()

	err := c.loadPage(ctx, from, to, 1)
	if err != nil {
		span.SetStatus(codes.Error, "failed to load first order page")
		return nil, err
	}

	if c.session.HasLoginForm(ctx) {
		slog.InfoContext(ctx, "login form detected, submitting credentials", "username", username)
		err = c.session.SubmitLogin(ctx, username, password)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to submit login")
			return nil, err
		}
		err = c.session.WaitReady(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "order page never loaded after login")
			return nil, err
		}
	}

	payload, err := c.extractPage(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract first order page")
		return nil, err
	}

	rows, err := flattenOrders(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to flatten orders")
		return nil, err
	}

	lastPage := *payload.LastPage
	slog.InfoContext(
		ctx, "fetched first order page",
		"last_page", lastPage,
		"per_page", *payload.PerPage,
	)

	// remaining pages are fetched strictly one after another, the
	// session has a single "tab" and page state would race otherwise
	for page := *payload.CurrentPage + 1; page <= lastPage; page++ {
		err := c.loadPage(ctx, from, to, page)
		if err != nil {
			span.SetStatus(codes.Error, "failed to load order page")
			return nil, err
		}
		payload, err := c.extractPage(ctx)
		if err != nil {
			span.SetStatus(codes.Error, "failed to extract order page")
			return nil, err
		}
		pageRows, err := flattenOrders(payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to flatten orders")
			return nil, err
		}

		slog.DebugContext(ctx, "fetched order page", "page", page, "rows", len(pageRows))
		rows = append(rows, pageRows...)
	}

	return rows, nil
}

func (c *Client) loadPage(ctx context.Context, from, to time.Time, page int) error {
	err := c.session.Navigate(ctx, c.pageUrl(from, to, page))
	if err != nil {
		return err
	}
	return c.session.WaitReady(ctx)
}

func (c *Client) extractPage(ctx context.Context) (ordersPayload, error) {
	raw, err := c.session.ExecuteScript(ctx, payloadExpr)
	if err != nil {
		return ordersPayload{}, err
	}
	return decodeOrdersPage(raw)
}
