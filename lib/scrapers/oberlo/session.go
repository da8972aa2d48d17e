package oberlo

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"ordersync-backend/lib/htmlutil"
	"ordersync-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var ErrPageLoadTimeout = fmt.Errorf("timed out waiting for the page to load")

const pageLoadTimeout = time.Second * 30
const pageLoadPollInterval = time.Millisecond * 500

// Session is the narrow slice of an authenticated browsing session the
// scraper needs. It is owned by a single scrape from open to Close and
// must never be shared.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until the current page has finished rendering
	// (the embedded payload or a login challenge is present) or the
	// page load timeout elapses.
	WaitReady(ctx context.Context) error
	// ExecuteScript resolves a window-scoped assignment expression
	// such as "window.App.payload.orders" against the rendered page
	// and returns the assigned value as raw JSON.
	ExecuteScript(ctx context.Context, expr string) ([]byte, error)
	HasLoginForm(ctx context.Context) bool
	SubmitLogin(ctx context.Context, username, password string) error
	Close() error
}

type SessionOptions struct {
	BaseUrl string
	// ProfileDir persists login cookies between runs so most scrapes
	// skip the login form entirely. Empty disables persistence.
	ProfileDir string
}

type browserSession struct {
	http       *resty.Client
	jar        http.CookieJar
	baseUrl    *url.URL
	profileDir string

	currentUrl string
	doc        *goquery.Document
}

func NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(pageLoadTimeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	s := &browserSession{
		http:       client,
		jar:        jar,
		baseUrl:    baseUrl,
		profileDir: opts.ProfileDir,
	}
	s.loadProfile()
	return s, nil
}

func (s *browserSession) Navigate(ctx context.Context, rawurl string) error {
	ctx, span := tracer.Start(ctx, "session:Navigate")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(rawurl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page html")
		return err
	}

	s.currentUrl = rawurl
	s.doc = doc
	return nil
}

func (s *browserSession) WaitReady(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:WaitReady")
	defer span.End()

	deadline := time.Now().Add(pageLoadTimeout)
	for {
		if s.doc != nil && (s.hasPayload() || s.HasLoginForm(ctx)) {
			return nil
		}
		if time.Now().After(deadline) {
			span.SetStatus(codes.Error, ErrPageLoadTimeout.Error())
			return ErrPageLoadTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pageLoadPollInterval):
		}

		// the app renders server-side, so "waiting" for a slow page
		// means fetching it again
		err := s.Navigate(ctx, s.currentUrl)
		if err != nil {
			return err
		}
	}
}

func (s *browserSession) hasPayload() bool {
	found := false
	for _, script := range s.doc.Find("script").Nodes {
		if strings.Contains(htmlutil.GetText(script), "window.App.payload") {
			found = true
			break
		}
	}
	return found
}

// matches a `window.<path> = <value>;` assignment inside an inline
// script, capturing the value
func assignmentRegex(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?ms)` + regexp.QuoteMeta(expr) + `\s*=\s*(.+?);\s*$`)
}

func (s *browserSession) ExecuteScript(ctx context.Context, expr string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "session:ExecuteScript")
	defer span.End()

	if s.doc == nil {
		return nil, fmt.Errorf("no page has been navigated to")
	}

	pattern := assignmentRegex(expr)
	for _, script := range s.doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		groups := pattern.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		return []byte(groups[1]), nil
	}

	err := fmt.Errorf("could not find %q in any script on %s", expr, s.currentUrl)
	span.RecordError(err)
	span.SetStatus(codes.Error, "script expression not found")
	return nil, err
}

func (s *browserSession) HasLoginForm(ctx context.Context) bool {
	if s.doc == nil {
		return false
	}
	return len(s.doc.Find("input[name=email]").Nodes) > 0 &&
		len(s.doc.Find("input[name=password]").Nodes) > 0
}

func (s *browserSession) SubmitLogin(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "session:SubmitLogin")
	defer span.End()

	form := s.doc.Find("input[name=password]").Closest("form")
	if len(form.Nodes) == 0 {
		span.SetStatus(codes.Error, "no login form present")
		return fmt.Errorf("no login form present on %s", s.currentUrl)
	}

	fields := map[string]string{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name != "" {
			fields[name] = input.AttrOr("value", "")
		}
	})
	fields["email"] = username
	fields["password"] = password

	action := form.AttrOr("action", s.currentUrl)
	_, err := s.http.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}

	// the app redirects back to whatever page challenged us, render
	// it again with the session cookies in place
	return s.Navigate(ctx, s.currentUrl)
}

func (s *browserSession) Close() error {
	return s.saveProfile()
}

func (s *browserSession) profilePath() string {
	return filepath.Join(s.profileDir, "cookies.gob")
}

func (s *browserSession) loadProfile() {
	if s.profileDir == "" {
		return
	}
	serialized, err := os.ReadFile(s.profilePath())
	if err != nil {
		return
	}

	var cookies []*http.Cookie
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cookies)
	if err != nil {
		return
	}
	s.jar.SetCookies(s.baseUrl, cookies)
}

func (s *browserSession) saveProfile() error {
	if s.profileDir == "" {
		return nil
	}
	err := os.MkdirAll(s.profileDir, 0700)
	if err != nil {
		return err
	}

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(s.jar.Cookies(s.baseUrl))
	if err != nil {
		return err
	}
	return os.WriteFile(s.profilePath(), serialized.Bytes(), 0600)
}
