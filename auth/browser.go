// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package auth

// In this file: the browser token extraction provider.  It drives a real
// Chromium through the Discord login page and captures the user token from
// the Authorization header of the first API request the web app makes, with
// client-side storage as the fallback source.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	loginURL = "https://discord.com/login"
	apiMark  = "discord.com/api/"

	// DefLoginTimeout is how long the automated login may take before the
	// extraction gives up.  Interactive sessions override it with a more
	// generous value, the user may need to fetch a 2FA code.
	DefLoginTimeout = 2 * time.Minute

	challengePoll = 500 * time.Millisecond
)

var (
	installFn = playwright.Install
	runFn     = playwright.Run
)

// BrowserAuth is the provider for a token extracted from a browser login.
type BrowserAuth struct {
	simpleProvider
}

func (BrowserAuth) Type() Type { return TypeBrowser }

// BrowserOption is the functional option for NewBrowserAuth.
type BrowserOption func(*pwclient)

// BrowserHeadless sets whether the browser window is visible.  Headless is
// the default; interactive logins want a visible window.
func BrowserHeadless(b bool) BrowserOption {
	return func(cl *pwclient) { cl.headless = b }
}

// BrowserLoginTimeout overrides the default login timeout.
func BrowserLoginTimeout(d time.Duration) BrowserOption {
	return func(cl *pwclient) { cl.loginTimeout = d }
}

// NewBrowserAuth starts a browser, logs into Discord with the given
// credentials and returns a provider with the captured token.  With empty
// credentials the login form is left for the user to fill in, which only
// makes sense with BrowserHeadless(false).
func NewBrowserAuth(ctx context.Context, email, password string, opt ...BrowserOption) (BrowserAuth, error) {
	cl := &pwclient{
		email:        email,
		password:     password,
		headless:     true,
		loginTimeout: DefLoginTimeout,
		pageClosed:   make(chan bool, 1),
		lg:           slog.Default(),
	}
	for _, o := range opt {
		o(cl)
	}
	token, err := cl.authenticate(ctx)
	if err != nil {
		return BrowserAuth{}, err
	}
	return BrowserAuth{simpleProvider{Token: token}}, nil
}

// pwclient drives the playwright browser session.
type pwclient struct {
	email        string
	password     string
	headless     bool
	loginTimeout time.Duration
	pageClosed   chan bool // receives a notification that the page is closed prematurely.
	lg           *slog.Logger
}

var ErrBrowserClosed = errors.New("browser closed or timed out")

var errLoginTimeout = errors.New("timed out waiting for login to complete")

func (cl *pwclient) authenticate(ctx context.Context) (string, error) {
	_b := playwright.Bool

	if err := installFn(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return "", fmt.Errorf("can't install the browser: %w", err)
	}
	pw, err := runFn()
	if err != nil {
		return "", err
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: _b(cl.headless),
	})
	if err != nil {
		return "", err
	}
	defer browser.Close()

	bctx, err := browser.NewContext()
	if err != nil {
		return "", err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return "", err
	}
	// page close sentinel.
	page.OnClose(func(playwright.Page) { close(cl.pageClosed) })

	// the web app sends the raw token in the Authorization header of every
	// API call, the first one observed after login wins.
	tokenC := make(chan string, 1)
	page.OnRequest(func(r playwright.Request) {
		if !strings.Contains(r.URL(), apiMark) {
			return
		}
		v, err := r.HeaderValue("authorization")
		if err != nil {
			return
		}
		v = strings.TrimSpace(v)
		if !isToken(v) {
			return
		}
		select {
		case tokenC <- v:
		default:
		}
	})

	cl.lg.DebugContext(ctx, "opening browser", "url", loginURL, "headless", cl.headless)
	if _, err := page.Goto(loginURL); err != nil {
		return "", err
	}
	if cl.email != "" {
		if err := cl.login(page); err != nil {
			return "", err
		}
	}

	token, err := cl.waitToken(ctx, page, tokenC)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, errLoginTimeout) {
		return "", err
	}
	// no API call was observed, the token may still be present in the
	// client side storage.
	return cl.fromStorage(page)
}

func (cl *pwclient) login(page playwright.Page) error {
	if err := page.Locator(`input[name="email"]`).Fill(cl.email); err != nil {
		return fmt.Errorf("email field: %w", err)
	}
	if err := page.Locator(`input[name="password"]`).Fill(cl.password); err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	if err := page.Locator(`button[type="submit"]`).Click(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// waitToken waits until the token is captured, the login times out, the
// browser window is closed, or, in headless mode, the login runs into a
// challenge that needs a human.
func (cl *pwclient) waitToken(ctx context.Context, page playwright.Page, tokenC <-chan string) (string, error) {
	deadline := time.NewTimer(cl.loginTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(challengePoll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-cl.pageClosed:
			return "", ErrBrowserClosed
		case token := <-tokenC:
			return token, nil
		case <-deadline.C:
			return "", errLoginTimeout
		case <-tick.C:
			if !cl.headless {
				continue
			}
			if err := challenge(page); err != nil {
				return "", err
			}
		}
	}
}

// challenge inspects the page for login challenges that automated extraction
// can not pass.
func challenge(page playwright.Page) error {
	if isMFAURL(page.URL()) {
		return &Error{Err: ErrMFARequired, Msg: "two-factor authentication is enabled, run the auth command to log in interactively"}
	}
	n, err := page.Locator(`iframe[src*="captcha"]`).Count()
	if err == nil && n > 0 {
		return &Error{Err: ErrCaptcha, Msg: "login requires solving a captcha, run the auth command to log in interactively"}
	}
	return nil
}

func (cl *pwclient) fromStorage(page playwright.Page) (string, error) {
	for _, script := range []string{jsLocalStorageToken, jsWebpackToken} {
		v, err := page.Evaluate(script)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && isToken(s) {
			return s, nil
		}
	}
	return "", &Error{Err: ErrNoToken, Msg: "could not capture a token from the browser session"}
}

// localStorage of the main window is patched out by the web app, but an
// injected iframe still gets the real one.
const jsLocalStorageToken = `() => {
	try {
		const frame = document.createElement("iframe");
		document.body.appendChild(frame);
		const raw = frame.contentWindow.localStorage.getItem("token");
		frame.remove();
		return raw ? JSON.parse(raw) : null;
	} catch (e) {
		return null;
	}
}`

// jsWebpackToken asks the web app's own token module, which survives even
// when localStorage is unavailable.
const jsWebpackToken = `() => {
	try {
		let mods = [];
		window.webpackChunkdiscord_app.push([[Symbol()], {}, (req) => {
			for (const id in req.c) mods.push(req.c[id]);
		}]);
		const mod = mods.find((m) => m?.exports?.default?.getToken !== undefined);
		return mod ? mod.exports.default.getToken() : null;
	} catch (e) {
		return null;
	}
}`

var tokenRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{30,}$`)

// isToken reports whether s looks like a Discord user token.  Good enough to
// reject header noise and the string "undefined" coming from the page.
func isToken(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
	if strings.EqualFold(s, "undefined") || strings.EqualFold(s, "null") {
		return false
	}
	return tokenRE.MatchString(s)
}

// isMFAURL reports whether the browser navigated to a two-factor prompt.
func isMFAURL(uri string) bool {
	uri = strings.ToLower(uri)
	return strings.Contains(uri, "/verify") || strings.Contains(uri, "mfa")
}
