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

// Package authcmd contains the CLI command for interactive authentication.
package authcmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/rusq/discordmcp/auth"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/cfg"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/golang/base"
	"github.com/rusq/discordmcp/internal/cache"
)

// CmdAuth is the "discordmcp auth" command.
var CmdAuth = &base.Command{
	UsageLine: "discordmcp auth [flags]",
	Short:     "Log into Discord and cache the token",
	Long: `
# Auth Command

Auth opens a browser window on the Discord login page, captures the user
token once the login completes, and stores it in the token cache for the MCP
server to use.  Two-factor prompts and captchas can be completed in the
window; the automated headless login can not pass those.

With -reset the cached token is removed instead.
`,
	FlagMask:   cfg.DefaultFlags,
	PrintFlags: true,
	Run:        runAuth,
}

var reset bool

// interactiveTimeout leaves the user enough time for a 2FA round trip.
const interactiveTimeout = 5 * time.Minute

func init() {
	CmdAuth.Flag.BoolVar(&reset, "reset", false, "remove the cached token instead of logging in")
}

func runAuth(ctx context.Context, cmd *base.Command, args []string) error {
	mgr, err := cache.NewManager(cfg.CacheDir())
	if err != nil {
		base.SetExitStatus(base.SCacheError)
		return fmt.Errorf("auth: cache: %w", err)
	}
	if reset {
		if err := mgr.Reset(); err != nil {
			base.SetExitStatus(base.SCacheError)
			return fmt.Errorf("auth: reset: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Cached token removed.")
		return nil
	}

	email, password, err := credentials()
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return fmt.Errorf("auth: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Opening the browser, complete the login there if needed...")
	prov, err := auth.NewBrowserAuth(ctx, email, password,
		auth.BrowserHeadless(false),
		auth.BrowserLoginTimeout(interactiveTimeout),
	)
	if err != nil {
		base.SetExitStatus(base.SAuthError)
		return fmt.Errorf("auth: %w", err)
	}
	if err := mgr.SaveToken(prov.DiscordToken()); err != nil {
		base.SetExitStatus(base.SCacheError)
		return fmt.Errorf("auth: save token: %w", err)
	}
	cfg.Log.InfoContext(ctx, "token cached", "auth_type", prov.Type())
	fmt.Fprintln(os.Stderr, "Login successful, token cached.")
	return nil
}

// credentials returns the email and password from flags or environment, and
// prompts for the missing ones.  Both empty is allowed: the user can type
// them straight into the browser window.
func credentials() (string, string, error) {
	email := cfg.DiscordEmail
	password := cfg.DiscordPassword
	if email != "" && password != "" {
		return email, password, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// no terminal to ask on, let the user fill in the browser form.
		return "", "", nil
	}
	if email == "" {
		fmt.Fprint(os.Stderr, "Email (leave empty to log in inside the browser): ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", "", err
		}
		email = strings.TrimSpace(line)
		if email == "" {
			return "", "", nil
		}
	}
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", err
		}
		password = string(b)
	}
	return email, password, nil
}
