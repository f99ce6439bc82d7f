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

// Package serve contains the CLI command for starting the MCP server.
package serve

import (
	"context"
	"fmt"
	"strings"

	"github.com/rusq/discordmcp/cmd/discordmcp/internal/cfg"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/golang/base"
	"github.com/rusq/discordmcp/internal/cache"
	internalmcp "github.com/rusq/discordmcp/internal/mcp"
	"github.com/rusq/discordmcp/internal/session"
)

// CmdServe is the "discordmcp serve" command.
var CmdServe = &base.Command{
	UsageLine: "discordmcp serve [flags]",
	Short:     "Start the MCP server",
	Long: `
# Serve Command

Serve starts the MCP server that exposes the user's Discord messaging as MCP
tools.

By default the server talks MCP over stdin/stdout, which is what local agent
integrations expect.  Use -transport=http for a Streamable HTTP endpoint.

Authentication is lazy: the first tool call resolves the token from the
-token flag (or DISCORD_TOKEN), then from the token cache, and as a last
resort extracts a fresh one by logging into Discord in a browser with
DISCORD_EMAIL and DISCORD_PASSWORD.  Run "discordmcp auth" to log in
interactively ahead of time.
`,
	FlagMask:   cfg.DefaultFlags,
	PrintFlags: true,
	Run:        runServe,
}

var (
	transport  string
	listenAddr string
)

func init() {
	CmdServe.Flag.StringVar(&transport, "transport", "stdio", "MCP transport: \"stdio\" or \"http\"")
	CmdServe.Flag.StringVar(&listenAddr, "listen", "127.0.0.1:8484", "address to listen on when -transport=http")
}

func runServe(ctx context.Context, cmd *base.Command, args []string) error {
	lg := cfg.Log

	mgr, err := cache.NewManager(cfg.CacheDir())
	if err != nil {
		base.SetExitStatus(base.SCacheError)
		return fmt.Errorf("serve: cache: %w", err)
	}

	sess := session.New(session.Credentials{
		Token:    cfg.DiscordToken,
		Email:    cfg.DiscordEmail,
		Password: cfg.DiscordPassword,
		Headless: cfg.Headless,
	}, mgr, session.WithLogger(lg), session.WithGuilds(cfg.GuildIDs))

	srv := internalmcp.New(sess, internalmcp.WithLogger(lg))

	switch strings.ToLower(transport) {
	case "stdio", "":
		return srv.ServeStdio(ctx)
	case "http":
		lg.InfoContext(ctx, "serve: http transport", "addr", listenAddr)
		return srv.ServeHTTP(ctx, listenAddr)
	default:
		base.SetExitStatus(base.SInvalidParameters)
		return fmt.Errorf("serve: unknown transport %q (use \"stdio\" or \"http\")", transport)
	}
}
