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

// Discordmcp is an MCP server that gives AI agents access to the user's
// Discord messaging: reading and sending channel messages, file attachments
// and direct conversations.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/rusq/discordmcp/cmd/discordmcp/internal/authcmd"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/cfg"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/golang/base"
	"github.com/rusq/discordmcp/cmd/discordmcp/internal/serve"
)

var build = "dev"

// secrets defines the names of the supported secret files that we load our
// secrets from.  Inexperienced windows users might have bad experience trying
// to create .env file with the notepad as it will battle for having the
// "txt" extension.  Let it have it.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

func init() {
	base.DiscordMCP.Commands = []*base.Command{
		serve.CmdServe,
		authcmd.CmdAuth,
		cmdVersion,
	}
}

func main() {
	loadSecrets(secrets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[1:]
	if len(args) == 0 {
		// no subcommand starts the server on the default transport, which is
		// what an agent integration invokes.
		args = []string{"serve"}
	}
	if args[0] == "help" {
		mainUsage(args[1:])
		base.Exit()
	}

	for _, cmd := range base.DiscordMCP.Commands {
		if cmd.Name() != args[0] || !cmd.Runnable() {
			continue
		}
		invoke(ctx, cmd, args[1:])
		base.Exit()
	}

	fmt.Fprintf(os.Stderr, "discordmcp %s: unknown command\nRun 'discordmcp help' for usage.\n", args[0])
	base.SetExitStatus(base.SInvalidParameters)
	base.Exit()
}

func invoke(ctx context.Context, cmd *base.Command, args []string) {
	base.CmdName = cmd.Name()
	if !cmd.CustomFlags {
		cfg.SetBaseFlags(&cmd.Flag, cmd.FlagMask)
		cmd.Flag.Usage = cmd.Usage
		if err := cmd.Flag.Parse(args); err != nil {
			base.SetExitStatus(base.SInvalidParameters)
			return
		}
		args = cmd.Flag.Args()
	}
	initLog()

	if err := cmd.Run(ctx, cmd, args); err != nil {
		cfg.Log.Error("command failed", "cmd", cmd.Name(), "error", err)
		base.SetExitStatus(base.SGenericError)
	}
}

// initLog initialises cfg.Log after the flags are parsed.  Log output always
// goes to stderr or a file: stdout carries the MCP stdio transport.
func initLog() {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	w := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			slog.Warn("unable to open the log file, logging to stderr", "file", cfg.LogFile, "error", err)
		} else {
			base.AtExit(func() { f.Close() })
			w = f
		}
	}
	cfg.Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(cfg.Log)
}

// loadSecrets load secrets from the files in secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// mainUsage prints the top level usage, or the long help of the command named
// in args.
func mainUsage(args []string) {
	if len(args) > 0 {
		for _, cmd := range base.DiscordMCP.Commands {
			if cmd.Name() != args[0] {
				continue
			}
			fmt.Fprintln(os.Stderr, cmd.Long)
			fmt.Fprintf(os.Stderr, "usage: %s\n", cmd.UsageLine)
			if cmd.PrintFlags {
				cfg.SetBaseFlags(&cmd.Flag, cmd.FlagMask)
				cmd.Flag.SetOutput(os.Stderr)
				cmd.Flag.PrintDefaults()
			}
			return
		}
		fmt.Fprintf(os.Stderr, "unknown help topic %q\n", args[0])
		base.SetExitStatus(base.SInvalidParameters)
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n\nusage: discordmcp [command] [flags]\n\nThe commands are:\n\n", base.DiscordMCP.Long)
	for _, cmd := range base.DiscordMCP.Commands {
		fmt.Fprintf(os.Stderr, "\t%s\t%s\n", cmd.Name(), cmd.Short)
	}
	fmt.Fprintf(os.Stderr, "\nUse \"discordmcp help <command>\" for details.  Running discordmcp without\na command starts the MCP server on stdio.\n")
}

// cmdVersion is the "discordmcp version" command.
var cmdVersion = &base.Command{
	UsageLine: "discordmcp version",
	Short:     "Print the version",
	Long:      "\n# Version Command\n\nVersion prints the build version.\n",
	FlagMask:  cfg.OmitAll,
	Run: func(ctx context.Context, cmd *base.Command, args []string) error {
		fmt.Println(build)
		return nil
	},
}
