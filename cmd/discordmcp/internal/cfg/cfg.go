// Package cfg contains common configuration variables.
package cfg

import (
	"flag"
	"log/slog"

	"github.com/rusq/osenv/v2"
)

var (
	LogFile string
	Verbose bool

	DiscordToken    string
	DiscordEmail    string
	DiscordPassword string
	Headless        bool

	LocalCacheDir string

	// GuildIDs limits the servers exposed by the server tools.  Empty means
	// no limit.
	GuildIDs StringSlice
)

// Log is the application logger.  It is initialised in main after the flags
// are parsed, and always writes to stderr: stdout belongs to the stdio MCP
// transport.
var Log = slog.Default()

type FlagMask int

const (
	DefaultFlags  FlagMask = 0
	OmitAuthFlags FlagMask = 1 << iota
	OmitCacheDir

	OmitAll = OmitAuthFlags |
		OmitCacheDir
)

// SetBaseFlags sets base flags
func SetBaseFlags(fs *flag.FlagSet, mask FlagMask) {
	fs.StringVar(&LogFile, "log", osenv.Value("LOG_FILE", ""), "log `file`, if not specified, messages are printed to STDERR")
	fs.BoolVar(&Verbose, "v", osenv.Value("DEBUG", false), "verbose messages")
	if v := osenv.Value("DISCORD_GUILD_IDS", ""); v != "" {
		_ = GuildIDs.Set(v)
	}
	fs.Var(&GuildIDs, "guilds", "comma-separated `list` of server IDs to expose, empty exposes all\n(environment: DISCORD_GUILD_IDS)")

	if mask&OmitAuthFlags == 0 {
		fs.StringVar(&DiscordToken, "token", osenv.Secret("DISCORD_TOKEN", ""), "Discord user `token` (environment: DISCORD_TOKEN)")
		fs.StringVar(&DiscordEmail, "email", osenv.Secret("DISCORD_EMAIL", ""), "Discord account `email` for browser login (environment: DISCORD_EMAIL)")
		fs.StringVar(&DiscordPassword, "password", osenv.Secret("DISCORD_PASSWORD", ""), "Discord account `password` for browser login (environment: DISCORD_PASSWORD)")
		fs.BoolVar(&Headless, "headless", osenv.Value("DISCORD_HEADLESS", true), "run the browser login headless (specify -headless=false to watch it)")
	}
	if mask&OmitCacheDir == 0 {
		fs.StringVar(&LocalCacheDir, "cache-dir", osenv.Value("CACHE_DIR", CacheDir()), "cache `directory` location\n")
	} else {
		// If OmitCacheDir is specified, LocalCacheDir would end up being the
		// default value, which is "".  Therefore, we need to init the cache
		// directory.
		LocalCacheDir = CacheDir()
	}
}
