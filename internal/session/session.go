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

// Package session owns the token lifecycle.  It resolves the token on first
// use (explicit value, then cache, then browser extraction), builds a fresh
// API client for each operation, and on a rejected token invalidates it,
// re-extracts once and retries the operation once.  A mutex serialises all
// operations, so a browser login is never started twice concurrently and no
// client handle outlives the operation that acquired it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/rusq/discordmcp/auth"
	"github.com/rusq/discordmcp/internal/cache"
	"github.com/rusq/discordmcp/internal/discord"
	"github.com/rusq/discordmcp/internal/network"
)

const defMaxAttempts = 3

var (
	// ErrNoCredentials is returned when there is no token and nothing to
	// extract one with.
	ErrNoCredentials = errors.New("no credentials: set DISCORD_TOKEN, or DISCORD_EMAIL and DISCORD_PASSWORD, or run \"discordmcp auth\"")
	// ErrTokenExpired is returned when the token was rejected and there are
	// no credentials to obtain a fresh one.
	ErrTokenExpired = errors.New("authorization expired: the token was rejected, provide a fresh DISCORD_TOKEN or run \"discordmcp auth\"")
)

// Credentials is everything the session may use to authenticate.
type Credentials struct {
	Token    string // explicit token, wins over everything else.
	Email    string
	Password string
	Headless bool // for the browser extraction.
}

// client is the API surface the session drives.  *discord.Client satisfies
// it.
type client interface {
	Guilds(ctx context.Context) ([]discord.Guild, error)
	Channels(ctx context.Context, guildID string) ([]discord.Channel, error)
	Messages(ctx context.Context, channelID string, limit int) ([]discord.Message, error)
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	SendFile(ctx context.Context, channelID, content, filePath, filename string) (string, int64, error)
	Conversations(ctx context.Context) ([]discord.Conversation, error)
	Limiter() *rate.Limiter
}

// Session is the authenticated Discord session.  The zero value is not
// usable, use New.
type Session struct {
	creds       Credentials
	mgr         *cache.Manager
	lg          *slog.Logger
	maxAttempts int
	guildIDs    map[string]struct{} // empty means no limit.

	mu    sync.Mutex // serialises operations and guards token.
	token string

	// injection points for tests.
	newClient func(token string) (client, error)
	extract   func(ctx context.Context) (auth.Provider, error)
}

// Option is the functional option for New.
type Option func(*Session)

func WithLogger(lg *slog.Logger) Option {
	return func(s *Session) {
		if lg != nil {
			s.lg = lg
		}
	}
}

// WithMaxAttempts sets the per-operation retry budget for transient network
// and rate limit failures.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithGuilds limits Guilds to the servers with the given IDs.  An empty list
// exposes all servers.
func WithGuilds(ids []string) Option {
	return func(s *Session) {
		if len(ids) == 0 {
			return
		}
		s.guildIDs = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.guildIDs[id] = struct{}{}
		}
	}
}

// New creates a session.  No network or browser activity happens until the
// first operation.
func New(creds Credentials, mgr *cache.Manager, opts ...Option) *Session {
	s := &Session{
		creds:       creds,
		mgr:         mgr,
		lg:          slog.Default(),
		maxAttempts: defMaxAttempts,
	}
	s.newClient = func(token string) (client, error) {
		return discord.New(token, discord.WithLogger(s.lg))
	}
	s.extract = func(ctx context.Context) (auth.Provider, error) {
		prov, err := auth.NewBrowserAuth(ctx, s.creds.Email, s.creds.Password, auth.BrowserHeadless(s.creds.Headless))
		if err != nil {
			return nil, err
		}
		return prov, nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tokenLocked returns the held token, resolving it first if necessary.
// Callers must hold s.mu.
func (s *Session) tokenLocked(ctx context.Context) (string, error) {
	if s.token != "" {
		return s.token, nil
	}
	prov, err := s.resolveProvider(ctx)
	if err != nil {
		return "", err
	}
	s.lg.InfoContext(ctx, "authenticated", "auth_type", prov.Type())
	s.token = prov.DiscordToken()
	return s.token, nil
}

// resolveProvider finds a credential provider: the explicit value wins (and
// overwrites the cache), then the on-disk cache, and as a last resort a
// browser login with the configured credentials.
func (s *Session) resolveProvider(ctx context.Context) (auth.Provider, error) {
	if s.creds.Token != "" {
		prov, err := auth.NewValueAuth(s.creds.Token)
		if err != nil {
			return nil, err
		}
		if err := s.mgr.SaveToken(prov.DiscordToken()); err != nil {
			s.lg.WarnContext(ctx, "failed to cache the token", "error", err)
		}
		return prov, nil
	}
	token, err := s.mgr.Token()
	if err == nil {
		prov, cerr := auth.NewCachedAuth(token)
		if cerr != nil {
			return nil, cerr
		}
		return prov, nil
	}
	if !errors.Is(err, cache.ErrNoCachedToken) {
		return nil, err
	}
	return s.extractAndSave(ctx)
}

func (s *Session) extractAndSave(ctx context.Context) (auth.Provider, error) {
	if s.creds.Email == "" || s.creds.Password == "" {
		return nil, ErrNoCredentials
	}
	s.lg.InfoContext(ctx, "no stored token, starting browser extraction")
	prov, err := s.extract(ctx)
	if err != nil {
		return nil, loginErr(err)
	}
	if err := s.mgr.SaveToken(prov.DiscordToken()); err != nil {
		s.lg.WarnContext(ctx, "failed to cache the token", "error", err)
	}
	return prov, nil
}

// loginErr adds the interactive-login guidance to challenges that automated
// extraction can not complete.
func loginErr(err error) error {
	if auth.IsManualLoginRequired(err) {
		return fmt.Errorf("%w, complete the login by running \"discordmcp auth\"", err)
	}
	return err
}

// reauthLocked drops the rejected token everywhere and obtains a fresh one
// through the browser.  Callers must hold s.mu.
func (s *Session) reauthLocked(ctx context.Context) (string, error) {
	s.token = ""
	if err := s.mgr.Reset(); err != nil {
		s.lg.WarnContext(ctx, "failed to drop the cached token", "error", err)
	}
	if s.creds.Email == "" || s.creds.Password == "" {
		return "", ErrTokenExpired
	}
	s.lg.InfoContext(ctx, "token rejected, re-extracting")
	prov, err := s.extract(ctx)
	if err != nil {
		return "", loginErr(err)
	}
	if err := s.mgr.SaveToken(prov.DiscordToken()); err != nil {
		s.lg.WarnContext(ctx, "failed to cache the token", "error", err)
	}
	s.token = prov.DiscordToken()
	return s.token, nil
}

// do runs fn under the session lock, with transient-failure retries, and
// with a single re-authentication round when the token is rejected.  The
// client is constructed fresh for every operation and is released with it.
func do[T any](ctx context.Context, s *Session, fn func(ctx context.Context, cl client) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	token, err := s.tokenLocked(ctx)
	if err != nil {
		return zero, err
	}
	cl, err := s.newClient(token)
	if err != nil {
		return zero, err
	}
	res, err := call(ctx, s, cl, fn)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, discord.ErrAuthExpired) {
		return zero, err
	}
	token, err = s.reauthLocked(ctx)
	if err != nil {
		return zero, err
	}
	cl, err = s.newClient(token)
	if err != nil {
		return zero, err
	}
	return call(ctx, s, cl, fn)
}

func call[T any](ctx context.Context, s *Session, cl client, fn func(ctx context.Context, cl client) (T, error)) (T, error) {
	var res T
	err := network.WithRetry(ctx, cl.Limiter(), s.maxAttempts, func() error {
		var err error
		res, err = fn(ctx, cl)
		return err
	})
	return res, err
}

// Guilds lists the servers the user is a member of.  If the session is
// configured with an allowlist, only the allowed servers are returned.
func (s *Session) Guilds(ctx context.Context) ([]discord.Guild, error) {
	gg, err := do(ctx, s, func(ctx context.Context, cl client) ([]discord.Guild, error) {
		return cl.Guilds(ctx)
	})
	if err != nil || len(s.guildIDs) == 0 {
		return gg, err
	}
	allowed := gg[:0]
	for _, g := range gg {
		if _, ok := s.guildIDs[g.ID]; ok {
			allowed = append(allowed, g)
		}
	}
	return allowed, nil
}

// Channels lists the text channels of a server.
func (s *Session) Channels(ctx context.Context, guildID string) ([]discord.Channel, error) {
	return do(ctx, s, func(ctx context.Context, cl client) ([]discord.Channel, error) {
		return cl.Channels(ctx, guildID)
	})
}

// Messages returns up to limit most recent messages of a channel.
func (s *Session) Messages(ctx context.Context, channelID string, limit int) ([]discord.Message, error) {
	return do(ctx, s, func(ctx context.Context, cl client) ([]discord.Message, error) {
		return cl.Messages(ctx, channelID, limit)
	})
}

// SendMessage posts content to the channel and returns the new message ID.
func (s *Session) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	return do(ctx, s, func(ctx context.Context, cl client) (string, error) {
		return cl.SendMessage(ctx, channelID, content)
	})
}

// SendFile posts a file with an optional text body to the channel, returning
// the new message ID and the file size.
func (s *Session) SendFile(ctx context.Context, channelID, content, filePath, filename string) (string, int64, error) {
	type sent struct {
		id   string
		size int64
	}
	res, err := do(ctx, s, func(ctx context.Context, cl client) (sent, error) {
		id, size, err := cl.SendFile(ctx, channelID, content, filePath, filename)
		return sent{id: id, size: size}, err
	})
	return res.id, res.size, err
}

// Conversations lists the user's direct and group conversations.
func (s *Session) Conversations(ctx context.Context) ([]discord.Conversation, error) {
	return do(ctx, s, func(ctx context.Context, cl client) ([]discord.Conversation, error) {
		return cl.Conversations(ctx)
	})
}
