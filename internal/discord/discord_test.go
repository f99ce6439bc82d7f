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

package discord

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-123"

// testClient returns a client pointed at a test server running h.
func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cl, err := New(testToken, WithBaseURL(srv.URL))
	require.NoError(t, err)
	return cl
}

func testServer(t *testing.T, status int, payload string) *Client {
	return testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(payload))
	})
}

func TestNew(t *testing.T) {
	t.Run("empty token is an error", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})
	t.Run("token is set", func(t *testing.T) {
		cl, err := New("xyz")
		require.NoError(t, err)
		assert.Equal(t, "xyz", cl.token)
	})
}

func TestClient_headers(t *testing.T) {
	var got http.Header
	cl := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	})
	_, err := cl.Guilds(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testToken, got.Get("Authorization"))
	assert.Equal(t, userAgent, got.Get("User-Agent"))
	assert.Equal(t, superProperties, got.Get("X-Super-Properties"))
}

func TestClient_apiError(t *testing.T) {
	t.Run("401 is an auth expired error", func(t *testing.T) {
		cl := testServer(t, http.StatusUnauthorized, `{"message":"401: Unauthorized"}`)
		_, err := cl.Guilds(t.Context())
		assert.ErrorIs(t, err, ErrAuthExpired)
	})
	t.Run("429 carries retry_after", func(t *testing.T) {
		cl := testServer(t, http.StatusTooManyRequests, `{"retry_after":1.5}`)
		_, err := cl.Guilds(t.Context())
		var rle *RateLimitedError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, 1500*time.Millisecond, rle.RetryAfter)
	})
	t.Run("404 is a status error", func(t *testing.T) {
		cl := testServer(t, http.StatusNotFound, `{"message":"Unknown Channel"}`)
		_, err := cl.Messages(t.Context(), "C1", 10)
		assert.True(t, IsNotFound(err))
		assert.NotErrorIs(t, err, ErrAuthExpired)
	})
}

func TestClient_Guilds(t *testing.T) {
	cl := testServer(t, http.StatusOK, `[{"id":"1","name":"Gopher Den","icon":"abc"},{"id":"2","name":"Test"}]`)
	guilds, err := cl.Guilds(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []Guild{
		{ID: "1", Name: "Gopher Den", Icon: "abc"},
		{ID: "2", Name: "Test"},
	}, guilds)
}

func TestClient_Channels(t *testing.T) {
	// type 4 is a category and must be filtered out.
	cl := testServer(t, http.StatusOK, `[
		{"id":"10","name":"general","type":0},
		{"id":"11","name":"Category","type":4},
		{"id":"12","name":"announcements","type":5}
	]`)
	channels, err := cl.Channels(t.Context(), "G1")
	require.NoError(t, err)
	assert.Equal(t, []Channel{
		{ID: "10", Name: "general", Type: 0, GuildID: "G1"},
		{ID: "12", Name: "announcements", Type: 5, GuildID: "G1"},
	}, channels)
}

func TestClient_Messages(t *testing.T) {
	t.Run("noise messages are dropped", func(t *testing.T) {
		cl := testServer(t, http.StatusOK, `[
			{"id":"3","content":"hello","author":{"id":"u1","username":"alice"},"timestamp":"2024-06-01T12:30:45+00:00","attachments":[]},
			{"id":"2","content":"","author":{"id":"u2","username":"bob"},"timestamp":"2024-06-01T12:30:40Z","attachments":[]},
			{"id":"1","content":"","author":{"id":"u2","username":"bob"},"timestamp":"2024-06-01T12:30:35Z","attachments":[{"url":"https://cdn.example.com/f.png"}]}
		]`)
		msgs, err := cl.Messages(t.Context(), "C1", 10)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "3", msgs[0].ID)
		assert.Equal(t, "alice", msgs[0].AuthorName)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC), msgs[0].Timestamp)
		assert.Equal(t, "1", msgs[1].ID)
		assert.Equal(t, []string{"https://cdn.example.com/f.png"}, msgs[1].Attachments)
	})

	t.Run("paginates with the before cursor", func(t *testing.T) {
		var cursors []string
		cl := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			before := r.URL.Query().Get("before")
			cursors = append(cursors, before)
			page := make([]map[string]any, 0, perPageMax)
			start := 300
			if before != "" {
				start = 200
			}
			for i := range perPageMax {
				page = append(page, map[string]any{
					"id":        formatID(start - i),
					"content":   "m",
					"author":    map[string]any{"id": "u", "username": "u"},
					"timestamp": "2024-06-01T12:00:00Z",
				})
			}
			json.NewEncoder(w).Encode(page)
		})
		msgs, err := cl.Messages(t.Context(), "C1", 150)
		require.NoError(t, err)
		assert.Len(t, msgs, 150)
		require.Len(t, cursors, 2)
		assert.Equal(t, "", cursors[0])
		assert.Equal(t, formatID(300-perPageMax+1), cursors[1])
	})

	t.Run("short page stops pagination", func(t *testing.T) {
		calls := 0
		cl := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`[{"id":"1","content":"only","author":{"id":"u","username":"u"},"timestamp":"2024-06-01T12:00:00Z"}]`))
		})
		msgs, err := cl.Messages(t.Context(), "C1", 500)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
		assert.Equal(t, 1, calls)
	})
}

func formatID(n int) string {
	return "10000000000000000" + string(rune('0'+n/100%10)) + string(rune('0'+n/10%10)) + string(rune('0'+n%10))
}

func TestClient_SendMessage(t *testing.T) {
	var gotBody sendMessageRequest
	cl := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"id":"900"}`))
	})
	id, err := cl.SendMessage(t.Context(), "C1", "hi there")
	require.NoError(t, err)
	assert.Equal(t, "900", id)
	assert.Equal(t, "hi there", gotBody.Content)
}

func TestClient_SendFile(t *testing.T) {
	t.Run("sends multipart payload", func(t *testing.T) {
		dir := t.TempDir()
		path := dir + "/note.txt"
		require.NoError(t, writeFile(path, "file body"))

		cl := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			var payload sendMessageRequest
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("payload_json")), &payload))
			assert.Equal(t, "see attached", payload.Content)

			f, hdr, err := r.FormFile("files[0]")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "renamed.txt", hdr.Filename)
			w.Write([]byte(`{"id":"901"}`))
		})
		id, size, err := cl.SendFile(t.Context(), "C1", "see attached", path, "renamed.txt")
		require.NoError(t, err)
		assert.Equal(t, "901", id)
		assert.Equal(t, int64(len("file body")), size)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		cl := testServer(t, http.StatusOK, `{"id":"1"}`)
		_, _, err := cl.SendFile(t.Context(), "C1", "x", "/does/not/exist", "")
		assert.Error(t, err)
	})
}

func TestClient_Conversations(t *testing.T) {
	cl := testServer(t, http.StatusOK, `[
		{"id":"D1","type":1,"last_message_id":"661720242585600000","recipients":[{"username":"johndoe","global_name":"John Doe"}]},
		{"id":"D2","type":1,"recipients":[{"username":"ghost"}]},
		{"id":"G1","type":3,"name":"project x","recipients":[{"username":"a"},{"username":"b"}]},
		{"id":"G2","type":3,"recipients":[{"username":"a","global_name":"Ay"},{"username":"b"},{"username":"c"},{"username":"d"}]},
		{"id":"G3","type":3,"recipients":[]},
		{"id":"X1","type":0}
	]`)
	convs, err := cl.Conversations(t.Context())
	require.NoError(t, err)
	require.Len(t, convs, 5)

	john := convs[0]
	assert.Equal(t, "John Doe", john.Name)
	assert.Equal(t, "johndoe", john.Username)
	assert.Equal(t, KindDirect, john.Kind)
	assert.Equal(t, 1, john.RecipientCount)
	require.NotNil(t, john.LastMessageAt)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *john.LastMessageAt)

	// no global_name falls back to the username.
	assert.Equal(t, "ghost", convs[1].Name)

	named := convs[2]
	assert.Equal(t, "project x", named.Name)
	assert.Equal(t, KindGroup, named.Kind)
	assert.Empty(t, named.Username)
	assert.Equal(t, 2, named.RecipientCount)

	// unnamed group label is built from the first three recipients.
	assert.Equal(t, "Ay, b, c +1 more", convs[3].Name)

	// a group with no listed recipients still counts its one participant.
	deserted := convs[4]
	assert.Equal(t, "Unnamed Group", deserted.Name)
	assert.Equal(t, 1, deserted.RecipientCount)
}

func TestSnowflakeTime(t *testing.T) {
	tests := []struct {
		id      string
		want    time.Time
		wantErr bool
	}{
		{"661720242585600000", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"1246440802222080000", time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC), false},
		{"not-a-number", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := SnowflakeTime(tt.id)
		if tt.wantErr {
			assert.Error(t, err, tt.id)
			continue
		}
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestFilterSince(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)
	msgs := []Message{
		{ID: "1", Timestamp: cutoff.Add(time.Second)},  // one second inside the window
		{ID: "2", Timestamp: cutoff},                   // exactly at the cutoff: excluded
		{ID: "3", Timestamp: cutoff.Add(-time.Second)}, // outside
		{ID: "4", Timestamp: now},
	}

	got := FilterSince(msgs, cutoff)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestMessage_IsEmpty(t *testing.T) {
	assert.True(t, Message{}.IsEmpty())
	assert.False(t, Message{Content: "x"}.IsEmpty())
	assert.False(t, Message{Attachments: []string{"u"}}.IsEmpty())
}

// writeFile is a test helper to create a file with contents.
func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
