package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mildlymodbot/mmb/automod/engine"
	"github.com/mildlymodbot/mmb/reddit"

	"github.com/stretchr/testify/assert"
)

// just enough of the reddit API for the platform adapter
func fakeRedditHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/access_token":
		fmt.Fprintln(w, `{"access_token": "token1", "token_type": "bearer", "expires_in": 3600}`)
	case "/r/test/about/log":
		fmt.Fprintln(w, `{"kind": "Listing", "data": {"children": [
			{"kind": "modaction", "data": {"id": "ModAction_1", "action": "editflair", "created_utc": 1700000000, "mod": "somemod", "target_author": "someone", "target_fullname": "t3_abc123", "target_permalink": "/r/test/comments/abc123/post/"}}
		]}}`)
	case "/api/info":
		fmt.Fprintln(w, `{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "abc123", "author": "someone", "link_flair_text": "Spam Bot", "removed_by_category": "reddit", "permalink": "/r/test/comments/abc123/post/"}}]}}`)
	case "/r/test/api/friend":
		r.ParseForm()
		if r.PostForm.Get("name") == "ghost" {
			fmt.Fprintln(w, `{"json": {"errors": [["USER_DOESNT_EXIST", "that user doesn't exist", "name"]]}}`)
			return
		}
		fmt.Fprintln(w, `{"json": {"errors": []}}`)
	default:
		http.NotFound(w, r)
	}
}

func testPlatform(t *testing.T) *RedditPlatform {
	srv := httptest.NewServer(http.HandlerFunc(fakeRedditHandler))
	t.Cleanup(srv.Close)
	rc := reddit.NewClient(reddit.Config{
		Host:              srv.URL,
		AuthHost:          srv.URL,
		ClientID:          "client1",
		ClientSecret:      "secret1",
		Username:          "mmbot",
		Password:          "password1",
		RequestsPerMinute: 60_000,
	})
	return &RedditPlatform{
		Client:    rc,
		Subreddit: "test",
		Logger:    slog.Default(),
	}
}

func TestPlatformModLog(t *testing.T) {
	assert := assert.New(t)
	p := testPlatform(t)

	events, err := p.ModLog(context.Background(), engine.ActionEditFlair, 100)
	assert.NoError(err)
	if assert.Equal(1, len(events)) {
		evt := events[0]
		assert.Equal("ModAction_1", evt.ID)
		assert.Equal("abc123", evt.PostID())
		assert.Equal("someone", evt.TargetAuthor)
		assert.Equal(int64(1700000000), evt.CreatedAt.Unix())
	}
}

func TestPlatformPost(t *testing.T) {
	assert := assert.New(t)
	p := testPlatform(t)

	post, err := p.Post(context.Background(), "abc123")
	assert.NoError(err)
	if assert.NotNil(post) {
		assert.Equal("someone", post.AuthorName)
		assert.Equal("reddit", post.RemovalCategory)
		assert.True(post.Removed)
	}
}

func TestPlatformBanNoop(t *testing.T) {
	assert := assert.New(t)
	p := testPlatform(t)

	assert.NoError(p.BanUser(context.Background(), "someone", "spam bot"))
	// deleted account: nothing to do, and not an error
	assert.NoError(p.BanUser(context.Background(), "ghost", "spam bot"))
}
