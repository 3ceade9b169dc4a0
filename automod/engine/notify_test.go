package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mildlymodbot/mmb/automod/strikes"

	"github.com/stretchr/testify/assert"
)

func TestComposeBanMessage(t *testing.T) {
	assert := assert.New(t)

	state, err := strikes.Decode("3s abc123 def456 ghi789")
	assert.NoError(err)
	subject, body := ComposeBanMessage("mildlyinteresting", "someone", state)
	assert.Equal("You have been banned from r/mildlyinteresting", subject)
	assert.True(strings.HasPrefix(body, "Hi u/someone,"))
	assert.Contains(body, "after receiving 3 strikes")
	assert.Contains(body, "1. [abc123](https://redd.it/abc123)\n2. [def456](https://redd.it/def456)\n3. [ghi789](https://redd.it/ghi789)\n")
	assert.Contains(body, "https://www.reddit.com/r/mildlyinteresting/about/rules")
}

func TestSlackNotification(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body SlackWebhookBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		got = append(got, body.Text)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	eng, platform := EngineTestFixture()
	eng.SlackWebhookURL = srv.URL

	platform.Flairs["someone"] = "2s abc123 def456"
	platform.Posts["ghi789"] = &Post{ID: "ghi789", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone")))

	assert.Equal(1, len(got))
	assert.Contains(got[0], "after 3 strikes")
	assert.Contains(got[0], "<https://redd.it/ghi789|ghi789>")
}

func TestBanQuotaAlert(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	alerts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body SlackWebhookBody
		json.NewDecoder(r.Body).Decode(&body)
		if strings.Contains(body.Text, "more than") {
			alerts++
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	prior := QuotaBansDay
	QuotaBansDay = 2
	defer func() { QuotaBansDay = prior }()

	eng, platform := EngineTestFixture()
	eng.SlackWebhookURL = srv.URL
	for _, user := range []string{"spam1", "spam2", "spam3", "spam4"} {
		id := "p" + user
		platform.Posts[id] = &Post{ID: id, AuthorName: user, LinkFlairText: "Spam Bot"}
		assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_"+id, id, user)))
	}
	// quota doesn't block bans, and alerts once
	assert.Equal(4, len(platform.Bans))
	assert.Equal(1, alerts)
}
