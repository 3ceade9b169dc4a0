package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mildlymodbot/mmb/automod/strikes"
)

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (eng *Engine) SendSlackMsg(ctx context.Context, msg string) error {
	// loosely based on: https://golangcode.com/send-slack-messages-without-a-library/

	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eng.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := http.DefaultClient
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

// no-op if slack isn't configured; errors are only logged
func (eng *Engine) notifySlack(ctx context.Context, msg string) {
	if eng.SlackWebhookURL == "" {
		return
	}
	if err := eng.SendSlackMsg(ctx, msg); err != nil {
		eng.Logger.Error("sending slack webhook", "err", err)
	}
}

func slackStrikeBanBody(subreddit, user string, state strikes.FlairState) string {
	msg := "⚠️ mmb Strike Ban ⚠️\n"
	msg += fmt.Sprintf("<https://www.reddit.com/user/%s|u/%s> banned from r/%s after %d strikes\n", user, user, subreddit, state.Count)
	links := make([]string, 0, len(state.PostIDs))
	for _, id := range state.PostIDs {
		links = append(links, fmt.Sprintf("<https://redd.it/%s|%s>", id, id))
	}
	msg += fmt.Sprintf("Posts: %s\n", strings.Join(links, ", "))
	return msg
}

func slackSpamBanBody(subreddit, user string, post *Post) string {
	msg := "⚠️ mmb Spam Ban ⚠️\n"
	msg += fmt.Sprintf("<https://www.reddit.com/user/%s|u/%s> banned from r/%s as a spam bot\n", user, user, subreddit)
	msg += fmt.Sprintf("Post: <https://redd.it/%s|%s>", post.ID, post.ID)
	if post.RemovalCategory != "" {
		msg += fmt.Sprintf(" (removed by: `%s`)", post.RemovalCategory)
	}
	msg += "\n"
	return msg
}
