package engine

import (
	"fmt"
	"strings"

	"github.com/mildlymodbot/mmb/automod/strikes"
)

// Reason recorded with bans of spam-bot accounts.
const SpamBanReason = "spam bot"

// Fixed moderator reply on posts from spam-bot accounts.
const SpamReplyText = "This post has been removed and its author banned, because the account matches a known spam-bot pattern.\n\n" +
	"If you are a human and think this is a mistake, please message the moderators.\n\n" +
	"*I am a bot, and this action was performed automatically.*"

// Composes the modmail sent to a user who was banned for reaching the strike threshold. Lists every offending post, oldest first.
func ComposeBanMessage(subreddit, user string, state strikes.FlairState) (subject, body string) {
	subject = fmt.Sprintf("You have been banned from r/%s", subreddit)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi u/%s,\n\n", user)
	fmt.Fprintf(&b, "You have been banned from r/%s after receiving %d strikes. Each strike was issued for a post which the moderators removed:\n\n", subreddit, state.Count)
	for i, id := range state.PostIDs {
		fmt.Fprintf(&b, "%d. [%s](https://redd.it/%s)\n", i+1, id, id)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Please review the [community rules](https://www.reddit.com/r/%s/about/rules) before posting in any community. ", subreddit)
	b.WriteString("You can reply to this message if you would like to appeal the ban.\n\n")
	b.WriteString("*I am a bot, and this action was performed automatically.*")
	return subject, b.String()
}
