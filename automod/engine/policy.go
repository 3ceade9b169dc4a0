package engine

import (
	"strings"

	"github.com/mildlymodbot/mmb/automod/strikes"
)

var (
	// number of bans per day after which moderators get an alert. bans are never skipped because of this.
	QuotaBansDay = 25
)

// Subreddit-specific moderation settings.
type Policy struct {
	Subreddit string
	// strike count at which the user is banned
	BanThreshold int
	// post flair marking a spam-bot submission (compared case-insensitively)
	SpamLabel string
	// prefix of post flair marking a removal, eg "Removed" matches "Removed: spam" (case-insensitive)
	RemovedPrefix string
	// post removal categories which indicate the platform's own spam filter
	SpamCategories []string
	// flair CSS class applied along with strike flair; optional
	FlairCSSClass string
}

func DefaultPolicy(subreddit string) Policy {
	return Policy{
		Subreddit:      subreddit,
		BanThreshold:   strikes.BanThreshold,
		SpamLabel:      "Spam Bot",
		RemovedPrefix:  "Removed",
		SpamCategories: []string{"reddit"},
	}
}

func (p *Policy) isSpamBot(post *Post) bool {
	if p.SpamLabel != "" && strings.EqualFold(strings.TrimSpace(post.LinkFlairText), p.SpamLabel) {
		return true
	}
	for _, c := range p.SpamCategories {
		if post.RemovalCategory != "" && post.RemovalCategory == c {
			return true
		}
	}
	return false
}

func (p *Policy) isRemoval(post *Post) bool {
	if p.RemovedPrefix == "" {
		return false
	}
	flair := strings.TrimSpace(post.LinkFlairText)
	return len(flair) >= len(p.RemovedPrefix) && strings.EqualFold(flair[:len(p.RemovedPrefix)], p.RemovedPrefix)
}

func (p *Policy) banThreshold() int {
	if p.BanThreshold <= 0 {
		return strikes.BanThreshold
	}
	return p.BanThreshold
}
