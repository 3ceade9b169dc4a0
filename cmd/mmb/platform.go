package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mildlymodbot/mmb/automod/engine"
	"github.com/mildlymodbot/mmb/reddit"
)

// Adapts the reddit API client, scoped to a single subreddit, to what the engine and mod-log consumer need.
type RedditPlatform struct {
	Client        *reddit.Client
	Subreddit     string
	FlairCSSClass string
	Logger        *slog.Logger
}

var _ engine.Platform = (*RedditPlatform)(nil)

func (p *RedditPlatform) UserFlair(ctx context.Context, user string) (string, error) {
	return p.Client.UserFlair(ctx, p.Subreddit, user)
}

func (p *RedditPlatform) SetUserFlair(ctx context.Context, user, text string) error {
	return p.Client.SetUserFlair(ctx, p.Subreddit, user, text, p.FlairCSSClass)
}

func (p *RedditPlatform) Post(ctx context.Context, postID string) (*engine.Post, error) {
	link, err := p.Client.Link(ctx, postID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}
	return &engine.Post{
		ID:              link.ID,
		AuthorName:      link.Author,
		LinkFlairText:   link.LinkFlairText,
		RemovalCategory: link.RemovedByCategory,
		Removed:         link.IsRemoved(),
		Permalink:       link.Permalink,
	}, nil
}

func (p *RedditPlatform) RemovePost(ctx context.Context, postID string) error {
	return p.Client.Remove(ctx, reddit.LinkFullname(postID), false)
}

func (p *RedditPlatform) BanUser(ctx context.Context, user, reason string) error {
	err := p.Client.Ban(ctx, p.Subreddit, reddit.BanRequest{
		User:   user,
		Reason: reason,
		Note:   "mmb: " + reason,
	})
	if errors.Is(err, reddit.ErrBanNoop) {
		p.Logger.Info("ban had no effect, treating as done", "user", user, "err", err)
		return nil
	}
	return err
}

func (p *RedditPlatform) ReplyAndDistinguish(ctx context.Context, postID, text string) error {
	name, err := p.Client.Comment(ctx, reddit.LinkFullname(postID), text)
	if err != nil {
		return err
	}
	return p.Client.Distinguish(ctx, name, true)
}

func (p *RedditPlatform) SendModmail(ctx context.Context, to, subject, body string) error {
	_, err := p.Client.CreateModmail(ctx, reddit.ModmailRequest{
		Subreddit:    p.Subreddit,
		To:           to,
		Subject:      subject,
		Body:         body,
		AuthorHidden: true,
	})
	return err
}

// Implements consumer.ModLogSource. Entries are returned newest first.
func (p *RedditPlatform) ModLog(ctx context.Context, action string, limit int) ([]engine.ModerationEvent, error) {
	actions, err := p.Client.ModLog(ctx, p.Subreddit, reddit.ModLogQuery{Type: action, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]engine.ModerationEvent, 0, len(actions))
	for _, ma := range actions {
		out = append(out, engine.ModerationEvent{
			ID:              ma.ID,
			Action:          ma.Action,
			CreatedAt:       ma.CreatedAt(),
			Moderator:       ma.Mod,
			TargetAuthor:    ma.TargetAuthor,
			TargetID:        ma.TargetFullname,
			TargetPermalink: ma.TargetPermalink,
		})
	}
	return out, nil
}
