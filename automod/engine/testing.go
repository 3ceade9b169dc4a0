package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mildlymodbot/mmb/automod/cachestore"
	"github.com/mildlymodbot/mmb/automod/countstore"
	"github.com/mildlymodbot/mmb/automod/seenstore"
	"github.com/mildlymodbot/mmb/automod/setstore"
)

type MockModmail struct {
	To      string
	Subject string
	Body    string
}

// In-memory Platform for tests. Records every side effect. Intentionally exported, for use in other packages.
type MockPlatform struct {
	lk sync.Mutex

	Flairs map[string]string
	Posts  map[string]*Post

	FlairWrites []string
	Removed     []string
	Bans        []string
	Replies     map[string]string
	Modmails    []MockModmail

	// failure injection
	BanFailures  int
	BanErr       error
	SetFlairErr  error
	ModmailErr   error
	ReplyErr     error
	UserFlairErr error
}

var _ Platform = (*MockPlatform)(nil)

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		Flairs:  make(map[string]string),
		Posts:   make(map[string]*Post),
		Replies: make(map[string]string),
	}
}

func (p *MockPlatform) UserFlair(ctx context.Context, user string) (string, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.UserFlairErr != nil {
		return "", p.UserFlairErr
	}
	return p.Flairs[user], nil
}

func (p *MockPlatform) SetUserFlair(ctx context.Context, user, text string) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.SetFlairErr != nil {
		return p.SetFlairErr
	}
	p.Flairs[user] = text
	p.FlairWrites = append(p.FlairWrites, user)
	return nil
}

func (p *MockPlatform) Post(ctx context.Context, postID string) (*Post, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	post, ok := p.Posts[postID]
	if !ok {
		return nil, fmt.Errorf("post not found: %s", postID)
	}
	cp := *post
	return &cp, nil
}

func (p *MockPlatform) RemovePost(ctx context.Context, postID string) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	if post, ok := p.Posts[postID]; ok {
		post.Removed = true
		if post.RemovalCategory == "" {
			post.RemovalCategory = "moderator"
		}
	}
	p.Removed = append(p.Removed, postID)
	return nil
}

func (p *MockPlatform) BanUser(ctx context.Context, user, reason string) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.BanErr != nil {
		return p.BanErr
	}
	if p.BanFailures > 0 {
		p.BanFailures--
		return fmt.Errorf("transient ban failure")
	}
	p.Bans = append(p.Bans, user)
	return nil
}

func (p *MockPlatform) ReplyAndDistinguish(ctx context.Context, postID, text string) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.ReplyErr != nil {
		return p.ReplyErr
	}
	p.Replies[postID] = text
	return nil
}

func (p *MockPlatform) SendModmail(ctx context.Context, to, subject, body string) error {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.ModmailErr != nil {
		return p.ModmailErr
	}
	p.Modmails = append(p.Modmails, MockModmail{To: to, Subject: subject, Body: body})
	return nil
}

// Number of side effects (flair writes, removals, bans, replies, modmails) recorded so far.
func (p *MockPlatform) SideEffects() int {
	p.lk.Lock()
	defer p.lk.Unlock()
	return len(p.FlairWrites) + len(p.Removed) + len(p.Bans) + len(p.Replies) + len(p.Modmails)
}

// Engine with in-memory stores and a mock platform, for tests.
func EngineTestFixture() (*Engine, *MockPlatform) {
	platform := NewMockPlatform()
	sets := setstore.NewMemSetStore()
	sets.Add(ExemptUsersSet, "automoderator")
	eng := Engine{
		Logger:        slog.Default(),
		Platform:      platform,
		Policy:        DefaultPolicy("mildlyinteresting"),
		Seen:          seenstore.NewMemSeenStore(),
		Counters:      countstore.NewMemCountStore(),
		Cache:         cachestore.NewMemCacheStore(100, time.Hour),
		Sets:          sets,
		BanAttempts:   3,
		BanRetryDelay: time.Millisecond,
	}
	return &eng, platform
}

// Helper for building a flair-edit event targeting a post.
func FlairEditEvent(id, postID, author string) ModerationEvent {
	return ModerationEvent{
		ID:              id,
		Action:          ActionEditFlair,
		CreatedAt:       time.Now(),
		Moderator:       "somemod",
		TargetAuthor:    author,
		TargetID:        "t3_" + postID,
		TargetPermalink: fmt.Sprintf("/r/mildlyinteresting/comments/%s/", postID),
	}
}
