package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineFirstStrike(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "someone")))

	assert.Equal("1s abc123", platform.Flairs["someone"])
	assert.Equal([]string{"abc123"}, platform.Removed)
	assert.Empty(platform.Bans)
	assert.Empty(platform.Modmails)

	seen, err := eng.Seen.Has(ctx, "abc123")
	assert.NoError(err)
	assert.True(seen)
}

func TestEngineAlreadyRemovedPostNotRemovedAgain(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam", RemovalCategory: "moderator", Removed: true}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "someone")))
	assert.Equal("1s abc123", platform.Flairs["someone"])
	assert.Empty(platform.Removed)
}

func TestEngineThirdStrikeBans(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Flairs["someone"] = "2s abc123 def456"
	platform.Posts["ghi789"] = &Post{ID: "ghi789", AuthorName: "someone", LinkFlairText: "Removed: low effort"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone")))

	assert.Equal("3s abc123 def456 ghi789", platform.Flairs["someone"])
	assert.Equal([]string{"someone"}, platform.Bans)
	assert.Equal(1, len(platform.Modmails))
	mm := platform.Modmails[0]
	assert.Equal("someone", mm.To)
	for _, id := range []string{"abc123", "def456", "ghi789"} {
		assert.True(strings.Contains(mm.Body, "https://redd.it/"+id), id)
	}
}

func TestEngineReplayIsNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	evt := FlairEditEvent("ModAction_1", "abc123", "someone")
	assert.NoError(eng.ProcessEvent(ctx, evt))
	before := platform.SideEffects()

	for i := 0; i < 3; i++ {
		assert.NoError(eng.ProcessEvent(ctx, evt))
	}
	assert.Equal(before, platform.SideEffects())
	assert.Equal("1s abc123", platform.Flairs["someone"])
}

func TestEngineQualityPostNoEffects(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Quality post"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "someone")))
	assert.Equal(0, platform.SideEffects())

	seen, err := eng.Seen.Has(ctx, "abc123")
	assert.NoError(err)
	assert.False(seen)
}

func TestEngineSpamBan(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Flairs["spammer1"] = "1s aaa111"
	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "spammer1", LinkFlairText: "Spam Bot"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "spammer1")))

	assert.Equal([]string{"spammer1"}, platform.Bans)
	assert.Equal([]string{"abc123"}, platform.Removed)
	assert.Equal(SpamReplyText, platform.Replies["abc123"])
	// flair untouched
	assert.Empty(platform.FlairWrites)
	assert.Equal("1s aaa111", platform.Flairs["spammer1"])

	seen, err := eng.Seen.Has(ctx, "abc123")
	assert.NoError(err)
	assert.True(seen)

	// a second post from the same account doesn't hit the ban API again
	platform.Posts["abc124"] = &Post{ID: "abc124", AuthorName: "spammer1", LinkFlairText: "Spam Bot"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_2", "abc124", "spammer1")))
	assert.Equal([]string{"spammer1"}, platform.Bans)
	assert.Equal([]string{"abc123", "abc124"}, platform.Removed)
}

func TestEngineSpamReplyFailureIsNotFatal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.ReplyErr = errors.New("comment failed")
	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "spammer1", RemovalCategory: "reddit", Removed: true}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "spammer1")))
	assert.Equal([]string{"spammer1"}, platform.Bans)
	// already removed by the spam filter
	assert.Empty(platform.Removed)
}

func TestEngineBanRetries(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.BanFailures = 2
	platform.Flairs["someone"] = "2s abc123 def456"
	platform.Posts["ghi789"] = &Post{ID: "ghi789", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone")))
	assert.Equal([]string{"someone"}, platform.Bans)
}

func TestEngineBanFailureIsSurfaced(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.BanErr = errors.New("permission denied")
	platform.Flairs["someone"] = "2s abc123 def456"
	platform.Posts["ghi789"] = &Post{ID: "ghi789", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	err := eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone"))
	assert.Error(err)
	assert.True(errors.Is(err, ErrBanFailed))

	// not marked processed, and no notification
	seen, err := eng.Seen.Has(ctx, "ghi789")
	assert.NoError(err)
	assert.False(seen)
	assert.Empty(platform.Modmails)

	// the flair already lists the post, so a replay neither strikes again nor bans
	platform.BanErr = nil
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone")))
	assert.Equal("3s abc123 def456 ghi789", platform.Flairs["someone"])
	assert.Equal(1, len(platform.FlairWrites))
	assert.Empty(platform.Bans)
	assert.Empty(platform.Modmails)
}

func TestEngineReplayAfterRestartIsNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	for _, id := range []string{"aaa111", "bbb222", "ccc333"} {
		platform.Posts[id] = &Post{ID: id, AuthorName: "someone", LinkFlairText: "Removed: rule 1"}
		assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_"+id, id, "someone")))
	}
	assert.Equal("3s aaa111 bbb222 ccc333", platform.Flairs["someone"])
	assert.Equal([]string{"someone"}, platform.Bans)
	before := platform.SideEffects()

	// empty seen store and ban cache, same platform state
	restarted, _ := EngineTestFixture()
	restarted.Platform = platform
	for _, id := range []string{"ccc333", "aaa111", "bbb222"} {
		assert.NoError(restarted.ProcessEvent(ctx, FlairEditEvent("ModAction_"+id, id, "someone")))
	}
	assert.Equal(before, platform.SideEffects())
	assert.Equal([]string{"someone"}, platform.Bans)
	assert.Equal(1, len(platform.Modmails))
	assert.Equal("3s aaa111 bbb222 ccc333", platform.Flairs["someone"])
}

func TestEngineFlairFailureNotRecorded(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.SetFlairErr = errors.New("flair write failed")
	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.Error(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "someone")))

	seen, err := eng.Seen.Has(ctx, "abc123")
	assert.NoError(err)
	assert.False(seen)

	// retry succeeds once the platform recovers
	platform.SetFlairErr = nil
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "abc123", "someone")))
	assert.Equal("1s abc123", platform.Flairs["someone"])
}

func TestEngineModmailFailureIsNotFatal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.ModmailErr = errors.New("modmail down")
	platform.Flairs["someone"] = "2s abc123 def456"
	platform.Posts["ghi789"] = &Post{ID: "ghi789", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "ghi789", "someone")))
	assert.Equal([]string{"someone"}, platform.Bans)

	seen, err := eng.Seen.Has(ctx, "ghi789")
	assert.NoError(err)
	assert.True(seen)
}

func TestEnginePostLookupFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	// post missing from the mock platform
	assert.Error(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_1", "nope", "someone")))
	assert.Equal(0, platform.SideEffects())
}

func TestEngineSequentialStrikes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	for i, id := range []string{"aaa111", "bbb222", "ccc333"} {
		platform.Posts[id] = &Post{ID: id, AuthorName: "someone", LinkFlairText: "Removed: rule 1"}
		assert.NoError(eng.ProcessEvent(ctx, FlairEditEvent("ModAction_"+id, id, "someone")))
		if i < 2 {
			assert.Empty(platform.Bans)
		}
	}
	assert.Equal("3s aaa111 bbb222 ccc333", platform.Flairs["someone"])
	assert.Equal([]string{"someone"}, platform.Bans)
}
