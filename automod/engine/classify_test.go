package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIgnoresNonPostEvents(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := EngineTestFixture()

	// user-flair edit: no permalink
	evt := ModerationEvent{ID: "ModAction_1", Action: ActionEditFlair, TargetAuthor: "someone"}
	dec, err := eng.Classify(ctx, evt)
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
	assert.Equal("not-post", dec.Reason)

	// some other mod action
	evt = FlairEditEvent("ModAction_2", "abc123", "someone")
	evt.Action = "approvelink"
	dec, err = eng.Classify(ctx, evt)
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)

	// comment target
	evt = FlairEditEvent("ModAction_3", "abc123", "someone")
	evt.TargetID = "t1_xyz"
	dec, err = eng.Classify(ctx, evt)
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
}

func TestClassifyRemovedPost(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "someone"))
	assert.NoError(err)
	assert.Equal(DecisionEscalate, dec.Kind)
	assert.Equal("someone", dec.Author)
	assert.Equal(0, dec.Prior.Count)

	// case-insensitive prefix
	platform.Posts["abc124"] = &Post{ID: "abc124", AuthorName: "someone", LinkFlairText: "removed - rule 3"}
	dec, err = eng.Classify(ctx, FlairEditEvent("ModAction_2", "abc124", "someone"))
	assert.NoError(err)
	assert.Equal(DecisionEscalate, dec.Kind)
}

func TestClassifyQualityPostIgnored(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Quality post"}
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "someone"))
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
	assert.Equal("not-removed", dec.Reason)
}

func TestClassifySpamBot(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	// explicit label, even with existing strikes
	platform.Flairs["spammer1"] = "2s aaa111 bbb222"
	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "spammer1", LinkFlairText: "spam bot"}
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "spammer1"))
	assert.NoError(err)
	assert.Equal(DecisionSpamBan, dec.Kind)
	assert.Equal("spammer1", dec.Author)

	// platform spam filter removal category preempts strike logic
	platform.Posts["abc124"] = &Post{ID: "abc124", AuthorName: "spammer2", LinkFlairText: "Removed: spam", RemovalCategory: "reddit", Removed: true}
	dec, err = eng.Classify(ctx, FlairEditEvent("ModAction_2", "abc124", "spammer2"))
	assert.NoError(err)
	assert.Equal(DecisionSpamBan, dec.Kind)

	// no author identity: can't ban
	platform.Posts["abc125"] = &Post{ID: "abc125", AuthorName: "[deleted]", LinkFlairText: "Spam Bot"}
	dec, err = eng.Classify(ctx, FlairEditEvent("ModAction_3", "abc125", "[deleted]"))
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
}

func TestClassifyDedupe(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	assert.NoError(eng.Seen.Record(ctx, "abc123"))
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "someone"))
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
	assert.Equal("already-processed", dec.Reason)

	// post already recorded in the author's strike flair (eg, crash before seen store was updated)
	platform.Flairs["other"] = "1s def456"
	platform.Posts["def456"] = &Post{ID: "def456", AuthorName: "other", LinkFlairText: "Removed: spam"}
	dec, err = eng.Classify(ctx, FlairEditEvent("ModAction_2", "def456", "other"))
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
	assert.Equal("already-in-flair", dec.Reason)
}

func TestClassifyMalformedFlair(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Flairs["someone"] = "Trusted Member"
	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "someone", LinkFlairText: "Removed: spam"}
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "someone"))
	assert.NoError(err)
	assert.Equal(DecisionEscalate, dec.Kind)
	assert.Equal(0, dec.Prior.Count)
	assert.Empty(dec.Prior.PostIDs)
}

func TestClassifyExemptUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, platform := EngineTestFixture()

	platform.Posts["abc123"] = &Post{ID: "abc123", AuthorName: "AutoModerator", LinkFlairText: "Removed: spam"}
	dec, err := eng.Classify(ctx, FlairEditEvent("ModAction_1", "abc123", "AutoModerator"))
	assert.NoError(err)
	assert.Equal(DecisionIgnore, dec.Kind)
	assert.Equal("exempt", dec.Reason)
}
