// Strike-escalation moderation engine for a single subreddit.
//
// Moderators label removed posts with post flair (eg, "Removed: spam"). For each such flair edit in the moderation log, the engine records a strike in the author's user flair (eg, "2s abc123 def456"), and bans the author when the strike count reaches a threshold, notifying them by modmail. Posts from spam-bot accounts (by flair label, or the platform spam filter) result in an immediate ban instead. A seen store of processed posts, plus the post IDs kept in strike flair, make replaying the same events harmless.
//
// See `cmd/mmb` for a daemon built on this package, and `automod/consumer` for the moderation log poller.
package engine
