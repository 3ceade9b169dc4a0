/*
Minimal client for the subset of the Reddit HTTP API used for subreddit moderation.

[Client] wraps an [http.Client] (typically [util.RobustHTTPClient], which retries 5xx and 429 responses) and adds OAuth2 bearer tokens, a client-side rate limit, and decoding of Reddit's several error formats into [APIError]. Authentication uses the "script app" password grant ([PasswordAuth]); tokens are fetched lazily and refreshed shortly before expiry, or on a 401 response.

A client configured without account credentials can not act as a moderator; [Client.CheckReadWrite] returns [ErrReadOnly] in that case, so daemons can fail fast at startup.
*/
package reddit
