// Automod component for remembering which posts have already been actioned, so that replayed moderation-log events are not processed twice.
//
// Includes an interface and implementations using in-process memory, redis, and an SQL database (via gorm). Only the redis and SQL implementations survive a restart. Records are never evicted.
package seenstore
