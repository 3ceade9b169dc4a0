// Automod component for short-lived cached values, with a fixed TTL and purging.
//
// Includes an interface and implementations using redis and in-process memory. The engine uses it to remember accounts it has just banned, so that a spam account with many queued posts doesn't trigger one ban API call per post.
package cachestore
