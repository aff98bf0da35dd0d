// Package ratelimit throttles requests per client and operation class with
// fixed-window counters.
//
// A counter admits up to Rule.Limit requests; once the window has elapsed the
// next request starts a fresh window. Counters for different (client, class)
// pairs never contend with each other. Decisions can be mirrored to a
// StatsStore for observability; recording never influences a decision.
package ratelimit
