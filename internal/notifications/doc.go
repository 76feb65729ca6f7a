// Package notifications reports finished exports to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers always hold a usable Service. Only terminal outcomes are delivered;
// cancellations are user initiated and stay silent.
package notifications
