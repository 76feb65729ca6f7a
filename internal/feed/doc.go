// Package feed is the progress/status event channel an export run publishes
// to. Observers never register callbacks on the run; they read from a Hub.
//
// Every event carries a hub-wide sequence number assigned under the hub
// lock, so events are delivered in exactly the order the controller
// published them. The hub keeps a bounded ring of recent events: Fetch
// long-polls past a sequence number, Tail returns the latest events, and
// Subscribe pumps Fetch into a channel for consumers that prefer ranging.
package feed
