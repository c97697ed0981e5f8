// Package triage implements the inbox processing pipeline: list unread
// messages that do not yet carry a managed category label, classify each one,
// ensure the matching label exists, and apply it while clearing the unread
// marker.
//
// Messages are handled strictly one at a time in listing order. A failure
// inside one message's pipeline is caught at the per-message boundary and
// recorded as a failed Result; it never aborts the batch. Only a failure of
// the listing itself is returned as an error.
package triage
