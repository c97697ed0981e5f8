// Package gmail provides Gmail API integration for inbox triage.
//
// The package wraps the Gmail Users service with the operations the pipeline
// needs: listing unread messages by search query, fetching message detail
// with plain-text body extraction, ensuring managed labels exist, and
// applying a label while clearing the unread marker in one modify call.
//
// Clients are constructed per request from an OAuth token source; the package
// holds no process-wide state.
package gmail
