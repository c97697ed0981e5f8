package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the Google OAuth scopes the triage service requires.
//
// The scopes provide access to:
//   - gmail.modify: read messages, apply labels, mark messages read
//   - gmail.labels: list and create labels
var DefaultOAuthScopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
}
