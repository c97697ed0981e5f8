// Package google provides OAuth2 configuration and token management for the
// Gmail API.
//
// The web flow (serve command) hands tokens back to the browser as cookies;
// the CLI flow (process command) caches them in a file under the user cache
// directory. Both flows share the same oauth2.Config built from environment
// variables.
package google
