package server

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Cookie names for the browser session.
const (
	cookieAccessToken  = "access_token"
	cookieRefreshToken = "refresh_token"
)

// Cookie lifetimes. The access token cookie mirrors Google's one-hour access
// token lifetime; the refresh token cookie outlives it so the frontend can
// re-authenticate without a new consent round trip.
const (
	accessTokenMaxAge  = time.Hour
	refreshTokenMaxAge = 30 * 24 * time.Hour
)

// setAuthCookies stores the token pair as HTTP-only cookies. Secure is set
// from the request scheme so local development over plain HTTP still works.
func setAuthCookies(w http.ResponseWriter, r *http.Request, token *oauth2.Token) {
	secure := r.TLS != nil

	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccessToken,
		Value:    token.AccessToken,
		Path:     "/",
		MaxAge:   int(accessTokenMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if token.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieRefreshToken,
			Value:    token.RefreshToken,
			Path:     "/",
			MaxAge:   int(refreshTokenMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// accessTokenFromCookie returns the access token cookie value, or "".
func accessTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(cookieAccessToken)
	if err != nil {
		return ""
	}
	return c.Value
}
