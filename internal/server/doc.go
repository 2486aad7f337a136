// Package server provides HTTP routing, middleware, and the OAuth callback
// handler backing terminal sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization-code callback flow.
// The handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay.
//
// # Current Usage
//
// When the user signs in, the auth service starts a temporary HTTP server on
// the configured localhost address, registers an [OAuthHandler], opens the
// provider's consent page in the browser, and shuts the server down after
// receiving the token.
package server
