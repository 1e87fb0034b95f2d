// Package profilerouter exposes the profile site and its JSON endpoints on a
// go-router router.
//
// Visitors are identified by the X-Profile-Session header or the
// profile_session cookie; a missing id starts a new session and the cookie is
// set on the response.
package profilerouter
