/*
Package identity supplies the broker with identity tokens from third-party
sign-in providers.

The provider's own protocol is treated as an opaque capability: a Source only
reports the session status and hands out the current identity token. The
GoogleProvider adapts Google's authorization-code flow; StaticSource covers
CLIs and tests that already hold a token.
*/
package identity
