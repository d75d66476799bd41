/*
Package client dispatches authenticated HTTP calls on behalf of the
surrounding application.

The Transport attaches the current session token as a bearer credential,
triggers the broker when no token is held, and revokes authorization when a
401 or 403 comes back. It deliberately does not retry anything: forms and
callers own their retry and fallback behavior.
*/
package client
