/*
Package broker coordinates exchanging third-party identity tokens for
application session tokens.

A Broker is the one authority on when to (re-)authenticate. It gates every
exchange behind the liveness prober, de-duplicates concurrent authentication
attempts into a single in-flight exchange, and bounds how long anyone waits on
it. Session state is observable through Status, IsAuthenticated and AuthErr;
authenticated calls go through Client. Nothing outside this package reads or
writes the session token store directly.

The session moves Unauthenticated -> Authenticated when the identity session
is live and an exchange succeeds, and back on a 401/403 or when the identity
session ends. Demo is a distinct state entered only through the backend's
explicit demo-mode flag.
*/
package broker
