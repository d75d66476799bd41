/*
Package main provides a toy example use of the session broker.

A stub authorization backend runs in-process; the broker exchanges a static
identity token against it and dispatches an authenticated call.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"

	"github.com/costtrail/authbroker"
	"github.com/costtrail/authbroker/broker"
	"github.com/costtrail/authbroker/identity"
)

func main() {
	env := authbroker.EnvVarOrEnv("ENVIRONMENT", authbroker.Development)
	if !env.CanUseStubBackend() {
		panic(fmt.Sprintf("%s cannot run against the stub backend", env))
	}

	backend := httptest.NewServer(stubBackend(authbroker.EnvVarOrBool("DEMO_MODE", false)))
	defer backend.Close()

	b, err := broker.New(
		broker.WithBaseURL(backend.URL),
		broker.WithEnv(env),
		broker.WithIdentitySource(identity.StaticSource{
			Token: authbroker.IdentityToken("idtok-abc"),
			State: identity.StatusAuthenticated,
		}),
	)
	if err != nil {
		panic(err)
	}

	// the identity session just turned authenticated
	b.HandleSessionChange(identity.StatusAuthenticated)

	tok, err := b.EnsureAuthenticated(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println("session:", tok, "status:", b.Status())

	res, err := b.Client().Get(backend.URL + "/api/expenses")
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	fmt.Println("expenses:", string(body))
}
