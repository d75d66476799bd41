package identity

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/costtrail/authbroker"
)

// A GoogleProvider adapts Google sign-in into a Source.
//
// It completes the authorization-code flow and surfaces the resulting ID token
// as the identity token handed to the exchanger. The provider does not verify
// the ID token itself; downstream validation is the authorization backend's
// responsibility.
type GoogleProvider struct {
	config *oauth2.Config

	mu     sync.Mutex
	token  *oauth2.Token
	idTok  authbroker.IdentityToken
	status Status
}

func NewGoogleProvider(googleClient, googleSecret, redirectURL string) (*GoogleProvider, error) {
	if googleClient == "" || googleSecret == "" {
		return nil, fmt.Errorf(`%w: config cannot be ""`, authbroker.ErrBadConfig)
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     googleClient,
			ClientSecret: googleSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{goauth2.UserinfoEmailScope, "openid"},
			Endpoint:     google.Endpoint,
		},
		status: StatusUnauthenticated,
	}, nil
}

// AuthCodeURL returns the URL the user visits to begin Google sign-in.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Authorize completes sign-in with the code from Google's redirect.
//
// On success the provider holds the ID token and reports StatusAuthenticated.
func (p *GoogleProvider) Authorize(ctx context.Context, code string) error {
	p.mu.Lock()
	p.status = StatusLoading
	p.mu.Unlock()

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		p.signOut()
		return fmt.Errorf("%w: %s", authbroker.ErrUnknown, err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		p.signOut()
		return authbroker.ErrNoIdentityToken
	}

	p.mu.Lock()
	p.token = tok
	p.idTok = authbroker.IdentityToken(raw)
	p.status = StatusAuthenticated
	p.mu.Unlock()

	return nil
}

func (p *GoogleProvider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *GoogleProvider) IdentityToken(_ context.Context) (authbroker.IdentityToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusAuthenticated {
		return "", authbroker.ErrNoIdentityToken
	}

	return p.idTok, nil
}

// FetchUser retrieves the signed-in user's profile for display purposes.
func (p *GoogleProvider) FetchUser(ctx context.Context) (*goauth2.Userinfo, error) {
	p.mu.Lock()
	tok := p.token
	p.mu.Unlock()

	if tok == nil {
		return nil, authbroker.ErrNoIdentityToken
	}

	service, err := goauth2.NewService(ctx, option.WithTokenSource(p.config.TokenSource(ctx, tok)))
	if err != nil {
		return nil, err
	}

	user, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, err
	}

	return user, nil
}

// SignOut ends the identity session and drops the held tokens.
func (p *GoogleProvider) SignOut() { p.signOut() }

func (p *GoogleProvider) signOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
	p.idTok = ""
	p.status = StatusUnauthenticated
}
