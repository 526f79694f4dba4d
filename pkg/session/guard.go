package session

import (
	"context"

	"github.com/rs/zerolog"
)

// NavigationType distinguishes how the current page load started.
type NavigationType int

const (
	// Navigate is a fresh navigation (link, address bar).
	Navigate NavigationType = iota

	// Reload is a user-initiated refresh.
	Reload

	// BackForward is a history traversal.
	BackForward
)

// String returns the navigation type name.
func (t NavigationType) String() string {
	switch t {
	case Navigate:
		return "navigate"
	case Reload:
		return "reload"
	case BackForward:
		return "back_forward"
	default:
		return "unknown"
	}
}

// Timing is the navigation-timing input read at startup.
type Timing struct {
	Type     NavigationType
	Referrer string
}

// AuthClient is the external authentication provider.
type AuthClient interface {
	SignOut(ctx context.Context) error
}

// Wiper clears all local data. Implementations must preserve the
// Remember-Me credential.
type Wiper interface {
	ClearAll(ctx context.Context) error
}

// Navigator forces a hard navigation to a route.
type Navigator interface {
	Navigate(route string)
}

// StorageWiper wipes a Local store, preserving Remember-Me.
type StorageWiper struct {
	Store Local
}

func (w StorageWiper) ClearAll(ctx context.Context) error {
	return ClearPreservingRememberMe(w.Store)
}

// Outcome is the guard's terminal state for one page load.
type Outcome int

const (
	// Normal lets the application render untouched.
	Normal Outcome = iota

	// Refreshing means credentials were wiped and a hard navigation to
	// the login route was forced.
	Refreshing
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Refreshing {
		return "refreshing"
	}
	return "normal"
}

// DefaultLoginRoute is where the guard navigates after a wipe.
const DefaultLoginRoute = "/login"

// Guard decides once per page load whether a hard reload of an
// authenticated session must force a credential wipe and re-login.
// It runs exactly once; both outcomes are terminal until the next load.
type Guard struct {
	auth       AuthClient
	wiper      Wiper
	nav        Navigator
	flags      Local // session-scoped, survives the wipe
	local      Local // persistent storage holding the session mirror
	loginRoute string
	logger     zerolog.Logger
}

// GuardConfig holds guard collaborators.
type GuardConfig struct {
	Auth       AuthClient
	Wiper      Wiper
	Navigator  Navigator
	Flags      Local
	Local      Local
	LoginRoute string
	Logger     zerolog.Logger
}

// NewGuard creates a bootstrap guard.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = DefaultLoginRoute
	}
	return &Guard{
		auth:       cfg.Auth,
		wiper:      cfg.Wiper,
		nav:        cfg.Navigator,
		flags:      cfg.Flags,
		local:      cfg.Local,
		loginRoute: cfg.LoginRoute,
		logger:     cfg.Logger,
	}
}

// wasAuthenticated checks the session flag first, then falls back to
// the mirrored token bundle.
func (g *Guard) wasAuthenticated() bool {
	if v, ok := g.flags.Get(FlagWasAuthenticated); ok && v == "true" {
		return true
	}
	snap, err := Load(g.local)
	if err != nil {
		return false
	}
	return snap.AccessToken != ""
}

// Run executes the guard: Checking, then either Refreshing (wipe and
// redirect) or Normal. The refresh branch is fail-safe toward wiping:
// collaborator errors are absorbed and the navigation happens anyway.
func (g *Guard) Run(ctx context.Context, timing Timing) Outcome {
	_, redirectInProgress := g.flags.Get(FlagRefreshDetected)
	authenticated := g.wasAuthenticated()

	g.logger.Debug().
		Str("navigation", timing.Type.String()).
		Bool("redirect_in_progress", redirectInProgress).
		Bool("authenticated", authenticated).
		Msg("Bootstrap guard checking")

	if timing.Type != Reload || redirectInProgress || !authenticated {
		// Idempotent: clearing an absent flag is a no-op.
		_ = g.flags.Delete(FlagRefreshDetected)
		return Normal
	}

	g.logger.Info().Msg("Reload of authenticated session detected, wiping credentials")
	if err := g.flags.Set(FlagRefreshDetected, "true"); err != nil {
		g.logger.Error().Err(err).Msg("Failed to set redirect flag")
	}

	if err := g.auth.SignOut(ctx); err != nil {
		g.logger.Error().Err(err).Msg("Sign-out failed during wipe")
	}
	if err := g.wiper.ClearAll(ctx); err != nil {
		g.logger.Error().Err(err).Msg("Clear-data failed during wipe")
	}
	_ = g.flags.Delete(FlagWasAuthenticated)

	// Navigate regardless of collaborator failures: stale credentials
	// are the worse outcome.
	g.nav.Navigate(g.loginRoute)
	return Refreshing
}

// MarkSignedIn records that a user authenticated this session.
func (g *Guard) MarkSignedIn() {
	_ = g.flags.Set(FlagWasAuthenticated, "true")
}

// MarkSignedOut clears the session authentication markers.
func (g *Guard) MarkSignedOut() {
	_ = g.flags.Delete(FlagWasAuthenticated)
	_ = g.flags.Delete(FlagRefreshDetected)
}
