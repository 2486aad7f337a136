package store

import (
	"context"

	"github.com/charmbracelet/log"

	"medialog/internal/models"
	"medialog/internal/services"
	"medialog/internal/shared"
)

// Gate connects the auth service to the media store. It owns no state of
// its own: session transitions arrive from the auth collaborator only, and
// the gate never initiates one.
type Gate struct {
	auth   services.Authenticator
	store  *MediaStore
	logger *log.Logger

	onSignedOut func()
	onLoadError func(error)
}

// NewGate creates a session gate wiring auth transitions to store lifecycle.
func NewGate(auth services.Authenticator, store *MediaStore, logger *log.Logger) *Gate {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Gate{auth: auth, store: store, logger: logger}
}

// OnSignedOut registers the UI navigation signal fired when the session
// transitions to unauthenticated.
func (g *Gate) OnSignedOut(fn func()) {
	g.onSignedOut = fn
}

// OnLoadError registers the handler for a failed collection load. The store
// is left empty in that case; the user recovers by reloading.
func (g *Gate) OnLoadError(fn func(error)) {
	g.onLoadError = fn
}

// Start subscribes to session changes. On sign-in the user's collection is
// loaded; on sign-out all store state is discarded and the signed-out
// signal fires. There are no retries: a failed load surfaces as an empty
// collection plus the load-error signal.
func (g *Gate) Start(ctx context.Context) {
	g.auth.OnSessionChange(func(session models.Session) {
		if !session.Authenticated() {
			g.store.Reset()
			if g.onSignedOut != nil {
				g.onSignedOut()
			}
			return
		}

		g.logger.Infof("session for %s, loading collection", session.Email)
		if _, err := g.store.Load(ctx, session); err != nil {
			g.logger.Errorf("collection load failed: %v", err)
			if g.onLoadError != nil {
				g.onLoadError(err)
			}
		}
	})
}
