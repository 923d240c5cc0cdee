package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/services"
	"github.com/desertthunder/faves/internal/shared"
)

// API is the subset of [services.APIService] the controller talks to.
type API interface {
	Me(ctx context.Context, token string) (*models.Identity, error)
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, creds models.Credentials) (string, error)
	Products(ctx context.Context) ([]models.Product, error)
	Favorites(ctx context.Context, token string, userID models.ID) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, token string, userID, productID models.ID) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, token string, userID, favoriteID models.ID) error
}

// TokenStore is the durable home of the session token, e.g. [repositories.TokenRepository].
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Event is the outcome of a finished [Task].
type Event interface {
	event()
}

// Task performs one network round-trip and reports its outcome.
type Task func(ctx context.Context) Event

// Controller owns [State] and turns user intents into Tasks.
//
// Controller is not safe for concurrent use. Tasks it returns are.
type Controller struct {
	api    API
	tokens TokenStore
	logger *log.Logger
	state  State

	identityEpoch uint64
	resolveSeq    uint64
	productsSeq   uint64
}

// NewController creates a Controller with an empty, logged-out state.
func NewController(api API, tokens TokenStore, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{api: api, tokens: tokens, logger: logger}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return c.state.clone()
}

// Start returns the tasks that run once when the client starts.
func (c *Controller) Start() []Task {
	return []Task{c.ResolveIdentity(), c.LoadProducts()}
}

// Run executes tasks one after another on the calling goroutine, applying each event and running follow-ups until
// none are left.
func (c *Controller) Run(ctx context.Context, tasks ...Task) {
	queue := slices.Clone(tasks)
	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]
		if task == nil {
			continue
		}
		queue = append(queue, c.Apply(task(ctx))...)
	}
}

type (
	identityResolved struct {
		seq      uint64
		identity *models.Identity
	}
	authSucceeded struct{ intent string }
	authFailed    struct {
		intent  string
		message string
	}
	productsLoaded struct {
		seq      uint64
		products []models.Product
		err      error
	}
	favoritesLoaded struct {
		epoch     uint64
		favorites []models.Favorite
		err       error
	}
	favoriteAdded struct {
		epoch    uint64
		favorite *models.Favorite
		err      error
	}
	favoriteRemoved struct {
		epoch uint64
		id    models.ID
		err   error
	}
)

func (identityResolved) event() {}
func (authSucceeded) event()    {}
func (authFailed) event()       {}
func (productsLoaded) event()   {}
func (favoritesLoaded) event()  {}
func (favoriteAdded) event()    {}
func (favoriteRemoved) event()  {}

// Apply folds a finished task's event into State and returns follow-up tasks.
func (c *Controller) Apply(ev Event) []Task {
	switch ev := ev.(type) {
	case identityResolved:
		if ev.seq != c.resolveSeq {
			c.logger.Debug("dropping superseded identity lookup", "seq", ev.seq, "current", c.resolveSeq)
			return nil
		}
		return c.setIdentity(ev.identity)

	case authSucceeded:
		c.logger.Info("authenticated", "via", ev.intent)
		return []Task{c.ResolveIdentity()}

	case authFailed:
		c.logger.Warn("authentication failed", "via", ev.intent, "error", ev.message)
		c.state.Message = ev.message

	case productsLoaded:
		if ev.seq != c.productsSeq {
			return nil
		}
		if ev.err != nil {
			c.logger.Warn("failed to load products", "error", ev.err)
			c.state.Message = fmt.Sprintf("failed to load products: %v", ev.err)
			return nil
		}
		c.state.Products = ev.products

	case favoritesLoaded:
		if ev.epoch != c.identityEpoch {
			c.logger.Debug("dropping favorites for a previous identity", "epoch", ev.epoch, "current", c.identityEpoch)
			return nil
		}
		if ev.err != nil {
			c.logger.Warn("failed to load favorites, keeping previous list", "error", ev.err)
			return nil
		}
		c.state.Favorites = ev.favorites

	case favoriteAdded:
		if ev.epoch != c.identityEpoch {
			return nil
		}
		if ev.err != nil {
			c.state.Message = ev.err.Error()
			return nil
		}
		// a reload that finished first may already hold the record
		i := slices.IndexFunc(c.state.Favorites, func(f models.Favorite) bool {
			return f.ProductID == ev.favorite.ProductID
		})
		if i >= 0 {
			c.state.Favorites[i] = *ev.favorite
			return nil
		}
		c.state.Favorites = append(c.state.Favorites, *ev.favorite)

	case favoriteRemoved:
		if ev.epoch != c.identityEpoch {
			return nil
		}
		if ev.err != nil {
			c.state.Message = ev.err.Error()
			return nil
		}
		c.state.Favorites = slices.DeleteFunc(c.state.Favorites, func(f models.Favorite) bool {
			return f.ID == ev.id
		})
	}
	return nil
}

// setIdentity records an identity transition. Favorites follow: fetched for a new identity, emptied when absent.
func (c *Controller) setIdentity(identity *models.Identity) []Task {
	if sameIdentity(c.state.Identity, identity) {
		if identity != nil {
			c.state.Identity = identity
		}
		return nil
	}

	c.identityEpoch++
	c.state.Identity = identity
	if identity != nil {
		c.logger.Info("identity resolved", "id", identity.ID, "username", identity.Username)
	}
	return []Task{c.LoadFavorites()}
}

func sameIdentity(a, b *models.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// ResolveIdentity looks up the identity behind the stored token.
//
// No token means no request. A token the server refuses is removed from the store, unless it was replaced in the
// meantime. A transport failure keeps the token.
func (c *Controller) ResolveIdentity() Task {
	c.resolveSeq++
	seq := c.resolveSeq

	return func(ctx context.Context) Event {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Error("failed to read stored token", "error", err)
			return identityResolved{seq: seq}
		}
		if token == "" {
			return identityResolved{seq: seq}
		}

		identity, err := c.api.Me(ctx, token)
		if err == nil {
			return identityResolved{seq: seq, identity: identity}
		}

		if !services.IsAPIError(err) {
			c.logger.Warn("identity lookup failed, keeping stored token", "error", err)
			return identityResolved{seq: seq}
		}

		c.logger.Info("stored token rejected, discarding it", "error", err)
		if current, _ := c.tokens.Token(ctx); current == token {
			if err := c.tokens.ClearToken(ctx); err != nil {
				c.logger.Error("failed to clear rejected token", "error", err)
			}
		}
		return identityResolved{seq: seq}
	}
}

// Login submits credentials to the login endpoint.
func (c *Controller) Login(creds models.Credentials) Task {
	return c.authenticate("login", c.api.Login, creds)
}

// Register submits credentials to the register endpoint.
func (c *Controller) Register(creds models.Credentials) Task {
	return c.authenticate("register", c.api.Register, creds)
}

func (c *Controller) authenticate(intent string, call func(context.Context, models.Credentials) (string, error), creds models.Credentials) Task {
	c.state.Message = ""

	return func(ctx context.Context) Event {
		token, err := call(ctx, creds)
		if err != nil {
			return authFailed{intent: intent, message: err.Error()}
		}
		if err := c.tokens.SetToken(ctx, token); err != nil {
			return authFailed{intent: intent, message: err.Error()}
		}
		return authSucceeded{intent: intent}
	}
}

// Logout forgets the session locally. In-flight identity lookups and favorites requests are invalidated.
func (c *Controller) Logout(ctx context.Context) error {
	c.state.Message = ""
	c.resolveSeq++

	err := c.tokens.ClearToken(ctx)
	if err != nil {
		c.logger.Error("failed to clear stored token", "error", err)
	}

	c.Run(ctx, c.setIdentity(nil)...)
	return err
}

// LoadProducts fetches the catalogue and replaces the local copy.
func (c *Controller) LoadProducts() Task {
	c.productsSeq++
	seq := c.productsSeq

	return func(ctx context.Context) Event {
		products, err := c.api.Products(ctx)
		return productsLoaded{seq: seq, products: products, err: err}
	}
}

// LoadFavorites fetches the current identity's favorites. Without an identity it empties the list and returns nil.
func (c *Controller) LoadFavorites() Task {
	if c.state.Identity == nil {
		c.state.Favorites = nil
		return nil
	}

	epoch := c.identityEpoch
	userID := c.state.Identity.ID

	return func(ctx context.Context) Event {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return favoritesLoaded{epoch: epoch, err: err}
		}
		favorites, err := c.api.Favorites(ctx, token, userID)
		return favoritesLoaded{epoch: epoch, favorites: favorites, err: err}
	}
}

// AddFavorite marks productID as a favorite. It returns nil, with the reason in the status message, when logged out
// or when the product already is a favorite.
func (c *Controller) AddFavorite(productID models.ID) Task {
	c.state.Message = ""

	if c.state.Identity == nil {
		c.state.Message = shared.ErrNotAuthenticated.Error()
		return nil
	}
	if _, ok := c.state.FavoriteFor(productID); ok {
		c.state.Message = shared.ErrAlreadyFavorite.Error()
		return nil
	}

	epoch := c.identityEpoch
	userID := c.state.Identity.ID

	return func(ctx context.Context) Event {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return favoriteAdded{epoch: epoch, err: err}
		}
		favorite, err := c.api.AddFavorite(ctx, token, userID, productID)
		return favoriteAdded{epoch: epoch, favorite: favorite, err: err}
	}
}

// RemoveFavorite deletes the favorite with the given id. It returns nil when logged out.
func (c *Controller) RemoveFavorite(favoriteID models.ID) Task {
	c.state.Message = ""

	if c.state.Identity == nil {
		c.state.Message = shared.ErrNotAuthenticated.Error()
		return nil
	}

	epoch := c.identityEpoch
	userID := c.state.Identity.ID

	return func(ctx context.Context) Event {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return favoriteRemoved{epoch: epoch, id: favoriteID, err: err}
		}
		err = c.api.RemoveFavorite(ctx, token, userID, favoriteID)
		return favoriteRemoved{epoch: epoch, id: favoriteID, err: err}
	}
}
