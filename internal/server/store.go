package server

import (
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// DefaultProducts seeds the catalogue when none is configured.
var DefaultProducts = []string{"Coffee", "Tea", "Chocolate", "Cookies", "Bagels"}

type user struct {
	identity models.Identity
	hash     []byte
}

// Store is the in-memory state of the dev API. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	cost       int
	products   []models.Product
	users      map[string]*user // by username
	tokens     map[string]models.ID
	favorites  map[models.ID][]models.Favorite
	nextUserID int64
	nextFavID  int64
}

// NewStore creates a store whose catalogue holds one product per name, numbered from 1.
func NewStore(products []string) *Store {
	if len(products) == 0 {
		products = DefaultProducts
	}

	s := &Store{
		cost:      bcrypt.DefaultCost,
		users:     map[string]*user{},
		tokens:    map[string]models.ID{},
		favorites: map[models.ID][]models.Favorite{},
	}
	for i, name := range products {
		s.products = append(s.products, models.Product{ID: models.NumericID(int64(i + 1)), Name: name})
	}
	return s
}

// WithBcryptCost sets the hashing cost used for new accounts.
func (s *Store) WithBcryptCost(cost int) *Store {
	s.cost = cost
	return s
}

// Register creates an account and returns a session token for it.
func (s *Store) Register(creds models.Credentials) (string, models.Identity, error) {
	if !creds.Complete() {
		return "", models.Identity{}, shared.ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return "", models.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[creds.Username]; ok {
		return "", models.Identity{}, shared.ErrUsernameTaken
	}

	s.nextUserID++
	u := &user{
		identity: models.Identity{ID: models.NumericID(s.nextUserID), Username: creds.Username},
		hash:     hash,
	}
	s.users[creds.Username] = u
	return s.issue(u.identity.ID), u.identity, nil
}

// Login checks the credentials and returns a fresh session token.
func (s *Store) Login(creds models.Credentials) (string, models.Identity, error) {
	if !creds.Complete() {
		return "", models.Identity{}, shared.ErrMissingCredentials
	}

	s.mu.Lock()
	u, ok := s.users[creds.Username]
	s.mu.Unlock()
	if !ok {
		return "", models.Identity{}, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(creds.Password)); err != nil {
		return "", models.Identity{}, shared.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(u.identity.ID), u.identity, nil
}

// issue must be called with mu held.
func (s *Store) issue(userID models.ID) string {
	token := shared.GenerateID()
	s.tokens[token] = userID
	return token
}

// Identity returns the user that owns token.
func (s *Store) Identity(token string) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.tokens[token]
	if !ok || token == "" {
		return models.Identity{}, shared.ErrNotAuthenticated
	}
	for _, u := range s.users {
		if u.identity.ID == userID {
			return u.identity, nil
		}
	}
	return models.Identity{}, shared.ErrNotAuthenticated
}

// Products returns the catalogue in order.
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

// Favorites returns the favorites of userID in creation order.
func (s *Store) Favorites(userID models.ID) []models.Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := slices.Clone(s.favorites[userID])
	if favorites == nil {
		favorites = []models.Favorite{}
	}
	return favorites
}

// AddFavorite records productID as a favorite of userID.
func (s *Store) AddFavorite(userID, productID models.ID) (models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := slices.ContainsFunc(s.products, func(p models.Product) bool { return p.ID == productID })
	if !known {
		return models.Favorite{}, shared.ErrProductNotFound
	}

	exists := slices.ContainsFunc(s.favorites[userID], func(f models.Favorite) bool { return f.ProductID == productID })
	if exists {
		return models.Favorite{}, shared.ErrAlreadyFavorite
	}

	s.nextFavID++
	favorite := models.Favorite{ID: models.NumericID(s.nextFavID), ProductID: productID, UserID: userID}
	s.favorites[userID] = append(s.favorites[userID], favorite)
	return favorite, nil
}

// RemoveFavorite deletes favoriteID from userID's favorites.
func (s *Store) RemoveFavorite(userID, favoriteID models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := s.favorites[userID]
	i := slices.IndexFunc(favorites, func(f models.Favorite) bool { return f.ID == favoriteID })
	if i < 0 {
		return shared.ErrFavoriteNotFound
	}
	s.favorites[userID] = slices.Delete(favorites, i, i+1)
	return nil
}
