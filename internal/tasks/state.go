package tasks

import (
	"slices"

	"github.com/desertthunder/faves/internal/models"
)

// State is the client's view of the server.
type State struct {
	Identity  *models.Identity // nil when logged out
	Products  []models.Product
	Favorites []models.Favorite
	Message   string // outcome of the last failed operation, cleared when a new one starts
}

// Authenticated reports whether an identity is present.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// FavoriteFor returns the favorite pointing at productID, if any.
func (s State) FavoriteFor(productID models.ID) (models.Favorite, bool) {
	for _, f := range s.Favorites {
		if f.ProductID == productID {
			return f, true
		}
	}
	return models.Favorite{}, false
}

// Action is the single control offered for a product row.
type Action int

const (
	ActionNone   Action = iota // logged out
	ActionAdd                  // "+"
	ActionRemove               // "-"
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "+"
	case ActionRemove:
		return "-"
	default:
		return ""
	}
}

// Row is the derived view of one product.
type Row struct {
	Product  models.Product
	Favorite *models.Favorite // set when the product is a favorite
	Action   Action
}

// Favorited reports whether the row's product is in the favorite set.
func (r Row) Favorited() bool { return r.Favorite != nil }

// Rows derives one row per product in server order.
func (s State) Rows() []Row {
	rows := make([]Row, 0, len(s.Products))
	for _, p := range s.Products {
		row := Row{Product: p}
		if f, ok := s.FavoriteFor(p.ID); ok {
			row.Favorite = &f
		}
		if s.Authenticated() {
			if row.Favorited() {
				row.Action = ActionRemove
			} else {
				row.Action = ActionAdd
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// clone returns a copy whose slices do not alias s.
func (s State) clone() State {
	out := s
	out.Products = slices.Clone(s.Products)
	out.Favorites = slices.Clone(s.Favorites)
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	return out
}
