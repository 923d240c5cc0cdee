package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a server-issued identifier that remembers whether it arrived as a JSON number or string.
//
// The zero value means "no identifier".
type ID struct {
	value  string
	quoted bool
}

// NumericID builds a numeric [ID].
func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10)}
}

// ParseID turns user input into an [ID]: integers become numeric identifiers, anything else a string identifier.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NumericID(n)
	}
	return ID{value: s, quoted: true}
}

// String returns the identifier without JSON quoting, suitable for URL paths.
func (id ID) String() string { return id.value }

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id.value == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.quoted {
		return json.Marshal(id.value)
	}
	return []byte(id.value), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{value: s, quoted: true}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		*id = ID{value: n.String()}
		return nil
	}
}

// Credentials is the body of the login and register requests.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether both fields are non-empty.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Identity is the authenticated user returned by /api/auth/me.
type Identity struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
}

// Product is a catalogue entry.
type Product struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Favorite links a user to a product.
type Favorite struct {
	ID        ID `json:"id"`
	ProductID ID `json:"product_id"`
	UserID    ID `json:"user_id"`
}

// FavoriteRequest is the body of POST /api/users/{id}/favorites.
type FavoriteRequest struct {
	ProductID ID `json:"product_id"`
}

// AuthResponse is the success body of login and register.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the failure envelope used by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
