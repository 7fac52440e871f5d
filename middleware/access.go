package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Access is the level a route requires.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

// Guard returns the middleware chain for an access level. Admin implies
// Authenticated, and the two always run in that order.
func Guard(access Access, tokens TokenVerifier, users UserLookup, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		switch access {
		case Public:
			return next
		case Authenticated:
			return RequireAuthenticated(tokens)(next)
		case Admin:
			return RequireAuthenticated(tokens)(RequireAdmin(users, log)(next))
		}
		panic(fmt.Sprintf("unknown access level %d", int(access)))
	}
}
