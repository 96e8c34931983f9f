package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"clickchess/internal/auth"
	"clickchess/internal/db"
	"clickchess/internal/models"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
	db         *db.MongoDB
}

func NewAuthMiddleware(jwtService *auth.JWTService, database *db.MongoDB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		db:         database,
	}
}

// RequireAuth validates the JWT and loads the user into context.
// Returns 401 if the token is missing or invalid.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.authenticate(r)
		if user == nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth validates the JWT if present but lets the request continue
// without one. Game endpoints work for both logged-in and anonymous players.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.authenticate(r); user != nil {
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate extracts and validates the bearer token, then loads the
// user. Returns nil on any failure; callers decide whether that is fatal.
func (m *AuthMiddleware) authenticate(r *http.Request) *models.User {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	claims, err := m.jwtService.ValidateToken(parts[1])
	if err != nil {
		return nil
	}

	// Accounts only exist with a database behind them.
	if !m.db.Enabled() {
		return nil
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}

	var user models.User
	err = m.db.Users().FindOne(r.Context(), bson.M{"_id": userID}).Decode(&user)
	if err != nil || !user.IsActive {
		return nil
	}

	return &user
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
