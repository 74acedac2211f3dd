package middlewares

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

type contextKey string

const UserContextKey = contextKey("identity_user")

const (
	AUTH_CACHE_TTL     = 5 * time.Minute
	AUTH_CACHE_PREFIX  = "worklogz:auth:"
	IDENTITY_TIMEOUT   = 10 * time.Second
	IDENTITY_USER_PATH = "/api/user"
)

var errInvalidToken = errors.New("invalid token")

type identityUser struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Designation string          `json:"designation"`
}

// userID accepts numeric ids as well as string ids.
func (u identityUser) userID() string {
	id := ""
	if err := json.Unmarshal(u.ID, &id); err == nil {
		return strings.TrimSpace(id)
	}
	raw := strings.TrimSpace(string(u.ID))
	if raw == "null" {
		return ""
	}
	return raw
}

// IdentityAuth resolves the bearer token of each request to the acting user
// through the identity service. Resolved users are cached in Redis when a
// client is given.
type IdentityAuth struct {
	identityURL string
	client      *http.Client
	cache       *redis.Client
}

func NewIdentityAuth(identityURL string, cache *redis.Client) *IdentityAuth {
	return &IdentityAuth{
		identityURL: strings.TrimRight(identityURL, "/"),
		client:      &http.Client{Timeout: IDENTITY_TIMEOUT},
		cache:       cache,
	}
}

func (a *IdentityAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			utils.SendResponse(w, http.StatusUnauthorized, "Token not provided", nil, 0)
			return
		}

		user, err := a.resolve(r.Context(), token)
		if errors.Is(err, errInvalidToken) {
			utils.SendResponse(w, http.StatusUnauthorized, "Invalid token or unauthenticated user", nil, 0)
			return
		}
		if err != nil {
			log.Printf("[Auth] identity service: %v", err)
			utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.AUTH_CANNOT_VALIDATE_TOKEN)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on a websocket handshake, so upgrades may pass the token as ?token=.
func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if token == "" && websocket.IsWebSocketUpgrade(r) {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token != "" && !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	return token
}

func (a *IdentityAuth) resolve(ctx context.Context, token string) (schemas.User, error) {
	key := AUTH_CACHE_PREFIX + tokenDigest(token)

	if a.cache != nil {
		cached, err := a.cache.Get(ctx, key).Bytes()
		if err == nil {
			user := schemas.User{}
			if err := json.Unmarshal(cached, &user); err == nil && user.ID != "" {
				return user, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[Auth] cache read failed: %v", err)
		}
	}

	user, err := a.fetch(ctx, token)
	if err != nil {
		return schemas.User{}, err
	}

	if a.cache != nil {
		payload, _ := json.Marshal(user)
		if err := a.cache.Set(ctx, key, payload, AUTH_CACHE_TTL).Err(); err != nil {
			log.Printf("[Auth] cache write failed: %v", err)
		}
	}

	return user, nil
}

func (a *IdentityAuth) fetch(ctx context.Context, token string) (schemas.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.identityURL+IDENTITY_USER_PATH, nil)
	if err != nil {
		return schemas.User{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return schemas.User{}, fmt.Errorf("call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return schemas.User{}, errInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return schemas.User{}, fmt.Errorf("identity service answered %d", resp.StatusCode)
	}

	found := identityUser{}
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil || found.userID() == "" || found.Name == "" {
		return schemas.User{}, errInvalidToken
	}

	return schemas.User{
		ID:          found.userID(),
		Name:        found.Name,
		Email:       found.Email,
		Designation: found.Designation,
	}, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// UserFromContext returns the user resolved by IdentityAuth.
func UserFromContext(ctx context.Context) (schemas.User, bool) {
	user, ok := ctx.Value(UserContextKey).(schemas.User)
	return user, ok
}

// WithUser stores user as the acting user; used by tests and the memory
// storage mode.
func WithUser(ctx context.Context, user schemas.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
