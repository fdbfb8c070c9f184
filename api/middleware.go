package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/config"
	"github.com/linesmerrill/police-records-api/models"
)

// ActorClaims are the token claims naming the acting officer. Tokens are
// minted by the identity service that owns officer accounts.
type ActorClaims struct {
	CID  int    `json:"cid"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

var errMissingToken = errors.New("missing bearer token")

// Middleware authenticates the bearer token and stores the actor it names on
// the request context. Websocket clients may pass the token as the token
// query parameter instead.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if secret == "" {
				config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("JWT_SECRET is not set"))
				return
			}
			actor, err := ParseActor(secret, bearerToken(r))
			if err != nil {
				zap.S().Debugw("unauthorized", "url", r.URL, "error", err)
				config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// ParseActor verifies an HS256 token and returns the actor it names
func ParseActor(secret, token string) (models.Actor, error) {
	if token == "" {
		return models.Actor{}, errMissingToken
	}
	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	if claims.CID <= 0 {
		return models.Actor{}, errors.New("token carries no officer cid")
	}
	return models.Actor{CID: claims.CID, Name: claims.Name}, nil
}

// SignActor mints a token for actor valid for ttl
func SignActor(secret string, actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		CID:  actor.CID,
		Name: actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
