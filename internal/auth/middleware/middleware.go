package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/rbac"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

const (
	issuer         = "gradeassist"
	minPasswordLen = 6
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return c, nil
}

// JWTMiddleware rejects requests without a valid bearer token and stores the
// token's subject and role in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := request.BearerExtractor{}.ExtractToken(r)
			if err != nil {
				httpjson.WriteErrorJson(w, "missing bearer token", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
				return
			}
			claims, err := a.Parse(raw)
			if err != nil {
				httpjson.WriteErrorJson(w, "invalid or expired token", http.StatusUnauthorized, srvcerror.ErrCodeUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), claims.Subject)
			ctx = rbac.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserStore is the account storage used by the register and login handlers.
type UserStore interface {
	CreateUser(ctx context.Context, email, firstName, lastName, passwordHash string) (gradebook.User, error)
	UserByEmail(ctx context.Context, email string) (gradebook.User, error)
}

type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	User        gradebook.User `json:"user"`
}

// POST /auth/register  { "email", "password", "firstName", "lastName" }
func RegisterHandler(a *AuthService, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := httplog.LogEntry(r.Context())

		var req struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		email := gradebook.NormalizeEmail(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("a valid email is required"))
			return
		}
		if len(req.Password) < minPasswordLen {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("password must be at least 6 characters"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		u, err := users.CreateUser(r.Context(), email, req.FirstName, req.LastName, string(hash))
		if errors.Is(err, gradebook.ErrEmailTaken) {
			httpjson.HandleError(logger, w, srvcerror.New(srvcerror.ErrCodeEmailTaken, "email already registered").
				SetHttpStatusCode(http.StatusConflict))
			return
		}
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}

		tok, err := a.IssueJWT(u.ID, u.Role, u.Email)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		logger.Info("user registered", "user_id", u.ID)
		httpjson.WriteJson(w, http.StatusCreated, tokenResponse{AccessToken: tok, User: u})
	}
}

// POST /auth/login  { "email", "password" }
func LoginHandler(a *AuthService, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := httplog.LogEntry(r.Context())

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}

		invalid := srvcerror.ErrUnauthorized("invalid credentials")
		u, err := users.UserByEmail(r.Context(), req.Email)
		if errors.Is(err, gradebook.ErrNotFound) {
			httpjson.HandleError(logger, w, invalid)
			return
		}
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			httpjson.HandleError(logger, w, invalid)
			return
		}
		if !u.Active {
			httpjson.HandleError(logger, w, srvcerror.New("account_disabled", "account disabled").
				SetHttpStatusCode(http.StatusForbidden))
			return
		}

		tok, err := a.IssueJWT(u.ID, u.Role, u.Email)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		httpjson.WriteSuccessJson(w, tokenResponse{AccessToken: tok, User: u})
	}
}
