package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/gradeassist/internal/db"
	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/rbac"
)

func newUsers(t *testing.T) *gradebook.SQLStore {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return gradebook.NewSQLStore(conn)
}

func postJSON(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return rec
}

type envelope struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Data   struct {
		AccessToken string         `json:"access_token"`
		User        gradebook.User `json:"user"`
	} `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, err := a.IssueJWT("u1", rbac.RoleInstructor, "a@b.c")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)
	assert.Equal(t, rbac.RoleInstructor, c.Role)

	_, err = NewAuthService("other", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	a := NewAuthService("secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: rbac.RoleInstructor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "someone-else"},
	})
	s, err = foreign.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := a.IssueJWT("u1", rbac.RoleInstructor, "")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotSub)
	assert.Equal(t, rbac.RoleInstructor, gotRole)
}

func TestRegisterAndLogin(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	users := newUsers(t)
	register := RegisterHandler(a, users)
	login := LoginHandler(a, users)

	rec := postJSON(t, register, map[string]string{"email": " Ann@Uni.edu ", "password": "hunter22", "firstName": "Ann"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decodeEnvelope(t, rec)
	assert.Equal(t, "ann@uni.edu", reg.Data.User.Email)
	assert.NotEmpty(t, reg.Data.AccessToken)
	assert.NotContains(t, rec.Body.String(), "hunter22")

	rec = postJSON(t, register, map[string]string{"email": "ann@uni.edu", "password": "another1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email_taken", decodeEnvelope(t, rec).Code)

	rec = postJSON(t, register, map[string]string{"email": "bo@uni.edu", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = postJSON(t, register, map[string]string{"email": "not-an-email", "password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, login, map[string]string{"email": "ANN@uni.edu", "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)
	c, err := a.Parse(decodeEnvelope(t, rec).Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Data.User.ID, c.Subject)
	assert.Equal(t, rbac.RoleInstructor, c.Role)

	rec = postJSON(t, login, map[string]string{"email": "ann@uni.edu", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = postJSON(t, login, map[string]string{"email": "nobody@uni.edu", "password": "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttachRoleFromDB(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()
	u, err := users.CreateUser(ctx, "x@uni.edu", "", "", "hash")
	require.NoError(t, err)

	var gotRole string
	h := AttachRoleFromDB(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = rbac.RoleFromContext(r.Context())
	}))
	serve := func(sub, claimRole string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(rbac.WithRole(WithSubject(ctx, sub), claimRole))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(u.ID, rbac.RoleAdmin))
	assert.Equal(t, rbac.RoleInstructor, gotRole, "stored role wins over the token claim")

	assert.Equal(t, http.StatusUnauthorized, serve("ghost", rbac.RoleInstructor))

	off := false
	_, err = users.UpdateUser(ctx, u.ID, gradebook.UserUpdate{Active: &off})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(u.ID, rbac.RoleInstructor))
}

func TestBootstrapAdmin(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("root-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = BootstrapAdmin(ctx, users, "root", string(hash))
	assert.Error(t, err)
	_, err = BootstrapAdmin(ctx, users, "root@uni.edu", "")
	assert.Error(t, err)
	_, err = BootstrapAdmin(ctx, users, "root@uni.edu", "root-pass")
	assert.Error(t, err, "plain password is not a hash")

	u, err := BootstrapAdmin(ctx, users, "Root@Uni.edu", string(hash))
	require.NoError(t, err)
	assert.Equal(t, gradebook.RoleAdmin, u.Role)

	rec := postJSON(t, LoginHandler(NewAuthService("k", time.Hour), users), map[string]string{"email": "root@uni.edu", "password": "root-pass"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
