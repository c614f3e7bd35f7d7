package zentty

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/zentty-go/internal/credstore"
	"github.com/tonimelisma/zentty-go/internal/transport"
)

func TestRegisterUser_Success(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("registerUser", `{"registerUser":{"user":{"_id":"u1","username":"ada","email":"ada@example.com","name":"Ada","active":true,"registered":1700000000000},"errors":null}}`)

	c := newTestClient(t, fs, Config{})

	user, err := c.RegisterUser(context.Background(), RegisterUserParams{
		Username: "ada",
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, user.Active)
	assert.Equal(t, int64(1700000000000), user.Registered.UnixMilli())

	req := fs.recorded()[0]
	assert.Equal(t, map[string]any{
		"username": "ada",
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "secret",
	}, req.Variables)
	assert.Contains(t, req.Query, "mutation registerUser")
}

func TestRegisterUser_ValidationErrors(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("registerUser", `{"registerUser":{"user":null,"errors":[{"field":"email","message":"already taken"},{"field":"password","message":"too short"}]}}`)

	c := newTestClient(t, fs, Config{})

	user, err := c.RegisterUser(context.Background(), RegisterUserParams{Username: "ada"})
	assert.Nil(t, user)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, ValidationErrors{
		{Field: "email", Message: "already taken"},
		{Field: "password", Message: "too short"},
	}, verrs)
	assert.Equal(t, "zentty: validation failed: email: already taken; password: too short", err.Error())
}

func TestLoginUser_StoresCredential(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("loginUser", `{"loginUser":{"loginSession":{"sessionCode":"abc123","createdAt":"2024-01-02T03:04:05Z","expires":"1704164645000"},"errors":null}}`)
	fs.reply("getUser", `{"getUser":{"_id":"u1","username":"ada"}}`)

	store := credstore.NewMemory()
	c := newTestClient(t, fs, Config{Store: store})

	session, err := c.LoginUser(context.Background(), LoginUserParams{Identifier: "ada", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "abc123", session.SessionCode)
	assert.Equal(t, 2024, session.CreatedAt.Year())
	assert.False(t, session.Expires.IsZero())

	assert.Equal(t, "YWJjMTIzOg==", c.Auth())

	stored, err := store.Get(AuthTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "YWJjMTIzOg==", stored)

	_, err = c.GetUser(context.Background())
	require.NoError(t, err)

	reqs := fs.recorded()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Auth)
	assert.Equal(t, map[string]any{"identifier": "ada", "password": "secret"}, reqs[0].Variables)
	assert.Equal(t, "Basic YWJjMTIzOg==", reqs[1].Auth)
}

func TestLoginUser_ValidationErrorsKeepCredential(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("loginUser", `{"loginUser":{"loginSession":null,"errors":[{"field":"password","message":"incorrect"}]}}`)

	c := newTestClient(t, fs, Config{SessionCode: "old"})

	_, err := c.LoginUser(context.Background(), LoginUserParams{Identifier: "ada", Password: "x"})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "password", verrs[0].Field)

	assert.Equal(t, encodeSessionCode("old"), c.Auth())
}

func TestLoginUser_NoSession(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("loginUser", `{"loginUser":{"loginSession":null,"errors":null}}`)

	c := newTestClient(t, fs, Config{})

	_, err := c.LoginUser(context.Background(), LoginUserParams{Identifier: "ada", Password: "x"})
	require.ErrorIs(t, err, errNoLoginSession)
	assert.Empty(t, c.Auth())
}

func TestLogoutUser_ClearsCredential(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("logoutUser", `{"logoutUser":true}`)

	store := credstore.NewMemory()
	c := newTestClient(t, fs, Config{SessionCode: "abc123", Store: store})

	ok, err := c.LogoutUser(context.Background(), LogoutUserParams{})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Empty(t, c.Auth())

	stored, err := store.Get(AuthTokenKey)
	require.NoError(t, err)
	assert.Empty(t, stored)

	req := fs.recorded()[0]
	assert.Equal(t, "Basic YWJjMTIzOg==", req.Auth)
	assert.Contains(t, req.Variables, "sessionCode")
	assert.Nil(t, req.Variables["sessionCode"])
}

func TestLogoutUser_ExplicitSession(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("logoutUser", `{"logoutUser":true}`)

	c := newTestClient(t, fs, Config{SessionCode: "mine"})

	_, err := c.LogoutUser(context.Background(), LogoutUserParams{SessionCode: "other"})
	require.NoError(t, err)

	assert.Equal(t, "other", fs.recorded()[0].Variables["sessionCode"])
}

func TestLogoutUser_NotConfirmedKeepsCredential(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("logoutUser", `{"logoutUser":false}`)

	c := newTestClient(t, fs, Config{SessionCode: "abc123"})

	ok, err := c.LogoutUser(context.Background(), LogoutUserParams{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "YWJjMTIzOg==", c.Auth())
}

func TestLogoutUser_ErrorKeepsCredential(t *testing.T) {
	fs := newFakeServer(t)
	fs.on("logoutUser", func(recordedRequest) (int, string) {
		return http.StatusServiceUnavailable, "down"
	})

	c := newTestClient(t, fs, Config{SessionCode: "abc123"})

	_, err := c.LogoutUser(context.Background(), LogoutUserParams{})
	require.ErrorIs(t, err, transport.ErrServerError)
	assert.Equal(t, "YWJjMTIzOg==", c.Auth())
}

func TestGetUser(t *testing.T) {
	fs := newFakeServer(t)
	fs.reply("getUser", `{"getUser":{"_id":"u1","username":"ada","email":"ada@example.com","avatarUrl":"https://example.com/a.png"}}`)

	c := newTestClient(t, fs, Config{SessionCode: "abc123"})

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "https://example.com/a.png", user.AvatarURL)
	assert.Empty(t, fs.recorded()[0].Variables)
}

func TestGetUser_Unauthorized(t *testing.T) {
	fs := newFakeServer(t)
	fs.on("getUser", func(recordedRequest) (int, string) {
		return http.StatusUnauthorized, "login required"
	})

	c := newTestClient(t, fs, Config{})

	_, err := c.GetUser(context.Background())
	require.ErrorIs(t, err, transport.ErrUnauthorized)
}
