package zentty

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tonimelisma/zentty-go/internal/transport"
)

var errNoLoginSession = errors.New("zentty: loginUser returned no session")

type registerUserPayload struct {
	User   *User            `json:"user"`
	Errors ValidationErrors `json:"errors"`
}

type loginUserPayload struct {
	LoginSession *LoginSession    `json:"loginSession"`
	Errors       ValidationErrors `json:"errors"`
}

// RegisterUser creates an account. Server-side validation failures are
// returned as ValidationErrors.
func (c *Client) RegisterUser(ctx context.Context, params RegisterUserParams) (*User, error) {
	var payload registerUserPayload

	err := c.do(ctx, &transport.Operation{
		Name:  "registerUser",
		Kind:  transport.Mutation,
		Query: registerUserMutation,
		Variables: map[string]any{
			"username": params.Username,
			"email":    params.Email,
			"name":     params.Name,
			"password": params.Password,
		},
	}, &payload)
	if err != nil {
		return nil, err
	}

	if payload.Errors != nil {
		return nil, payload.Errors
	}

	return payload.User, nil
}

// LoginUser authenticates with an identifier (username or email) and
// password. On success the returned session code becomes the client's
// credential before LoginUser returns.
func (c *Client) LoginUser(ctx context.Context, params LoginUserParams) (*LoginSession, error) {
	var payload loginUserPayload

	err := c.do(ctx, &transport.Operation{
		Name:  "loginUser",
		Kind:  transport.Mutation,
		Query: loginUserMutation,
		Variables: map[string]any{
			"identifier": params.Identifier,
			"password":   params.Password,
		},
	}, &payload)
	if err != nil {
		return nil, err
	}

	if payload.Errors != nil {
		return nil, payload.Errors
	}

	if payload.LoginSession == nil {
		return nil, errNoLoginSession
	}

	c.SetSessionCode(payload.LoginSession.SessionCode)

	c.logger.Info("logged in", slog.String("identifier", params.Identifier))

	return payload.LoginSession, nil
}

// LogoutUser ends a session on the server and reports whether it did. When
// the server confirms, the local credential is cleared before returning.
func (c *Client) LogoutUser(ctx context.Context, params LogoutUserParams) (bool, error) {
	var sessionCode any
	if params.SessionCode != "" {
		sessionCode = params.SessionCode
	}

	var ok bool

	err := c.do(ctx, &transport.Operation{
		Name:      "logoutUser",
		Kind:      transport.Mutation,
		Query:     logoutUserMutation,
		Variables: map[string]any{"sessionCode": sessionCode},
	}, &ok)
	if err != nil {
		return false, err
	}

	if ok {
		c.SetSessionCode("")
		c.logger.Info("logged out")
	}

	return ok, nil
}

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User

	err := c.do(ctx, &transport.Operation{
		Name:  "getUser",
		Kind:  transport.Query,
		Query: getUserQuery,
	}, &user)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
