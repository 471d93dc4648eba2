package endpoint

import (
	"context"
	"net/http"
	"regexp"

	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/format"
	"github.com/spolu/distinct/lib/ptr"
	"github.com/spolu/distinct/lib/svc"
	"github.com/spolu/distinct/model"
)

const (
	// EndPtCreateUser creates a new user.
	EndPtCreateUser EndPtName = "CreateUser"
)

func init() {
	registrar[EndPtCreateUser] = NewCreateUser
}

// UsernameRegexp is used to validate usernames.
var UsernameRegexp = regexp.MustCompile("^[a-z0-9\\-_.]{1,256}$")

// EmailRegexp is used to validate email addresses.
var EmailRegexp = regexp.MustCompile("^[a-zA-Z0-9\\-_.+]+@[a-z0-9\\-_.]+$")

// CreateUser creates a new user, validating uniqueness of its username and
// of its email within its tenant before insertion.
type CreateUser struct {
	Username string
	Email    string
	Tenant   string
	Password string
}

// UserResource is the user representation returned to clients.
type UserResource struct {
	Token    string `json:"token"`
	Created  int64  `json:"created"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Tenant   string `json:"tenant"`
}

// NewCreateUser constructs and initializes the endpoint.
func NewCreateUser(
	r *http.Request,
) (Endpoint, error) {
	return &CreateUser{}, nil
}

// Validate validates the input parameters.
func (e *CreateUser) Validate(
	r *http.Request,
) error {
	username := r.PostFormValue("username")
	if !UsernameRegexp.MatchString(username) {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "username_invalid",
			"The username you provided is invalid: %s. Usernames can use "+
				"alphanumeric lowercased characters along with - _ and .",
			username,
		))
	}
	e.Username = username

	email := r.PostFormValue("email")
	if !EmailRegexp.MatchString(email) {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "email_invalid",
			"The email you provided is invalid: %s.",
			email,
		))
	}
	e.Email = email

	tenant := r.PostFormValue("tenant")
	if !IdentifierRegexp.MatchString(tenant) {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "tenant_invalid",
			"The tenant you provided is invalid: %s.",
			tenant,
		))
	}
	e.Tenant = tenant

	password := r.PostFormValue("password")
	if password == "" {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "password_invalid",
			"You must provide a password.",
		))
	}
	e.Password = password

	return nil
}

// Execute executes the endpoint.
func (e *CreateUser) Execute(
	ctx context.Context,
) (*int, *svc.Resp, error) {
	ctx = db.Begin(ctx)
	defer db.LoggedRollback(ctx)

	user, err := model.CreateUser(ctx,
		e.Username, e.Email, e.Tenant, e.Password)
	if err != nil {
		switch cause := errors.Cause(err).(type) {
		case model.ErrUserExists:
			message := "A user with similar attributes already exists."
			if len(cause.Errors) > 0 {
				message = cause.Errors[0].Message
			}
			return nil, nil, errors.Trace(errors.NewUserErrorf(err,
				400, "user_already_exists", "%s", message,
			))
		case model.ErrUniqueConstraintViolation:
			return nil, nil, errors.Trace(errors.NewUserErrorf(err,
				400, "user_already_exists",
				"A user with similar attributes was created concurrently.",
			))
		}
		return nil, nil, errors.Trace(err)
	}

	db.Commit(ctx)

	return ptr.Int(http.StatusCreated), &svc.Resp{
		"user": format.JSONPtr(UserResource{
			Token:    user.Token,
			Created:  user.Created.UnixNano() / (1000 * 1000),
			Username: user.Username,
			Email:    user.Email,
			Tenant:   user.Tenant,
		}),
	}, nil
}
