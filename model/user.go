package model

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/token"
	"github.com/spolu/distinct/sqlstore"
	"golang.org/x/crypto/scrypt"
)

// UserType describes the users table to the uniqueness checker.
var UserType = distinct.NewType("users", "token")

// User represents a user object. Usernames are unique across the store;
// emails are unique within a tenant.
type User struct {
	Token   string
	Created time.Time

	Username     string
	Email        string
	Tenant       string
	PasswordHash string `db:"password_hash"`

	// prevToken is the token the user was last persisted under.
	prevToken string
}

// Type implements distinct.Record.
func (u *User) Type() distinct.Type {
	return UserType
}

// Field implements distinct.Record.
func (u *User) Field(
	name string,
) (interface{}, error) {
	switch name {
	case "token":
		return u.Token, nil
	case "created":
		return u.Created, nil
	case "username":
		return u.Username, nil
	case "email":
		return u.Email, nil
	case "tenant":
		return u.Tenant, nil
	case "password_hash":
		return u.PasswordHash, nil
	default:
		return nil, errors.Trace(errors.Newf(
			"users has no field %q", name))
	}
}

// IsNew implements distinct.Record.
func (u *User) IsNew() bool {
	return u.prevToken == ""
}

// PrimaryKey implements distinct.Record.
func (u *User) PrimaryKey() distinct.Key {
	return distinct.Key{"token": u.Token}
}

// PreviousPrimaryKey implements distinct.Record.
func (u *User) PreviousPrimaryKey() distinct.Key {
	return distinct.Key{"token": u.prevToken}
}

var _ distinct.Record = (*User)(nil)

// checkUnique validates the user's username and email/tenant combination
// against the store before a write. The check is best-effort; the unique
// constraints on the table catch the remaining write races.
func (u *User) checkUnique(
	ctx context.Context,
) error {
	store := sqlstore.New()
	checkers := []*distinct.Checker{
		&distinct.Checker{
			Store: store,
			Attributes: []distinct.Attribute{
				distinct.Attribute{Source: "username"},
			},
		},
		&distinct.Checker{
			Store: store,
			Attributes: []distinct.Attribute{
				distinct.Attribute{Source: "email"},
				distinct.Attribute{Source: "tenant"},
			},
		},
	}

	for _, checker := range checkers {
		decision, err := checker.Check(ctx, u)
		if err != nil {
			return errors.Trace(err)
		}
		if !decision.Valid() {
			return errors.Trace(ErrUserExists{decision.Errors})
		}
	}
	return nil
}

// CreateUser creates and stores a new User object.
func CreateUser(
	ctx context.Context,
	username string,
	email string,
	tenant string,
	password string,
) (*User, error) {
	user := User{
		Token:   token.New("user"),
		Created: time.Now().UTC(),

		Username: username,
		Email:    email,
		Tenant:   tenant,
	}

	h, err := scrypt.Key([]byte(password), []byte(user.Token), 16384, 8, 1, 64)
	if err != nil {
		return nil, errors.Trace(err)
	}
	user.PasswordHash = base64.StdEncoding.EncodeToString(h)

	if err := user.checkUnique(ctx); err != nil {
		return nil, errors.Trace(err)
	}

	ext := db.Ext(ctx)
	if _, err := sqlx.NamedExec(ext, `
INSERT INTO users
  (token, created, username, email, tenant, password_hash)
VALUES
  (:token, :created, :username, :email, :tenant, :password_hash)
`, user); err != nil {
		switch err := err.(type) {
		case *pq.Error:
			if err.Code.Name() == "unique_violation" {
				return nil, errors.Trace(ErrUniqueConstraintViolation{err})
			}
		case sqlite3.Error:
			if err.ExtendedCode == sqlite3.ErrConstraintUnique {
				return nil, errors.Trace(ErrUniqueConstraintViolation{err})
			}
		}
		return nil, errors.Trace(err)
	}
	user.prevToken = user.Token

	return &user, nil
}

// Save updates the object database representation with the in-memory values
// after re-validating uniqueness.
func (u *User) Save(
	ctx context.Context,
) error {
	if err := u.checkUnique(ctx); err != nil {
		return errors.Trace(err)
	}

	ext := db.Ext(ctx)
	_, err := ext.Exec(ext.Rebind(`
UPDATE users
SET token = ?, username = ?, email = ?, tenant = ?, password_hash = ?
WHERE token = ?
`), u.Token, u.Username, u.Email, u.Tenant, u.PasswordHash, u.prevToken)
	if err != nil {
		return errors.Trace(err)
	}
	u.prevToken = u.Token

	return nil
}

// LoadUserByToken attempts to load a user with the given user token.
func LoadUserByToken(
	ctx context.Context,
	token string,
) (*User, error) {
	user := User{
		Token: token,
	}

	ext := db.Ext(ctx)
	if rows, err := sqlx.NamedQuery(ext, `
SELECT *
FROM users
WHERE token = :token
`, user); err != nil {
		return nil, errors.Trace(err)
	} else if !rows.Next() {
		return nil, nil
	} else if err := rows.StructScan(&user); err != nil {
		defer rows.Close()
		return nil, errors.Trace(err)
	} else if err := rows.Close(); err != nil {
		return nil, errors.Trace(err)
	}
	user.prevToken = user.Token

	return &user, nil
}

// LoadUserByUsername attempts to load a user with the given username.
func LoadUserByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	user := User{
		Username: username,
	}

	ext := db.Ext(ctx)
	if rows, err := sqlx.NamedQuery(ext, `
SELECT *
FROM users
WHERE username = :username
`, user); err != nil {
		return nil, errors.Trace(err)
	} else if !rows.Next() {
		return nil, nil
	} else if err := rows.StructScan(&user); err != nil {
		defer rows.Close()
		return nil, errors.Trace(err)
	} else if err := rows.Close(); err != nil {
		return nil, errors.Trace(err)
	}
	user.prevToken = user.Token

	return &user, nil
}

// CheckPassword checks if the provided password matches the password hash
// associated with that user.
func (u *User) CheckPassword(
	ctx context.Context,
	password string,
) error {
	h, err := scrypt.Key([]byte(password), []byte(u.Token), 16384, 8, 1, 64)
	if err != nil {
		return errors.Trace(err)
	}

	if u.PasswordHash != base64.StdEncoding.EncodeToString(h) {
		return errors.Newf("Password mismatch")
	}
	return nil
}
