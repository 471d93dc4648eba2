package model

import (
	"context"
	"testing"

	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
	"github.com/stretchr/testify/assert"

	// force initialization of schemas
	_ "github.com/spolu/distinct/model/schemas"
)

func setupModel(
	t *testing.T,
) context.Context {
	ctx := context.Background()

	storeDB, err := db.NewSqlite3DBInMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	err = db.CreateDBTables(ctx, storeDB)
	if err != nil {
		t.Fatal(err)
	}

	return db.WithDB(ctx, storeDB)
}

func TestCreateUser(t *testing.T) {
	ctx := setupModel(t)

	user, err := CreateUser(ctx, "alan", "alan@x.com", "42", "enigma")
	assert.Nil(t, err)
	assert.False(t, user.IsNew())
	assert.Nil(t, user.CheckPassword(ctx, "enigma"))
	assert.NotNil(t, user.CheckPassword(ctx, "colossus"))

	loaded, err := LoadUserByUsername(ctx, "alan")
	assert.Nil(t, err)
	assert.Equal(t, user.Token, loaded.Token)
	assert.Equal(t, "alan@x.com", loaded.Email)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	ctx := setupModel(t)

	_, err := CreateUser(ctx, "alan", "alan@x.com", "42", "enigma")
	assert.Nil(t, err)

	_, err = CreateUser(ctx, "alan", "other@x.com", "43", "enigma")
	assert.NotNil(t, err)

	e, ok := errors.Cause(err).(ErrUserExists)
	assert.True(t, ok)
	assert.Equal(t, "username", e.Errors[0].Attribute)
	assert.Equal(t,
		`username "alan" has already been taken.`,
		e.Errors[0].Message)
}

func TestCreateUserDuplicateEmailTenant(t *testing.T) {
	ctx := setupModel(t)

	_, err := CreateUser(ctx, "alan", "a@x.com", "42", "enigma")
	assert.Nil(t, err)

	// Same email in another tenant is fine.
	_, err = CreateUser(ctx, "grace", "a@x.com", "43", "cobol")
	assert.Nil(t, err)

	// Same email in the same tenant is not.
	_, err = CreateUser(ctx, "ada", "a@x.com", "42", "notes")
	assert.NotNil(t, err)

	e, ok := errors.Cause(err).(ErrUserExists)
	assert.True(t, ok)
	assert.Equal(t, 2, len(e.Errors))
	assert.Equal(t,
		`The combination of email, tenant ("a@x.com"-"42") `+
			`has already been taken.`,
		e.Errors[0].Message)
}

func TestSaveRename(t *testing.T) {
	ctx := setupModel(t)

	_, err := CreateUser(ctx, "alan", "alan@x.com", "42", "enigma")
	assert.Nil(t, err)
	user, err := CreateUser(ctx, "grace", "grace@x.com", "42", "cobol")
	assert.Nil(t, err)

	// Renaming to a taken username fails the pre-write check.
	user.Username = "alan"
	err = user.Save(ctx)
	assert.NotNil(t, err)
	_, ok := errors.Cause(err).(ErrUserExists)
	assert.True(t, ok)

	// Renaming to a free username goes through.
	user.Username = "hopper"
	err = user.Save(ctx)
	assert.Nil(t, err)

	loaded, err := LoadUserByUsername(ctx, "hopper")
	assert.Nil(t, err)
	assert.Equal(t, user.Token, loaded.Token)
}

func TestSaveUnchangedSelfMatch(t *testing.T) {
	ctx := setupModel(t)

	user, err := CreateUser(ctx, "alan", "alan@x.com", "42", "enigma")
	assert.Nil(t, err)

	// Saving without changes matches only the user itself in the store.
	err = user.Save(ctx)
	assert.Nil(t, err)
}

func TestLoadUserByToken(t *testing.T) {
	ctx := setupModel(t)

	user, err := CreateUser(ctx, "alan", "alan@x.com", "42", "enigma")
	assert.Nil(t, err)

	loaded, err := LoadUserByToken(ctx, user.Token)
	assert.Nil(t, err)
	assert.Equal(t, "alan", loaded.Username)
	assert.False(t, loaded.IsNew())

	missing, err := LoadUserByToken(ctx, "user_missing")
	assert.Nil(t, err)
	assert.Nil(t, missing)
}
