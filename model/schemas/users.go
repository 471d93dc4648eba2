package schemas

import "github.com/spolu/distinct/lib/db"

const (
	usersSQL = `
CREATE TABLE IF NOT EXISTS users(
  token VARCHAR(256) NOT NULL,
  created TIMESTAMP NOT NULL,

  username VARCHAR(256) NOT NULL,
  email VARCHAR(256) NOT NULL,
  tenant VARCHAR(256) NOT NULL,
  password_hash VARCHAR(256) NOT NULL,

  PRIMARY KEY(token),
  CONSTRAINT users_username_u UNIQUE (username),
  CONSTRAINT users_email_tenant_u UNIQUE (email, tenant)
);
`
)

func init() {
	db.RegisterSchema(
		"users",
		usersSQL,
	)
}
