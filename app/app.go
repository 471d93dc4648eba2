package app

import (
	"context"
	"fmt"

	"goji.io"

	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/env"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/logging"
	"github.com/spolu/distinct/lib/recoverer"
	"github.com/spolu/distinct/lib/requestlogger"

	// force initialization of schemas
	_ "github.com/spolu/distinct/model/schemas"
)

const (
	// EnvCfgPort is the env config key for the port the service listens on.
	EnvCfgPort env.ConfigKey = "port"
)

// DefaultPort is the default port the service listens on per environment.
var DefaultPort = map[env.Environment]string{
	env.Production: "2406",
	env.QA:         "2407",
}

// BackgroundContextFromFlags initializes a background context fully loaded
// with everything that could be extracted from the flags.
func BackgroundContextFromFlags(
	envFlag string,
	dsnFlag string,
	prtFlag string,
) (context.Context, error) {
	ctx := context.Background()

	checkEnv := env.Env{
		Environment: env.QA,
		Config:      map[env.ConfigKey]string{},
	}
	if envFlag == "production" || envFlag == "prod" {
		checkEnv.Environment = env.Production
	}

	port := DefaultPort[checkEnv.Environment]
	if prtFlag != "" {
		port = prtFlag
	}
	checkEnv.Config[EnvCfgPort] = port

	ctx = env.With(ctx, &checkEnv)

	checkDB, err := db.NewDBForDSN(ctx,
		dsnFlag,
		fmt.Sprintf("sqlite3://~/.distinct/distinct-%s.db",
			env.Get(ctx).Environment))
	if err != nil {
		return nil, errors.Trace(err)
	}
	err = db.CreateDBTables(ctx, checkDB)
	if err != nil {
		return nil, errors.Trace(err)
	}
	ctx = db.WithDB(ctx, checkDB)

	return ctx, nil
}

// GetPort returns the port the service listens on.
func GetPort(
	ctx context.Context,
) string {
	return env.Get(ctx).Config[EnvCfgPort]
}

// Build initializes the app and its web stack.
func Build(
	ctx context.Context,
) (*goji.Mux, error) {
	mux := goji.NewMux()
	mux.Use(requestlogger.Middleware)
	mux.Use(recoverer.Middleware)
	mux.Use(db.Middleware(db.GetDB(ctx)))
	mux.Use(env.Middleware(env.Get(ctx)))

	logging.Logf(ctx, "Initializing: environment=%s port=%s",
		env.Get(ctx).Environment, GetPort(ctx))

	(&Controller{}).Bind(mux)

	return mux, nil
}
