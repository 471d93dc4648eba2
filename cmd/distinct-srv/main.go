package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spolu/distinct/app"
	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/logging"
	"github.com/spolu/distinct/model"
	"github.com/zenazn/goji/graceful"
	"goji.io"
)

var actFlag string

var envFlag string
var dsnFlag string
var prtFlag string

var usrFlag string
var emlFlag string
var tntFlag string
var pasFlag string

func init() {
	flag.StringVar(&actFlag, "action",
		"run", "The action to perform")

	flag.StringVar(&envFlag, "env",
		"qa", "The environment to run in (qa, production), default: qa")
	flag.StringVar(&dsnFlag, "db_dsn",
		"", "The DSN of the database to use, default: sqlite3://~/.distinct/distinct-$env.db")
	flag.StringVar(&prtFlag, "port",
		"", "The port to listen on, default: 2406 (production), 2407 (qa)")

	flag.StringVar(&usrFlag, "username",
		"foo", "The username of the user to create")
	flag.StringVar(&emlFlag, "email",
		"foo@example.com", "The email of the user to create")
	flag.StringVar(&tntFlag, "tenant",
		"default", "The tenant of the user to create")
	flag.StringVar(&pasFlag, "password",
		"bar", "The password of the user to create")

	if fl := log.Flags(); fl&log.Ltime != 0 {
		log.SetFlags(fl | log.Lmicroseconds)
	}
	graceful.DoubleKickWindow(2 * time.Second)
}

// Serve starts the given mux on the configured port using reasonable
// defaults.
func Serve(ctx context.Context, mux *goji.Mux) {
	listener, err := net.Listen("tcp", ":"+app.GetPort(ctx))
	if err != nil {
		log.Fatal(err)
	}
	ServeListener(mux, listener)
}

// ServeListener is like Serve, but runs `mux` on top of an arbitrary
// net.Listener.
func ServeListener(mux *goji.Mux, listener net.Listener) {
	// Install our handler at the root of the standard net/http default mux.
	// This allows packages like expvar to continue working as expected.
	http.Handle("/", mux)

	log.Println("Starting Goji on", listener.Addr())

	graceful.HandleSignals()
	graceful.PreHook(func() { log.Printf("Goji received signal, gracefully stopping") })
	graceful.PostHook(func() { log.Printf("Goji stopped") })

	err := graceful.Serve(listener, http.DefaultServeMux)

	if err != nil {
		log.Fatal(err)
	}

	graceful.Wait()
}

func main() {
	if !flag.Parsed() {
		flag.Parse()
	}

	ctx, err := app.BackgroundContextFromFlags(
		envFlag, dsnFlag, prtFlag,
	)
	if err != nil {
		log.Fatal(errors.Details(err))
	}

	validActions := []string{"run", "create_user"}
	switch actFlag {
	case "run":
		mux, err := app.Build(ctx)
		if err != nil {
			log.Fatal(errors.Details(err))
		}
		Serve(ctx, mux)
	case "create_user":
		createUser(ctx, usrFlag, emlFlag, tntFlag, pasFlag)
	default:
		log.Fatalf("Invalid action `%s`, valid actions are: %s",
			actFlag, strings.Join(validActions, ", "))
	}
}

func createUser(
	ctx context.Context,
	username string,
	email string,
	tenant string,
	password string,
) {
	ctx = db.Begin(ctx)
	defer db.LoggedRollback(ctx)

	logging.Logf(ctx, "Creating user: %s", username)
	_, err := model.CreateUser(ctx, username, email, tenant, password)
	if err != nil {
		log.Fatal(errors.Details(err))
	}

	db.Commit(ctx)
}
