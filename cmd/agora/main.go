package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"agora/internal/adapters/authapi"
	"agora/internal/adapters/store"
	"agora/internal/application/account"
	"agora/internal/application/forms"
	"agora/internal/application/session"
	"agora/internal/config"
	"agora/internal/domain/auth"
)

// Exit codes
const (
	exitOK        = 0
	exitFatal     = 1 // session could not be initialized or the service failed
	exitRejected  = 2 // form submission rejected
	exitForbidden = 3 // guard denied the view
)

// exitError carries a process exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := run(os.Args[1:]); err != nil {
		code := exitFatal
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(code)
	}
	os.Exit(exitOK)
}

func run(args []string) error {
	cfg := config.LoadClientConfig()

	flagSet := pflag.NewFlagSet("agora", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "base URL of the auth service")
	flagSet.StringVar(&cfg.Store.Kind, "store", cfg.Store.Kind, "session store: file, memory or redis")
	flagSet.StringVar(&cfg.Store.File, "session-file", cfg.Store.File, "session file (default: user configuration directory)")
	flagSet.StringVar(&cfg.Store.RedisAddr, "redis-addr", cfg.Store.RedisAddr, "redis address for the redis store")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	setupLogging(cfg.LogLevel)

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, see agora --help", name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sessionStore, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	client := authapi.NewClient(cfg.APIURL, cfg.Timeout())
	ctrl := session.New(client, sessionStore)
	defer ctrl.Close()
	if err := ctrl.Init(ctx); err != nil && !cmd.allowUnsynced {
		return &exitError{code: exitFatal, err: fmt.Errorf("initialize session: %w", err)}
	}

	e := &env{
		ctx:     ctx,
		client:  client,
		session: ctrl,
		account: account.NewService(ctrl, client),
	}
	return cmd.run(e, flagSet.Args()[1:])
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}

// openStore builds the session store selected by cfg
func openStore(cfg config.StoreConfig) (auth.SessionStore, func(), error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return store.NewRedisStore(client, cfg.RedisPrefix), func() { _ = client.Close() }, nil
	case config.StoreFile, "":
		path := cfg.File
		if path == "" {
			path = store.DefaultFilePath()
		}
		return store.NewFileStore(path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Kind)
	}
}

// rejected turns an unsuccessful form result into an exit error
func rejected(res forms.Result) error {
	if res.OK() {
		return nil
	}
	return &exitError{code: exitRejected, err: errors.New(res.Message())}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `agora drives an agora session from the command line.

The session is kept in the selected store between runs and is synced with
the auth service on every invocation.

Usage:
  agora [flags] <command> [command flags]

Commands:
`)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-22s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n%s", flagSet.FlagUsages())
}
