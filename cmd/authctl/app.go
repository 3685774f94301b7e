package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkrupp/jwtauth/internal/infra/config"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	"github.com/mkrupp/jwtauth/internal/repo/user"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc/authclient"
	"github.com/mkrupp/jwtauth/internal/svc/usersvc"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var (
	errUsage        = errors.New("usage")
	errTokenInvalid = errors.New("token rejected")
)

// Config is what authctl reads from the environment. It shares the service's
// namespace so both see the same store.
type Config struct {
	config.EnvConfig

	Log    logging.LoggerConfig        `envPrefix:"LOG_"`
	User   user.RepositoryConfig       `envPrefix:"USER_"`
	Client authclient.HTTPClientConfig `envPrefix:"CLIENT_"`

	PasswordCost int `env:"AUTH_PASSWORD_COST" default:"10"`
}

// signingConfig is parsed only by the commands that mint tokens locally.
type signingConfig struct {
	config.EnvConfig

	Auth authsvc.AuthConfig `envPrefix:"AUTH_"`
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, cfg Config, args []string) error
}

//nolint:gochecknoglobals
var commands = map[string]command{
	"hash":        {"hash [-cost N]", (*app).hash},
	"calibrate":   {"calibrate [-target 250ms] [-max 16]", (*app).calibrate},
	"create-user": {"create-user -username NAME [-first NAME] [-last NAME]", (*app).createUser},
	"register":    {"register -username NAME [-first NAME] [-last NAME]", (*app).register},
	"login":       {"login -username NAME", (*app).login},
	"refresh":     {"refresh TOKEN", (*app).refresh},
	"validate":    {"validate TOKEN", (*app).validate},
	"issue":       {"issue -username NAME", (*app).issue},
	"renew":       {"renew TOKEN", (*app).renew},
}

type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPrefix string
	readPassword func(fd int) ([]byte, error)
	isTerminal   func(fd int) bool
	httpClient   *http.Client
	now          func() time.Time
}

func newApp(in io.Reader, out, errOut io.Writer, configPrefix string) *app {
	return &app{
		in:           bufio.NewReader(in),
		out:          out,
		errOut:       errOut,
		configPrefix: configPrefix,
		readPassword: readPassword,
		isTerminal:   isTerminal,
		now:          time.Now,
	}
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()

		return exitUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n", args[0])
		a.usage()

		return exitUsage
	}

	var cfg Config
	if err := config.Parse(ctx, &cfg, a.configPrefix); err != nil {
		fmt.Fprintf(a.errOut, "config: %v\n", err)

		return exitFail
	}

	logging.Configure(ctx, cfg.Log, strings.ToLower(cmdName))

	if err := cmd.run(a, ctx, cfg, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(a.errOut, "usage: %s %s\n", cmdName, cmd.usage)

			return exitUsage
		}

		fmt.Fprintf(a.errOut, "%s: %v\n", args[0], err)

		return exitFail
	}

	return exitOK
}

func (a *app) usage() {
	fmt.Fprintf(a.errOut, "usage: %s <command> [flags]\n\ncommands:\n", cmdName)

	for _, name := range []string{"hash", "calibrate", "create-user", "register", "login", "refresh", "validate", "issue", "renew"} {
		fmt.Fprintf(a.errOut, "  %s\n", commands[name].usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)

	return fs
}

func (a *app) client(cfg Config) *authclient.HTTPClient {
	return authclient.NewHTTPClient(cfg.Client, a.httpClient)
}

func (a *app) hash(_ context.Context, cfg Config, args []string) error {
	fs := a.flags("hash")
	cost := fs.Int("cost", cfg.PasswordCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		return err
	}

	hasher, err := authsvc.NewPasswordHasher(*cost)
	if err != nil {
		return err
	}

	password, err := a.promptPassword("Password: ")
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, hash)

	return nil
}

func (a *app) calibrate(_ context.Context, _ Config, args []string) error {
	fs := a.flags("calibrate")
	target := fs.Duration("target", 250*time.Millisecond, "minimum time per hash")
	maxCost := fs.Int("max", 16, "highest cost to try")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cost, took, err := authsvc.Calibrate(*target, *maxCost)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "cost %d (%s per hash)\n", cost, took.Round(time.Millisecond))

	return nil
}

// registrationFlags parses the flags shared by create-user and register and
// prompts for the password.
func (a *app) registrationFlags(name string, args []string) (map[string]any, error) {
	fs := a.flags(name)
	username := fs.String("username", "", "username")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *username == "" {
		return nil, errUsage
	}

	password, err := a.promptPassword("Password: ")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"username":  *username,
		"password":  password,
		"firstName": *first,
		"lastName":  *last,
	}, nil
}

func (a *app) createUser(ctx context.Context, cfg Config, args []string) error {
	body, err := a.registrationFlags("create-user", args)
	if err != nil {
		return err
	}

	reg, verr := usersvc.ValidateRegistration(body)
	if verr != nil {
		return verr
	}

	hasher, err := authsvc.NewPasswordHasher(cfg.PasswordCost)
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx, cfg.User)
	if err != nil {
		return err
	}
	defer repo.Close()

	created, err := usersvc.NewUserService(repo, hasher).Register(ctx, reg)
	if err != nil {
		return err
	}

	return a.printJSON(created)
}

func (a *app) register(ctx context.Context, cfg Config, args []string) error {
	body, err := a.registrationFlags("register", args)
	if err != nil {
		return err
	}

	// the service validates again; this only saves a round trip
	reg, verr := usersvc.ValidateRegistration(body)
	if verr != nil {
		return verr
	}

	created, err := a.client(cfg).Register(ctx, authclient.RegisterRequest{
		Username:  reg.Username,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	})
	if err != nil {
		return err
	}

	return a.printJSON(created)
}

func (a *app) credentials(name string, args []string) (string, string, error) {
	fs := a.flags(name)
	username := fs.String("username", "", "username")

	if err := fs.Parse(args); err != nil {
		return "", "", err
	}

	if *username == "" {
		return "", "", errUsage
	}

	password, err := a.promptPassword("Password: ")
	if err != nil {
		return "", "", err
	}

	return *username, password, nil
}

func (a *app) login(ctx context.Context, cfg Config, args []string) error {
	username, password, err := a.credentials("login", args)
	if err != nil {
		return err
	}

	token, err := a.client(cfg).Login(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, token)

	return nil
}

func tokenArg(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", errUsage
	}

	return args[0], nil
}

func (a *app) refresh(ctx context.Context, cfg Config, args []string) error {
	token, err := tokenArg(args)
	if err != nil {
		return err
	}

	token, err = a.client(cfg).Refresh(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, token)

	return nil
}

func (a *app) validate(ctx context.Context, cfg Config, args []string) error {
	token, err := tokenArg(args)
	if err != nil {
		return err
	}

	ok, err := a.client(cfg).Validate(ctx, token)
	if err != nil {
		return err
	}

	if !ok {
		return errTokenInvalid
	}

	fmt.Fprintln(a.out, "valid")

	return nil
}

// issue checks credentials against the store and signs a token locally.
func (a *app) issue(ctx context.Context, cfg Config, args []string) error {
	username, password, err := a.credentials("issue", args)
	if err != nil {
		return err
	}

	svc, err := a.localService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	token, result := svc.Tokens.Login(ctx, username, password, a.now())
	if !result.OK() {
		return fmt.Errorf("%s: %w", result.Outcome, result.Err())
	}

	fmt.Fprintln(a.out, token)

	return nil
}

// renew re-signs a still valid token locally.
func (a *app) renew(ctx context.Context, cfg Config, args []string) error {
	token, err := tokenArg(args)
	if err != nil {
		return err
	}

	svc, err := a.localService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	token, result := svc.Tokens.Refresh(ctx, token, a.now())
	if !result.OK() {
		return fmt.Errorf("%s: %w", result.Outcome, result.Err())
	}

	fmt.Fprintln(a.out, token)

	return nil
}

func (a *app) localService(ctx context.Context, cfg Config) (*authsvc.AuthService, error) {
	var signing signingConfig
	if err := config.Parse(ctx, &signing, a.configPrefix); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	factory, err := user.NewRepositoryFactory(cfg.User)
	if err != nil {
		return nil, err
	}

	return authsvc.OpenAuthService(ctx, factory, signing.Auth, nil)
}

func openRepository(ctx context.Context, cfg user.RepositoryConfig) (user.Repository, error) {
	factory, err := user.NewRepositoryFactory(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("open user repository: %w", err)
	}

	return repo, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
