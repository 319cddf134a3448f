package commands

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/cli/userconfig"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/logger"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Global flags, bound by the root command
var (
	APIURL  string
	Verbose bool
)

const requestTimeout = 30 * time.Second

// newStorage returns where credentials for an API live. Tests replace it.
var newStorage = func(apiURL string) session.Storage {
	return session.NewKeyringStorage(userconfig.HostOf(apiURL))
}

// cliSession is the auth context of one command invocation
type cliSession struct {
	apiURL   string
	provider *authctx.Provider
	client   *api.Client
	log      zerolog.Logger
}

// openSession resolves the API URL and loads the stored credentials for it
func openSession() (*cliSession, error) {
	apiURL, err := userconfig.ResolveAPIURL(APIURL)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if Verbose {
		level = "debug"
	}
	log := logger.New(level, "console", os.Stderr)

	store := session.NewStore(newStorage(apiURL), nil, log)

	var provider *authctx.Provider
	client := api.New(apiURL, requestTimeout, log).WithSession(store.Token, func() {
		provider.ExpireSession()
	})
	provider = authctx.NewProvider(store, authsvc.New(client, log), authctx.WithLogger(log))
	provider.Hydrate()

	return &cliSession{
		apiURL:   apiURL,
		provider: provider,
		client:   client,
		log:      log,
	}, nil
}

// requireLogin returns an error unless a session is stored
func (s *cliSession) requireLogin() error {
	if !s.provider.IsAuthenticated() {
		return fmt.Errorf("not authenticated. Please run 'fleetctl login' first")
	}
	return nil
}

// valueOr returns value, falling back to the environment variable env
func valueOr(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}

// readSecret returns value when set, otherwise prompts on the terminal
func readSecret(out io.Writer, value, prompt, flagHint string) (string, error) {
	if value != "" {
		return value, nil
	}

	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode (use %s)", prompt, flagHint)
	}

	fmt.Fprintf(out, "%s: ", prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", prompt, err)
	}
	return string(secret), nil
}

func printUser(out io.Writer, user session.User) {
	fmt.Fprintf(out, "  User: %s (%s)\n", user.FullName(), user.Email)
	fmt.Fprintf(out, "  Role: %s\n", roleLabel(user.Role))
}

func roleLabel(role session.Role) string {
	switch role {
	case session.RoleAdmin:
		return "Admin"
	case session.RoleOwner:
		return "Owner"
	case session.RoleDriver:
		return "Driver"
	case session.RoleAPIClient:
		return "API client"
	default:
		return string(role)
	}
}
