package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/arco-rh/arco-client/config"
	"github.com/arco-rh/arco-client/internal/bootstrap"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stdin  io.Reader

	client *bootstrap.Client
	build  func(cmdCtx *commandContext) (*bootstrap.Client, error)
}

// Client builds the session and request pipeline on first use.
func (c *commandContext) Client() (*bootstrap.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	build := c.build
	if build == nil {
		build = buildClient
	}
	client, err := build(c)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Close waits for a pending login redirect and releases the client.
func (c *commandContext) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.WaitRedirect()
	return c.client.Close()
}

func buildClient(cmdCtx *commandContext) (*bootstrap.Client, error) {
	if err := bootstrap.ValidateConfig(&cmdCtx.Config); err != nil {
		return nil, err
	}
	store, closer, err := bootstrap.BuildStorage(cmdCtx.Ctx, bootstrap.StorageDeps{
		Storage: cmdCtx.Config.Storage,
		Redis:   cmdCtx.Config.Redis,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	client, err := bootstrap.BuildClient(bootstrap.ClientDeps{
		Config: &cmdCtx.Config,
		Store:  store,
		Out:    cmdCtx.Stdout,
		Logger: cmdCtx.Logger,
		Closer: closer,
	})
	if err != nil {
		return nil, errors.Join(err, closer.Close())
	}
	return client, nil
}

func main() {
	logger := bootstrap.InitLogger(os.Stderr, slog.LevelWarn)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(os.Stderr, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	if closeErr := cmdCtx.Close(); closeErr != nil {
		logger.WarnContext(ctx, "close client failed", "error", closeErr)
	}
	if runErr != nil {
		logger.DebugContext(ctx, "command failed", "command", cmdName, "error", runErr)
		if writeErr := writef(os.Stderr, "error: %s\n", apperrors.Message(runErr)); writeErr != nil {
			logger.Error("print command error failed", "error", writeErr)
		}
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in and store the session",
			run:         runLogin,
		},
		"register": {
			name:        "register",
			description: "Create an account and store the session",
			run:         runRegister,
		},
		"logout": {
			name:        "logout",
			description: "Clear the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the stored profile and token details",
			run:         runWhoami,
		},
		"profile": {
			name:        "profile",
			description: "Refresh the profile from the server, or update fields with --set",
			run:         runProfile,
		},
		"passwd": {
			name:        "passwd",
			description: "Change the password of the signed-in user",
			run:         runChangePassword,
		},
		"reset-request": {
			name:        "reset-request",
			description: "Ask the server to send a password reset email",
			run:         runResetRequest,
		},
		"reset": {
			name:        "reset",
			description: "Set a new password with a reset token",
			run:         runReset,
		},
		"get": {
			name:        "get",
			description: "GET an API path and print the envelope",
			run:         verbCommand("get"),
		},
		"post": {
			name:        "post",
			description: "POST a JSON or multipart body to an API path",
			run:         verbCommand("post"),
		},
		"put": {
			name:        "put",
			description: "PUT a JSON or multipart body to an API path",
			run:         verbCommand("put"),
		},
		"patch": {
			name:        "patch",
			description: "PATCH a JSON or multipart body to an API path",
			run:         verbCommand("patch"),
		},
		"delete": {
			name:        "delete",
			description: "DELETE an API path",
			run:         verbCommand("delete"),
		},
		"download": {
			name:        "download",
			description: "Download a file into the download directory",
			run:         runDownload,
		},
		"fetch": {
			name:        "fetch",
			description: "GET several API paths concurrently",
			run:         runFetch,
		},
		"resource": {
			name:        "resource",
			description: "List, read, create, update or delete a domain resource",
			run:         runResource,
		},
		"guard": {
			name:        "guard",
			description: "Check page access for the stored session (auth, role, guest)",
			run:         runGuard,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: arcoctl <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
