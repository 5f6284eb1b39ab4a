package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/templui/dashh/internal/app"
	"github.com/templui/dashh/internal/config"
	"github.com/templui/dashh/internal/logger"
	"github.com/templui/dashh/internal/result"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

type action func(c *cli.Context, a *app.App) error

// withApp loads configuration and builds the application for one command.
func withApp(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.IsDevelopment(), cfg.LogLevel, cfg.SentryDSN)

		a, err := app.New(c.Context, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		return fn(c, a)
	}
}

// withSession logs in before the command and logs out after it.
func withSession(fn action) cli.ActionFunc {
	return withApp(func(c *cli.Context, a *app.App) error {
		email, password, err := credentials(c)
		if err != nil {
			return err
		}

		_, err = unwrap(a.Persistence.Login(c.Context, email, password))
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		defer a.Persistence.Logout(context.Background())

		err = fn(c, a)
		if note := fallbackNote(a.Persistence); note != "" {
			fmt.Fprintln(os.Stderr, note)
		}
		return err
	})
}

type fallbackReporter interface {
	UsingLocal() bool
	ServedLocally() bool
}

// fallbackNote tells the user when results came from this device's copy.
func fallbackNote(p fallbackReporter) string {
	switch {
	case p.UsingLocal():
		return "note: remote backend unreachable, results come from local storage"
	case p.ServedLocally():
		return "note: remote backend timed out, some results come from local storage"
	default:
		return ""
	}
}

func credentials(c *cli.Context) (string, string, error) {
	email := strings.TrimSpace(c.String("email"))
	password := c.String("password")

	if email == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Fprint(os.Stderr, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pw)
	}

	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

// unwrap turns a failed result into an error that carries its kind.
func unwrap[T any](r result.Result[T]) (T, error) {
	v, ok := r.Value()
	if ok {
		return v, nil
	}
	failure, _ := r.Failure()
	return v, failure
}

// emit prints the result as JSON when --json is set, otherwise calls text
// on success.
func emit[T any](c *cli.Context, r result.Result[T], text func(T)) error {
	if c.Bool("json") {
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(b))
		_, err = unwrap(r)
		return err
	}

	v, err := unwrap(r)
	if err != nil {
		return err
	}
	text(v)
	return nil
}
