package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/EnzoTheBrown/bribe/pkg/logger"
)

var buildVersion = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	app := newApp(os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.New("bribe", slog.LevelInfo).Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "bribe",
		Usage:   "Operate the bribe API: migrations, credentials and sessions",
		Version: strings.TrimSpace(buildVersion),
		Writer:  out,
		Commands: []*cli.Command{
			migrateCmd(),
			hashPasswordCmd(),
			issueTokenCmd(),
			loginCmd(),
			whoamiCmd(),
		},
	}
}

// readSecret returns value when set, otherwise prompts on the terminal
// without echo.
func readSecret(out io.Writer, prompt, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(out, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}
