package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	apiclient "github.com/EnzoTheBrown/bribe/pkg/api/client"
)

const defaultAPIBaseURL = "http://localhost:8080"

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

func apiFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "api",
		Usage:       "API base URL (defaults to the saved one, then " + defaultAPIBaseURL + ")",
		EnvVars:     []string{"BRIBE_API"},
		Destination: dst,
	}
}

func loginCmd() *cli.Command {
	var email, password, apiBase string
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the access token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Email address", Required: true, Destination: &email},
			&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)", Destination: &password},
			apiFlag(&apiBase),
		},
		Action: func(c *cli.Context) error {
			secret, err := readSecret(c.App.Writer, "Password: ", strings.TrimSpace(password))
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(apiBase) != "" {
				cfg.APIBaseURL = apiBase
			}
			client, err := apiclient.New(cfg.APIBaseURL)
			if err != nil {
				return err
			}
			tok, err := client.Login(c.Context, email, secret)
			if err != nil {
				return err
			}
			cfg.AccessToken = tok.AccessToken
			if err := saveConfig(cfg); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Fprintln(c.App.Writer, "logged in")
			return nil
		},
	}
}

func whoamiCmd() *cli.Command {
	var apiBase string
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the account behind the stored access token",
		Flags: []cli.Flag{apiFlag(&apiBase)},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AccessToken == "" {
				return errors.New("not logged in; run `bribe login` first")
			}
			if strings.TrimSpace(apiBase) != "" {
				cfg.APIBaseURL = apiBase
			}
			client, err := apiclient.New(cfg.APIBaseURL)
			if err != nil {
				return err
			}
			me, err := client.Me(c.Context, cfg.AccessToken)
			if err != nil {
				if apiclient.IsUnauthorized(err) {
					return errors.New("stored token rejected; run `bribe login` again")
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\n", me.ID, me.Email, me.FullName)
			return nil
		},
	}
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: defaultAPIBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "bribe", "config.json"), nil
}
