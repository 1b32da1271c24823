package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/EnzoTheBrown/bribe/pkg/config"
	"github.com/EnzoTheBrown/bribe/pkg/crypto"
	"github.com/EnzoTheBrown/bribe/pkg/jwt"
)

func hashPasswordCmd() *cli.Command {
	var password string
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Print an Argon2id hash using the configured PASSWORD_HASH_* parameters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "password",
				Usage:       "Password to hash (prompted when omitted)",
				Destination: &password,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadAPIConfig()
			if err != nil {
				return err
			}
			plain, err := readSecret(c.App.Writer, "Password: ", password)
			if err != nil {
				return err
			}
			if plain == "" {
				return errors.New("password must not be empty")
			}
			hash, err := crypto.NewHasher(cfg.HashParams()).Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash)
			return nil
		},
	}
}

func issueTokenCmd() *cli.Command {
	var userID int64
	var email string
	return &cli.Command{
		Name:  "issue-token",
		Usage: "Sign an access token for a user with SECRET_KEY",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "user-id",
				Usage:       "Subject user id",
				Required:    true,
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "email",
				Usage:       "Email claim",
				Required:    true,
				Destination: &email,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadAPIConfig()
			if err != nil {
				return err
			}
			if cfg.SecretKey.IsZero() {
				return errors.New("SECRET_KEY is required")
			}
			token, expires, err := jwt.NewCodec(cfg.SecretKey, jwt.WithTTL(cfg.AccessTokenTTL)).Issue(userID, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			fmt.Fprintf(c.App.ErrWriter, "expires %s\n", expires.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}
}
