package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ehrlich-b/csrv/internal/auth"
	"github.com/ehrlich-b/csrv/internal/config"
)

// storedPassword is the password argument that means "use the keyring".
const storedPassword = "-"

type secretStore interface {
	Load(email string) (string, error)
}

func resolvePassword(arg, email string, cfg *config.Config, store secretStore, prompt func(string) (string, error)) (string, error) {
	if arg != storedPassword {
		return arg, nil
	}
	if cfg.KeyringEnabled() {
		pw, err := store.Load(email)
		if err == nil {
			return pw, nil
		}
		if !errors.Is(err, auth.ErrNoSecret) {
			return "", err
		}
	}
	return prompt(email)
}

func promptPassword(email string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", email)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// writeDefaultConfig creates path with the defaults unless it already exists.
func writeDefaultConfig(path, baseURL string) (bool, error) {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return false, err
	}
	cfg := config.Default()
	cfg.BaseURL = baseURL
	if err := config.Save(path, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Verify a panel password and save it in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if !cfg.KeyringEnabled() {
				return errors.New("keyring is disabled in the config")
			}
			email := args[0]
			pw, err := promptPassword(email)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := auth.NewClient(cfg.BaseURL).Login(ctx, email, pw); err != nil {
				return err
			}
			if err := auth.NewKeyring().Save(email, pw); err != nil {
				return err
			}
			fmt.Printf("Saved password for %s\n", email)

			created, err := writeDefaultConfig(configFlag, cfg.BaseURL)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if created {
				fmt.Printf("Wrote %s\n", configFlag)
			}
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <email>",
		Short: "Remove a saved panel password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(); err != nil {
				return err
			}
			if err := auth.NewKeyring().Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed password for %s\n", args[0])
			return nil
		},
	}
}
