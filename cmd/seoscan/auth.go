package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type credentialFlags struct {
	email    string
	password string
}

func (c *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "account password (read from SEOSCAN_PASSWORD or stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
}

func (c *credentialFlags) resolvePassword(cmd *cobra.Command) error {
	if c.password != "" {
		return nil
	}
	if v := os.Getenv("SEOSCAN_PASSWORD"); v != "" {
		c.password = v
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	c.password = strings.TrimRight(line, "\r\n")
	return nil
}

func newSignupCommand(opts *cliOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return authenticate(cmd, opts, creds, true)
		},
	}
	creds.bind(cmd)
	return cmd
}

func newLoginCommand(opts *cliOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return authenticate(cmd, opts, creds, false)
		},
	}
	creds.bind(cmd)
	return cmd
}

func authenticate(cmd *cobra.Command, opts *cliOptions, creds *credentialFlags, signup bool) error {
	if err := creds.resolvePassword(cmd); err != nil {
		return err
	}
	c, err := opts.client()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if signup {
		err = c.Signup(ctx, creds.email, creds.password)
	} else {
		err = c.Login(ctx, creds.email, creds.password)
	}
	if err != nil {
		return err
	}
	if err := opts.saveToken(c.Token()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", strings.ToLower(strings.TrimSpace(creds.email)))
	return nil
}

func newLogoutCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c, err := opts.client(); err == nil {
				_ = c.Logout(cmd.Context())
			}
			if err := opts.clearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newProfileCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			u, err := c.Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", u.ID)
			fmt.Fprintf(out, "Email:   %s\n", u.Email)
			fmt.Fprintf(out, "Joined:  %s\n", u.CreatedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}
