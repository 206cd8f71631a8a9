package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRegisterCommand(a *app) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := a.client.Register(cmd.Context(), email, pw, name); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User created successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd, password)
			if err != nil {
				return err
			}
			s, err := a.client.Login(cmd.Context(), email, pw)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", s.User.Name, s.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				// The local session is already gone.
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
}

func promptPassword(cmd *cobra.Command, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	pw, err := readPassword(cmd.InOrStdin())
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if pw == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return pw, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
