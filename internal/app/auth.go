package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mequqqe1/kazbooks-app/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in and store the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password := args[0], args[1]

			pair, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := sess.Set(pair.AccessToken, pair.RefreshToken, &session.Profile{Email: email}); err != nil {
				return err
			}

			fmt.Printf("Signed in as %s\n", email)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var fullName string

	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password := args[0], args[1]

			if err := client.Register(cmd.Context(), email, password, fullName); err != nil {
				return err
			}

			// Registration succeeded; sign in right away.
			pair, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := sess.Set(pair.AccessToken, pair.RefreshToken, &session.Profile{Email: email, FullName: fullName}); err != nil {
				return err
			}

			fmt.Printf("Registered and signed in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "Full name for the new account")
	return cmd
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := sess.User()
			if !ok {
				return fmt.Errorf("not signed in: kazbooks login")
			}

			fmt.Println(user.Email)
			if user.FullName != "" {
				fmt.Println(user.FullName)
			}
			return nil
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a fresh session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh, ok := sess.RefreshToken()
			if !ok {
				return fmt.Errorf("no refresh token stored: kazbooks login")
			}

			pair, err := client.Refresh(cmd.Context(), refresh)
			if err != nil {
				return err
			}

			// Keep the profile; only the tokens rotate.
			user, _ := sess.User()
			if err := sess.Set(pair.AccessToken, pair.RefreshToken, user); err != nil {
				return err
			}

			fmt.Println("Session refreshed")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sess.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}
