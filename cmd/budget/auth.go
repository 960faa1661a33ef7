package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/my-budget-client/internal/cli"
	"github.com/Veraticus/my-budget-client/internal/common"
	"github.com/Veraticus/my-budget-client/internal/model"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the budget service",
		Long: `Sign in with your username and password. Tokens are stored in the
credentials file and used by every other command.

The password is prompted for without echoing it. It can also come from the
BUDGET_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			reader := cli.NewLineReader(cmd.InOrStdin(), out)

			username, _ := cmd.Flags().GetString("username")
			if username == "" {
				username, err = reader.Require(ctx, "Username")
				if err != nil {
					return err
				}
			}

			password, _ := cmd.Flags().GetString("password")
			if password != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("--password leaves the password in your shell history; prefer the prompt or BUDGET_PASSWORD."))
			}
			if password == "" {
				password = os.Getenv("BUDGET_PASSWORD")
			}
			if password == "" {
				password, err = reader.Password(ctx, "Password")
				if err != nil {
					return err
				}
			}

			if _, err := client.Login(ctx, username, password); err != nil {
				return err
			}

			name := username
			if profile, err := client.FetchUserProfile(ctx); err != nil {
				slog.Warn("Failed to load profile after login", "error", err)
			} else if profile.FirstName != "" {
				name = profile.FirstName
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Welcome, %s!", name)))
			return nil
		},
	}

	cmd.Flags().StringP("username", "u", "", "username")
	cmd.Flags().StringP("password", "p", "", "password (visible in shell history; prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			if !client.Auth().IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Not logged in."))
				return nil
			}

			if err := client.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("The service did not confirm the logout; local tokens were removed anyway."))
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Logged out."))
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			if _, err := client.RefreshToken(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Access token refreshed."))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored credentials belong to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !client.Auth().IsAuthenticated() {
				fmt.Fprintln(out, cli.FormatInfo("Not logged in."))
				return nil
			}

			username := client.Auth().Profile.Get().Username
			if username == "" {
				username = "(unknown user)"
			}
			fmt.Fprintf(out, "%s %s\n", cli.KeyIcon, username)
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your user profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			profile, err := client.FetchUserProfile(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Profile", renderProfile(*profile)))
			return nil
		},
	}

	cmd.AddCommand(updateProfileCmd())
	return cmd
}

func updateProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Long:  `Only the fields given as flags are sent; everything else is left as it is.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			update := model.UserProfileUpdate{
				Email:       stringFlag(cmd, "email"),
				FirstName:   stringFlag(cmd, "first-name"),
				LastName:    stringFlag(cmd, "last-name"),
				Bio:         stringFlag(cmd, "bio"),
				Country:     stringFlag(cmd, "country"),
				City:        stringFlag(cmd, "city"),
				PostalCode:  stringFlag(cmd, "postal-code"),
				AddressLine: stringFlag(cmd, "address"),
			}
			if update == (model.UserProfileUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			profile, err := client.UpdateUserProfile(cmd.Context(), update)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Profile updated."))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Profile", renderProfile(*profile)))
			return nil
		},
	}

	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("bio", "", "short bio")
	cmd.Flags().String("country", "", "country")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("postal-code", "", "postal code")
	cmd.Flags().String("address", "", "street address")

	return cmd
}

func renderProfile(p model.UserProfile) string {
	status := ""
	if p.IsActive != nil && !*p.IsActive {
		status = cli.WarningStyle.Render("inactive")
	}

	return renderRows([][2]string{
		{"Username", p.Username},
		{"Name", strings.TrimSpace(p.FirstName + " " + p.LastName)},
		{"Email", p.Email},
		{"Role", p.Role},
		{"Location", strings.Trim(strings.Join([]string{p.City, p.Country}, ", "), ", ")},
		{"Address", strings.TrimSpace(p.AddressLine + " " + p.PostalCode)},
		{"Bio", p.Bio},
		{"Last login", p.LastLogin},
		{"Status", status},
	})
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the budget service",
		Long: `Create an account. Missing fields are prompted for; the password is
asked for twice and never echoed. Registering does not sign you in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			reader := cli.NewLineReader(cmd.InOrStdin(), out)
			req := model.RegisterRequest{
				Username:  deref(stringFlag(cmd, "username")),
				Email:     deref(stringFlag(cmd, "email")),
				FirstName: deref(stringFlag(cmd, "first-name")),
				LastName:  deref(stringFlag(cmd, "last-name")),
			}
			if req.Username == "" {
				if req.Username, err = reader.Require(ctx, "Username"); err != nil {
					return err
				}
			}
			if req.Email == "" {
				if req.Email, err = reader.Require(ctx, "Email"); err != nil {
					return err
				}
			}
			if req.Password, err = confirmedPassword(ctx, reader, "Password"); err != nil {
				return err
			}

			user, err := client.Register(ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created account %s (ID %d).", user.Username, user.ID)))
			fmt.Fprintln(out, cli.FormatInfo("Run 'budget login' to sign in."))
			return nil
		},
	}

	cmd.Flags().StringP("username", "u", "", "username (at least 3 characters)")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")

	return cmd
}

func passwordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Long: `Change your password. The current and new passwords are prompted for
without echoing them. You stay signed in afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, err := initClient(cmd)
			if err != nil {
				return err
			}

			reader := cli.NewLineReader(cmd.InOrStdin(), out)
			current, err := reader.Password(ctx, "Current password")
			if err != nil {
				return err
			}
			next, err := confirmedPassword(ctx, reader, "New password")
			if err != nil {
				return err
			}

			msg, err := client.ChangePassword(ctx, current, next)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(msg))
			return nil
		},
	}
}

// confirmedPassword asks for a password twice and fails when they differ.
func confirmedPassword(ctx context.Context, reader *cli.LineReader, label string) (string, error) {
	first, err := reader.Password(ctx, label)
	if err != nil {
		return "", err
	}
	second, err := reader.Password(ctx, "Repeat "+strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", common.NewUserError("the passwords do not match", nil)
	}
	return first, nil
}
