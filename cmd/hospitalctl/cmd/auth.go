package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/domain"
)

var errPasswordMismatch = errors.New("passwords do not match")

var authFlags struct {
	email          string
	name           string
	specialization string
	accessToken    string
	refreshToken   string
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, sign out and manage accounts",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if app.Session.IsAuthenticated(ctx) {
			user := app.Session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Already signed in as %s. Run `hospitalctl auth logout` first.\n", user.Email)
			return nil
		}

		p := newPrompter(cmd)

		email, err := p.value(authFlags.email, "email")
		if err != nil {
			return err
		}

		password, err := p.password("password")
		if err != nil {
			return err
		}

		profile, err := app.Session.SignIn(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login failed: %s", apiclient.Message(err))
		}

		app.History.Record(ctx, profile.Role.LandingPath())

		return printView(cmd.OutOrStdout(), outputFormat, profileView(profile))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Session.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		app.Analytics.Invalidate()
		app.History.Clear(cmd.Context())

		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")

		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a doctor account",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)

		var (
			in  domain.DoctorSignup
			err error
		)
		if in.Email, err = p.value(authFlags.email, "email"); err != nil {
			return err
		}
		if in.Name, err = p.value(authFlags.name, "full name"); err != nil {
			return err
		}
		if in.Specialization, err = p.value(authFlags.specialization, "specialization"); err != nil {
			return err
		}
		if in.Password, err = p.newPassword("password"); err != nil {
			return err
		}

		resp, err := app.Session.SignUp(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("signup failed: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, statusView(resp))
	},
}

var managementSignupCmd = &cobra.Command{
	Use:   "management-signup",
	Short: "Register a hospital management account",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)

		var (
			in  domain.ManagementSignup
			err error
		)
		if in.Email, err = p.value(authFlags.email, "email"); err != nil {
			return err
		}
		if in.FullName, err = p.value(authFlags.name, "full name"); err != nil {
			return err
		}
		if in.Password, err = p.newPassword("password"); err != nil {
			return err
		}

		resp, err := app.Session.ManagementSignUp(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("management signup failed: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, statusView(resp))
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset email",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := newPrompter(cmd).value(authFlags.email, "email")
		if err != nil {
			return err
		}

		resp, err := app.Session.ForgotPassword(cmd.Context(), email)
		if err != nil {
			return fmt.Errorf("password reset request failed: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, statusView(resp))
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with the tokens from the reset link",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)

		var (
			in  domain.PasswordReset
			err error
		)
		if in.AccessToken, err = p.value(authFlags.accessToken, "access token"); err != nil {
			return err
		}
		if in.RefreshToken, err = p.value(authFlags.refreshToken, "refresh token"); err != nil {
			return err
		}
		if in.NewPassword, err = p.newPassword("new password"); err != nil {
			return err
		}

		resp, err := app.Session.ResetPassword(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("password reset failed: %s", apiclient.Message(err))
		}

		return printView(cmd.OutOrStdout(), outputFormat, statusView(resp))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted credential and session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st := app.Session.TokenStatus(ctx)

		pairs := []string{
			"authenticated", yesNo(app.Session.IsAuthenticated(ctx)),
			"has token", yesNo(st.HasToken),
			"token valid", yesNo(st.TokenValid),
			"token length", itoa(st.TokenLength),
		}
		if st.TokenAge != nil {
			pairs = append(pairs, "token age", st.TokenAge.Round(time.Second).String())
		}
		if st.UserData != nil {
			pairs = append(pairs,
				"user", st.UserData.DisplayName(),
				"email", st.UserData.Email,
				"role", st.UserData.Role.String(),
			)
		}

		return printView(cmd.OutOrStdout(), outputFormat, fieldView(st, pairs...))
	},
}

func profileView(p *domain.Profile) view {
	return fieldView(p,
		"id", p.ID,
		"name", p.DisplayName(),
		"email", p.Email,
		"role", p.Role.String(),
		"specialization", p.Specialization,
	)
}

func statusView(resp *apiclient.StatusResponse) view {
	pairs := []string{"status", resp.Status, "message", resp.Message}
	if resp.DoctorID != "" {
		pairs = append(pairs, "doctor id", resp.DoctorID)
	}
	if resp.Email != "" {
		pairs = append(pairs, "email", resp.Email)
	}

	return fieldView(resp, pairs...)
}

func init() {
	loginCmd.Flags().StringVar(&authFlags.email, "email", "", "account email (prompted when empty)")

	signupCmd.Flags().StringVar(&authFlags.email, "email", "", "account email")
	signupCmd.Flags().StringVar(&authFlags.name, "name", "", "doctor's full name")
	signupCmd.Flags().StringVar(&authFlags.specialization, "specialization", "", "medical specialization")

	managementSignupCmd.Flags().StringVar(&authFlags.email, "email", "", "account email")
	managementSignupCmd.Flags().StringVar(&authFlags.name, "full-name", "", "manager's full name")

	forgotPasswordCmd.Flags().StringVar(&authFlags.email, "email", "", "account email")

	resetPasswordCmd.Flags().StringVar(&authFlags.accessToken, "access-token", "", "access token from the reset link")
	resetPasswordCmd.Flags().StringVar(&authFlags.refreshToken, "refresh-token", "", "refresh token from the reset link")

	authCmd.AddCommand(loginCmd, logoutCmd, signupCmd, managementSignupCmd,
		forgotPasswordCmd, resetPasswordCmd, statusCmd)
	rootCmd.AddCommand(authCmd)
}
