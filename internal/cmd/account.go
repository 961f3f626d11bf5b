package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/identity"
	"github.com/steveyegge/luckywheel/internal/style"
)

var registerCmd = &cobra.Command{
	Use:     "register <username>",
	GroupID: GroupAccount,
	Short:   "Create a password account and log in",
	Long: `Register a new player account with a username, email and secret.

New accounts start with one free spin. Usernames and emails are unique
ignoring case. When --secret is omitted it is prompted for without echo,
or read from the first line of stdin when stdin is not a terminal.

Examples:
  lw register alice --email alice@example.com
  echo s3cret | lw register bob --email bob@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:     "login [username]",
	GroupID: GroupAccount,
	Short:   "Log in with a password or a social provider",
	Long: `Log in to an existing account.

With a username, the secret is checked against the stored one. With
--provider, the provider vouches for the identity instead: the first sign-in
creates the account, later ones return to it.

When no OAuth client is configured for the provider, or --email/--name are
given, the sign-in is simulated with that identity.

Examples:
  lw login alice
  lw login --provider google
  lw login --provider facebook --email fan@example.com --name "Big Fan"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: GroupAccount,
	Short:   "End the current session",
	Args:    cobra.NoArgs,
	RunE:    runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: GroupAccount,
	Short:   "Show the logged-in account",
	Args:    cobra.NoArgs,
	RunE:    runWhoami,
}

var (
	registerEmail  string
	registerSecret string

	loginSecret   string
	loginProvider string
	loginEmail    string
	loginName     string
)

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address for the account")
	registerCmd.Flags().StringVar(&registerSecret, "secret", "", "Account secret (prompted when omitted)")

	loginCmd.Flags().StringVar(&loginSecret, "secret", "", "Account secret (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "Social provider: google or facebook")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email for a simulated social sign-in")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name for a simulated social sign-in")
}

func runRegister(cmd *cobra.Command, args []string) error {
	secret := registerSecret
	if secret == "" {
		var err error
		if secret, err = readSecret(cmd, "Secret: "); err != nil {
			return err
		}
	}

	u, err := current.dir.Register(cmd.Context(), args[0], registerEmail, secret)
	if err != nil {
		return err
	}
	return printResult(cmd, account.ResultOf(u, false, nil),
		fmt.Sprintf("Registered %s with %s spin(s). You are logged in.", style.Bold.Render(u.Username), u.Spins))
}

func runLogin(cmd *cobra.Command, args []string) error {
	if loginProvider != "" {
		if len(args) > 0 {
			return fmt.Errorf("%w: a username cannot be combined with --provider", account.ErrValidation)
		}
		return runSocialLogin(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: username is required", account.ErrValidation)
	}

	secret := loginSecret
	if secret == "" {
		var err error
		if secret, err = readSecret(cmd, "Secret: "); err != nil {
			return err
		}
	}

	u, err := current.dir.Login(cmd.Context(), args[0], secret)
	if err != nil {
		return err
	}
	return printResult(cmd, account.ResultOf(u, false, nil),
		fmt.Sprintf("Logged in as %s (%s, %s spins)", style.Bold.Render(u.Username), roleLabel(u.Role), u.Balance()))
}

func runSocialLogin(cmd *cobra.Command) error {
	ctx := cmd.Context()

	provider := account.NormalizeProvider(loginProvider)
	switch provider {
	case account.ProviderGoogle, account.ProviderFacebook:
	default:
		return fmt.Errorf("%w: unknown provider %q (want google or facebook)", account.ErrValidation, loginProvider)
	}

	var p identity.Provider
	if loginEmail != "" || loginName != "" {
		p = identity.Simulated(provider, loginEmail, loginName)
	} else {
		p = identity.FromConfig(provider, current.cfg, func(url, code string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Open %s and enter code %s\n",
				style.ArrowPrefix, style.Bold.Render(url), style.Bold.Render(code))
		})
	}

	id, err := p.Authenticate(ctx)
	if errors.Is(err, identity.ErrCanceled) {
		current.log.Debug(ctx, "social sign-in canceled", "provider", string(provider))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s sign-in failed: %v", account.ErrInvalidCredentials, provider, err)
	}

	u, returning, err := current.dir.SocialLogin(ctx, id.Social())
	if err != nil {
		return err
	}

	verb := "Welcome"
	if returning {
		verb = "Welcome back"
	}
	return printResult(cmd, account.ResultOf(u, returning, nil),
		fmt.Sprintf("%s, %s! Signed in with %s as %s (%s spins)",
			verb, u.DisplayName, provider, style.Bold.Render(u.Username), u.Balance()))
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := current.dir.Logout(cmd.Context()); err != nil {
		return err
	}
	return printResult(cmd, account.ResultOf(nil, false, nil), "Logged out")
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, err := current.dir.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		if ok, err := printJSON(cmd, account.ResultOf(nil, false, account.ErrNoSession)); ok {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, style.Dim.Render("Not logged in."))
		fmt.Fprintln(out, "Run 'lw login <username>' or 'lw register <username>' to start.")
		return nil
	}

	u, err := current.dir.Lookup(ctx, sess.Username)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, account.Result{Success: true, Code: account.CodeOK, User: u}); ok {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Current user:"), u.Username)
	if u.DisplayName != "" && !strings.EqualFold(u.DisplayName, u.Username) {
		fmt.Fprintf(out, "  Name:  %s\n", u.DisplayName)
	}
	fmt.Fprintf(out, "  Email: %s\n", u.Email)
	fmt.Fprintf(out, "  Role:  %s\n", roleLabel(u.Role))
	fmt.Fprintf(out, "  Spins: %s\n", u.Spins)
	if u.Provider != "" {
		fmt.Fprintf(out, "  %s %s\n", style.Dim.Render("Provider:"), style.Dim.Render(string(u.Provider)))
	}
	return nil
}
