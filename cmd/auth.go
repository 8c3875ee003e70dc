package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagEmail      string
	flagName       string
	flagOccupation string
	flagVerify     bool
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE:  runSignIn,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runSignUp,
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runSignOut,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoAmI,
}

func init() {
	signinCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&flagName, "name", "", "Your name")
	signupCmd.Flags().StringVar(&flagOccupation, "occupation", "", "Your occupation")
	whoamiCmd.Flags().BoolVar(&flagVerify, "verify", false, "Check the token with the auth provider")

	rootCmd.AddCommand(signinCmd, signupCmd, signoutCmd, whoamiCmd)
}

// prompter reads answers from the command's stdin. Passwords are read
// without echo when stdin is a terminal.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(p.cmd.ErrOrStderr(), "  %s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword is replaced in tests.
var readPassword = func(fd int) ([]byte, error) { return term.ReadPassword(fd) }

func (p *prompter) password() (string, error) {
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.cmd.ErrOrStderr(), "  Password: ")
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(p.cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return p.ask("Password", "")
}

func (p *prompter) confirm(label string) bool {
	ans, err := p.ask(label+" [Y/n]", "")
	if err != nil {
		return false
	}
	return ans == "" || strings.EqualFold(ans, "y") || strings.EqualFold(ans, "yes")
}

func runSignIn(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p := newPrompter(cmd)

	email, err := p.ask("Email", flagEmail)
	if err != nil {
		return err
	}
	password, err := p.password()
	if err != nil {
		return err
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	progress(cmd, "Signing in...")
	s, err := e.sess.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "  "+cli.OK("Signed in as "+s.DisplayName()))
	return nil
}

func runSignUp(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p := newPrompter(cmd)
	out := cmd.OutOrStdout()

	name, err := p.ask("Name", flagName)
	if err != nil {
		return err
	}
	occupation, err := p.ask("Occupation", flagOccupation)
	if err != nil {
		return err
	}
	email, err := p.ask("Email", flagEmail)
	if err != nil {
		return err
	}
	password, err := p.password()
	if err != nil {
		return err
	}
	if email == "" || password == "" || name == "" {
		return apperr.Validation("Name, email and password are required.")
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	progress(cmd, "Creating account...")
	s, err := e.sess.SignUp(ctx, email, password, name, occupation)
	for apperr.KindOf(err) == apperr.KindProfileWrite {
		fmt.Fprintln(out, "  "+cli.Warn(err.Error()))
		if !p.confirm("Retry saving your profile?") {
			return err
		}
		s, err = e.sess.RetryProfile(ctx)
	}
	if err != nil {
		return err
	}

	if s == nil {
		fmt.Fprintln(out, "  "+cli.OK("Account created. Confirm your email, then run `pennypal signin`."))
		return nil
	}
	fmt.Fprintln(out, "  "+cli.OK("Account created. Signed in as "+s.DisplayName()))
	return nil
}

func runSignOut(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.sess.Restore(ctx); err != nil {
		return err
	}
	if e.sess.Current() == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+cli.Muted("Not signed in."))
		return nil
	}
	// The local session is gone even when the provider call fails.
	if err := e.sess.SignOut(ctx); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+cli.Warn("Signed out locally; the server did not confirm: "+apperr.Message(err)))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "  "+cli.OK("Signed out."))
	return nil
}

func runWhoAmI(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, e *env, s *model.Session) error {
		user := s.User
		if flagVerify {
			u, err := e.auth.GetUser(ctx, s.AccessToken)
			if err != nil {
				return err
			}
			user = *u
		}

		expires := "never"
		if !s.ExpiresAt.IsZero() {
			expires = s.ExpiresAt.Local().Format(time.DateTime)
			if left := time.Until(s.ExpiresAt).Round(time.Second); left > 0 {
				expires += fmt.Sprintf(" (in %s)", left)
			}
		}

		pairs := [][2]string{
			{"Name", user.Profile.Name},
			{"Email", user.Email},
			{"User ID", user.ID},
			{"Occupation", user.Profile.Occupation},
			{"Token expires", expires},
		}
		if flagVerify {
			pairs = append(pairs, [2]string{"Verified", "yes"})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprint(out, cli.RenderKV(pairs))
		fmt.Fprintln(out)
		return nil
	})
}
