package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tonimelisma/zentty-go/pkg/zentty"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account on the service. The password is prompted for
unless --password is given; on a non-terminal stdin it is read as one line.`,
		Args: cobra.NoArgs,
		RunE: runRegister,
	}

	cmd.Flags().String("username", "", "username (required)")
	cmd.Flags().String("email", "", "email address (required)")
	cmd.Flags().String("name", "", "display name (required)")
	cmd.Flags().String("password", "", "password (prompted if omitted)")

	for _, f := range []string{"username", "email", "name"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Log in and save the session credential",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}

	cmd.Flags().String("password", "", "password (prompted if omitted)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the saved credential",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	cmd.Flags().String("session", "", "session code to end (default: the current session)")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runRegister(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")

	password, err := passwordFlagOrPrompt(cmd, "Password: ")
	if err != nil {
		return err
	}

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	user, err := client.RegisterUser(ctx, zentty.RegisterUserParams{
		Username: username,
		Email:    email,
		Name:     name,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("registering %s: %w", username, err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, user)
	}

	cc.Statusf("Registered %s (%s).\n", user.Username, user.ID)

	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()
	identifier := args[0]

	password, err := passwordFlagOrPrompt(cmd, "Password: ")
	if err != nil {
		return err
	}

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	session, err := client.LoginUser(ctx, zentty.LoginUserParams{Identifier: identifier, Password: password})
	if err != nil {
		return fmt.Errorf("logging in as %s: %w", identifier, err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, session)
	}

	cc.Statusf("Logged in as %s.\n", identifier)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()
	sessionCode, _ := cmd.Flags().GetString("session")

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	if sessionCode == "" && client.SessionCode() == "" {
		cc.Statusf("Not logged in.\n")
		return nil
	}

	ok, err := client.LogoutUser(ctx, zentty.LogoutUserParams{SessionCode: sessionCode})
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	if !ok {
		return errors.New("server did not end the session")
	}

	cc.Statusf("Logged out.\n")

	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	client, closeFn, err := newClient(ctx, cc)
	defer closeFn() //nolint:errcheck // best-effort close

	if err != nil {
		return err
	}

	if client.SessionCode() == "" {
		return errors.New("not logged in, run 'zentty-go login' first")
	}

	user, err := client.GetUser(ctx)
	if err != nil {
		return fmt.Errorf("fetching user: %w", err)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, user)
	}

	fmt.Fprintf(cc.Out, "User:       %s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(cc.Out, "Username:   %s\n", user.Username)
	fmt.Fprintf(cc.Out, "ID:         %s\n", user.ID)
	fmt.Fprintf(cc.Out, "Registered: %s\n", formatTime(user.Registered.Time))

	return nil
}

// passwordFlagOrPrompt returns --password when set, otherwise reads one.
func passwordFlagOrPrompt(cmd *cobra.Command, prompt string) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}

	return readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
}

// readPassword prompts without echo when in is a terminal, and otherwise
// reads a single line so passwords can be piped in.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, prompt)

		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)

		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}

		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}

	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}

	return pw, nil
}
