package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/inovacc/gerritconn/internal/cli"
	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/inovacc/gerritconn/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	credentialsURL           string
	credentialsUsername      string
	credentialsPasswordStdin bool
	credentialsGitReview     string
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Enter and save Gerrit credentials",
	Long: `Save the Gerrit URL, username and HTTP password to the settings file and
reconnect with them.

On a terminal an interactive form is shown for any value not given as a
flag. Otherwise every value must be supplied by flags, the settings file
or --password-stdin.

Examples:
  gerritconn credentials
  gerritconn credentials --from-gitreview .gitreview
  echo "$PASSWORD" | gerritconn credentials --url https://review.example.org --username alice --password-stdin`,
	Args: cobra.NoArgs,
	RunE: runCredentials,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.Flags().StringVar(&credentialsURL, "url", "", "Gerrit server URL")
	credentialsCmd.Flags().StringVarP(&credentialsUsername, "username", "u", "", "Gerrit username")
	credentialsCmd.Flags().BoolVar(&credentialsPasswordStdin, "password-stdin", false, "Read the HTTP password from stdin")
	credentialsCmd.Flags().StringVar(&credentialsGitReview, "from-gitreview", "", "Take the server URL from the given .gitreview file")
}

func runCredentials(cmd *cobra.Command, _ []string) error {
	// supplied holds only what the user gave on this run. Values coming
	// from the environment are used for validation but never saved.
	var supplied credential.Set

	if credentialsGitReview != "" {
		gr, err := settings.ReadGitReview(credentialsGitReview)
		if err != nil {
			return err
		}

		supplied.URL = credential.Present(gr.URL())
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using %s from %s\n", gr.URL(), credentialsGitReview)
	}

	supplied = supplied.Overlay(changedCredentials(cmd.Flags(), credentialsURL, credentialsUsername))

	if credentialsPasswordStdin {
		password, err := readLine(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read password from stdin: %w", err)
		}

		supplied.Password = credential.FieldOf(password, true)
	}

	effective := credential.Read(current.settings).Overlay(supplied)

	tty, interactive := terminalFile(cmd.InOrStdin())
	interactive = interactive && !credentialsPasswordStdin

	switch {
	case interactive && (effective.URL.Value() == "" || effective.Username.Value() == ""):
		return runCredentialsForm(cmd, credential.Read(current.settings.FileOnly()).Overlay(supplied))
	case interactive && effective.Password.Value() == "":
		password, err := readPassword(tty, cmd.ErrOrStderr(), "Password: ")
		if err != nil {
			return err
		}

		supplied.Password = credential.FieldOf(password, true)
	}

	return saveCredentials(cmd, supplied)
}

func runCredentialsForm(cmd *cobra.Command, set credential.Set) error {
	m := cli.NewCredentialsModel(set, func(s credential.Set) error {
		return current.settings.Update(s.Values())
	})

	p := tea.NewProgram(m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.ErrOrStderr()))
	if _, err := p.Run(); err != nil {
		return err
	}

	if errors.Is(m.Err, cli.ErrCancelled) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return nil
	}

	if m.Err != nil {
		return m.Err
	}

	return reconnect(cmd)
}

// saveCredentials writes the supplied fields to the settings file once the
// resulting configuration, environment included, is complete.
func saveCredentials(cmd *cobra.Command, supplied credential.Set) error {
	if err := credential.Read(current.settings).Overlay(supplied).Validate(); err != nil {
		return err
	}

	if err := current.settings.Update(supplied.Values()); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s\n", current.settings.Path())

	return reconnect(cmd)
}

// reconnect swaps the cached connection for one built from the saved
// credentials.
func reconnect(cmd *cobra.Command) error {
	if _, err := current.manager.Refresh(cmd.Context()); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Gerrit: %s\n", formatConnected(current.manager.Connected()))

	return nil
}

// terminalFile returns r as a file when it is an interactive terminal.
func terminalFile(r io.Reader) (*os.File, bool) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}

	return f, true
}

// readPassword reads a password from the terminal without echoing
func readPassword(tty *os.File, errOut io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(errOut, prompt)

	password, err := term.ReadPassword(int(tty.Fd()))
	_, _ = fmt.Fprintln(errOut)

	if err != nil {
		return "", err
	}

	return string(password), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
