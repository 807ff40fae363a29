package cmd

import (
	"fmt"
	"os"

	"github.com/inovacc/gerritconn/internal/application"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// current is built by the root pre-run hook and closed by Execute.
	current *app
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Manage the connection to a Gerrit code review server",
	Long: `Gerritconn keeps a single authenticated connection to a Gerrit server.

Credentials are read from the settings file (gerrit.auth.url,
gerrit.auth.username, gerrit.auth.password) or from the matching
environment variables (GERRIT_AUTH_URL, GERRIT_AUTH_USERNAME,
GERRIT_AUTH_PASSWORD). Connectivity is persisted so other tools can
check whether Gerrit is reachable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(appOptions{
			configPath: configPath,
			verbose:    verbose,
			stderr:     cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}

		current = a

		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()

	closeApp()

	if err != nil {
		os.Exit(1)
	}
}

func closeApp() {
	if current == nil {
		return
	}

	if err := current.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to close resources: %v\n", err)
	}

	current = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default is settings.yaml in the application directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror the diagnostic log on stderr")
}
