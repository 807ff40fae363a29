package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/inovacc/gerritconn/internal/connection"
	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/inovacc/gerritconn/internal/gerrit"
	"github.com/inovacc/gerritconn/internal/store"
	"github.com/spf13/cobra"
)

var statusValidate bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Gerrit connectivity",
	Long: `Resolve the Gerrit connection from the current settings and show whether
it is connected, together with the last persisted connectivity flag.

Examples:
  gerritconn status
  gerritconn status --validate`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusValidate, "validate", false, "Perform a round trip against the server with the cached connection")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out := cmd.OutOrStdout()
	mgr := current.manager

	// Resolution failures reach the user through the notifier.
	client, _ := mgr.Client(ctx)

	set := credential.Read(current.settings)

	_, _ = fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Gerrit:     "), formatConnected(mgr.Connected()))
	_, _ = fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Settings:   "), current.settings.Path())
	_, _ = fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Credentials:"), set)

	printPersisted(ctx, out, current.store)

	if !statusValidate || client == nil {
		return nil
	}

	vctx, cancel := context.WithTimeout(ctx, gerrit.DefaultTimeout)
	defer cancel()

	if err := client.TestConnection(vctx); err != nil {
		_, _ = fmt.Fprintf(out, "%s %s (%v)\n", labelStyle.Render("Round trip: "), badStyle.Render("failed"), err)
		return fmt.Errorf("round trip failed: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Round trip: "), okStyle.Render("ok"))

	if gc, ok := client.(*gerrit.Client); ok {
		if v, err := gc.Version(vctx); err == nil {
			_, _ = fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Version:    "), v)
		}
	}

	return nil
}

func printPersisted(ctx context.Context, out io.Writer, st store.Store) {
	label := labelStyle.Render("Persisted:  ")

	if st == nil {
		_, _ = fmt.Fprintf(out, "%s unavailable\n", label)
		return
	}

	entry, err := st.GetContext(ctx, connection.ConnectedKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_, _ = fmt.Fprintf(out, "%s never recorded\n", label)
	case err != nil:
		_, _ = fmt.Fprintf(out, "%s error: %v\n", label, err)
	default:
		_, _ = fmt.Fprintf(out, "%s %s=%t (%s, session %s)\n", label, entry.Key, entry.Value, formatAge(entry.UpdatedAt), entry.Session)
	}
}
