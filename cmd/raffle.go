package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/store"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"
)

// newRaffleCommand exposes stats and draws to operators on the command line.
// PocketBase bootstraps the app before running it, so the DB is ready.
func newRaffleCommand(app core.App, c *components) *cobra.Command {
	root := &cobra.Command{
		Use:   "raffle",
		Short: "Inspect raffle stats and run winner draws",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return store.Migrate(app.DB())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "stats <raffleId>",
		Short: "Print ticket totals, per artist counts and winners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.stats.ComputeStats(cmd.Context(), args[0])
			if err != nil && !(errors.Is(err, status.ErrStatsInconsistent) && stats != nil) {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "draw <raffleId> <artistId>",
		Short: "Select the winner for one artist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.draws.SelectWinner(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "draw-all <raffleId>",
		Short: "Select winners for every artist that has tickets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := c.draws.DrawAll(cmd.Context(), args[0])
			if outcomes != nil {
				if werr := writeJSON(cmd.OutOrStdout(), outcomes); werr != nil {
					return werr
				}
			}
			return err
		},
	})

	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
