package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pgrep/reputation-api/internal/config"
	"github.com/pgrep/reputation-api/internal/logic"
	"github.com/pgrep/reputation-api/internal/models"
)

var assessAt string

// assessCmd scores a PlayerSignal offline. It needs no database, so it
// replaces the root config hook with a logger-only one.
var assessCmd = &cobra.Command{
	Use:   "assess [signal.json]",
	Short: "Score a player signal read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := config.InitLogger("warn", "console")
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrap(err, "open signal")
			}
			defer f.Close()
			in = f
		}

		now := time.Now()
		if assessAt != "" {
			t, err := time.Parse(time.RFC3339, assessAt)
			if err != nil {
				return eris.Wrap(err, "parse --at")
			}
			now = t
		}

		a, err := assessSignal(in, now)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	},
}

func assessSignal(r io.Reader, now time.Time) (models.TrustAssessment, error) {
	var sig models.PlayerSignal
	if err := json.NewDecoder(r).Decode(&sig); err != nil {
		return models.TrustAssessment{}, eris.Wrap(err, "decode signal")
	}
	return logic.Assess(sig, now), nil
}

func init() {
	assessCmd.Flags().StringVar(&assessAt, "at", "", "evaluation time (RFC3339, default now)")
	rootCmd.AddCommand(assessCmd)
}
