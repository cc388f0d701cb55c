package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pgrep/reputation-api/internal/auth"
	"github.com/pgrep/reputation-api/internal/models"
)

var (
	seedAPI       string
	seedReporter  string
	seedTarget    string
	seedCheatType string
)

// seedCmd exercises a running API the way the web client does: it signs a
// session for the reporter, sends a heartbeat and files one report.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Send a heartbeat and a sample report to a running API",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions := auth.NewSessions(cfg.SessionSecret, cfg.SteamAPIKey, false)
		cookie, err := sessions.Encode(models.Session{SteamID: seedReporter, PersonaName: "Seeder"})
		if err != nil {
			return err
		}

		s := &seeder{
			base:   strings.TrimRight(seedAPI, "/"),
			cookie: &http.Cookie{Name: auth.CookieName, Value: cookie},
			client: &http.Client{Timeout: 5 * time.Second},
			out:    cmd.OutOrStdout(),
		}

		if err := s.post("/api/v1/track/heartbeat", models.HeartbeatRequest{Path: "/reports"}); err != nil {
			return err
		}
		return s.post("/api/v1/reports", models.SubmitReportRequest{
			TargetSteamID: seedTarget,
			TargetName:    "Seeded Target",
			OccurredAt:    time.Now().UTC().Format("2006-01-02T15:04"),
			DemoURL:       "https://demos.example/seed.dem",
			CheatType:     seedCheatType,
		})
	},
}

type seeder struct {
	base   string
	cookie *http.Cookie
	client *http.Client
	out    io.Writer
}

func (s *seeder) post(path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal seed payload")
	}

	req, err := http.NewRequest(http.MethodPost, s.base+path, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "build seed request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(s.cookie)

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "POST %s", path)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(s.out, "POST %s: %s %s\n", path, resp.Status, strings.TrimSpace(string(respBody)))

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("POST %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAPI, "api", "http://localhost:8080", "API base URL")
	seedCmd.Flags().StringVar(&seedReporter, "reporter", "76561198000000009", "reporter Steam64 id")
	seedCmd.Flags().StringVar(&seedTarget, "target", "76561198000000001", "reported Steam64 id")
	seedCmd.Flags().StringVar(&seedCheatType, "cheat-type", "Wallhack", "cheat type")
	rootCmd.AddCommand(seedCmd)
}
