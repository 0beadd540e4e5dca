package cmd

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runner-pulse/pulse/internal/app"
	"github.com/runner-pulse/pulse/internal/client"
)

var watchURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a provisioning session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if watchURL != "" {
			cfg.Watch.URL = watchURL
		}

		ws := client.NewWSClient(cfg.Watch.URL)
		httpClient := client.NewHTTPClient(deriveHTTPBase(cfg.Watch.URL))

		m := app.New(ws, httpClient, cfg)
		p := tea.NewProgram(m, tea.WithAltScreen())

		_, err := p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchURL, "url", "u", "", "websocket URL of the event feed")
	rootCmd.AddCommand(watchCmd)
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
