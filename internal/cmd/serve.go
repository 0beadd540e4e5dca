package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/runner-pulse/pulse/internal/config"
	"github.com/runner-pulse/pulse/internal/server"
)

var (
	servePort   int
	serveFailAt string
	serveOmit   bool
	serveLoop   bool
	serveDelay  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the provisioning pipeline simulator",
	Long: `Serve starts a local websocket server that walks through the
provisioning phases on a timer, so the watcher can be exercised without
a real control plane.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if serveFailAt != "" {
			cfg.Pipeline.FailAt = serveFailAt
		}
		if serveOmit {
			cfg.Pipeline.OmitURL = true
		}
		if serveLoop {
			cfg.Pipeline.Loop = true
		}
		if cmd.Flags().Changed("step-delay") {
			cfg.Pipeline.StepDelay = config.Duration(serveDelay)
		}

		hub := server.NewHub()
		srv := server.NewServer(hub)
		sim := server.NewSimulator(hub, cfg.Pipeline)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go sim.Run(ctx)

		mux := http.NewServeMux()
		srv.SetupRoutes(mux)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Println("Shutting down...")
			cancel()
			os.Exit(0)
		}()

		log.Printf("Simulator listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		return server.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override server port")
	serveCmd.Flags().StringVar(&serveFailAt, "fail-at", "", "inject a failure at the named phase")
	serveCmd.Flags().BoolVar(&serveOmit, "omit-url", false, "finish with runner_ready instead of connection details")
	serveCmd.Flags().BoolVar(&serveLoop, "loop", false, "restart the pipeline after each run")
	serveCmd.Flags().DurationVar(&serveDelay, "step-delay", 2*time.Second, "delay between pipeline phases")
	rootCmd.AddCommand(serveCmd)
}
