package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/api"
	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/events"
	"github.com/privacylab/flfp-kernel/internal/storage"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status/control API over the run registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := storage.OpenRegistry(cfg.RegistryFile)
			if err != nil {
				return err
			}
			defer registry.Close()

			archive, err := maybeConnectPostgres(cfg)
			if err != nil {
				return err
			}
			if archive != nil {
				defer archive.Close()
			}

			hub := api.NewHub()
			go hub.Run()

			em := events.NewManager(func(e events.Event) {
				// push every event to connected dashboards as JSON
				data, err := eventToJSON(e)
				if err != nil {
					return
				}
				hub.Broadcast(data)
			})

			handler := &api.Handler{Registry: registry, Events: em, Hub: hub, Archive: archive}
			rateLimiter := api.NewRateLimiter(120, 30)
			router := api.SetupRouter(handler, rateLimiter)

			fmt.Printf("serving status/control API on %s\n", addr)
			return router.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", cfg.APIBindAddress, "bind address")
	return cmd
}
