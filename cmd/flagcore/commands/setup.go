// Package commands holds one file per flagcore subcommand, each
// wiring the library's public packages (client, registry, variation,
// config, transport/http) together the same way a real integrator
// would.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgeflag/flagcore/client"
	"github.com/edgeflag/flagcore/config"
	"github.com/edgeflag/flagcore/eventbuffer"
	"github.com/edgeflag/flagcore/flagstore"
	"github.com/edgeflag/flagcore/model"
	"github.com/edgeflag/flagcore/registry"
	httptransport "github.com/edgeflag/flagcore/transport/http"
)

// buildRegistry loads Config, applies any --mobile-key/--base-url
// overrides from the invoking command, and constructs a registry with
// one client in the primary environment talking to the bundled HTTP
// transport. Every subcommand but version calls this first.
func buildRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if key, _ := cmd.Flags().GetString("mobile-key"); key != "" {
		cfg.MobileKey = key
	}
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = "http://localhost:8765"
	}

	shared := client.NewSharedContext(model.User{Key: "cli-user", Anonymous: true}, *cfg)
	transport := httptransport.NewClient(baseURL, cfg.MobileKey)

	reg := registry.NewRegistry(config.PrimaryEnvironment)
	primary := client.New(config.PrimaryEnvironment, shared, flagstore.New(), eventbuffer.New(), client.Transports{
		Flag:   transport,
		Event:  transport,
		Stream: transport,
	})
	if err := reg.Register(config.PrimaryEnvironment, primary); err != nil {
		return nil, fmt.Errorf("registering primary environment: %w", err)
	}

	registry.SetDefaultRegistry(reg)
	return reg, nil
}
