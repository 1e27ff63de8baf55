package requester

import (
	"github.com/brizzai/swapi/internal/config"
	"go.uber.org/fx"
)

// RequesterParams holds the dependencies of the fx-provided Requester
type RequesterParams struct {
	fx.In

	Config    *config.RequesterConfig
	Transport Transport
}

// NewRequesterFromConfig creates a Requester configured from RequesterConfig.
// Diagnostics go to the global logger.
func NewRequesterFromConfig(params RequesterParams) *Requester {
	return NewRequester(params.Transport, WithDebugLogging(params.Config.DebugLogging))
}

// Module provides the requester module dependencies
var Module = fx.Module("requester",
	fx.Provide(
		NewTransport,
		NewRequesterFromConfig,
	),
)
