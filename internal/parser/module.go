package parser

import "go.uber.org/fx"

// Module provides the OpenAPI parser and its adjuster
var Module = fx.Module("parser",
	fx.Provide(
		fx.Annotate(
			NewOpenAPIParser,
			fx.As(new(Parser)),
		),
		NewAdjuster,
	),
)
