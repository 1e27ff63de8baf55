package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/brizzai/swapi/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DescriptionUpdate replaces the description of one method of a route
type DescriptionUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

// RouteDescription lists description overrides for a route
type RouteDescription struct {
	Path    string              `yaml:"path"`
	Updates []DescriptionUpdate `yaml:"updates"`
}

// RouteSelection lists the methods of a route that become tools
type RouteSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// Adjustments is the YAML document read by the Adjuster
type Adjustments struct {
	Descriptions []RouteDescription `yaml:"descriptions,omitempty"`
	Routes       []RouteSelection   `yaml:"routes,omitempty"`
}

// Adjuster selects routes and overrides descriptions
type Adjuster struct {
	adjustments *Adjustments
}

// NewAdjuster creates an Adjuster that keeps every route
func NewAdjuster() *Adjuster {
	return &Adjuster{adjustments: &Adjustments{}}
}

// Load reads adjustments from a YAML file. An empty path or a missing file
// leaves the adjuster unchanged.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read adjustments file: %w", err)
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	return a.LoadData(data)
}

// LoadData parses adjustments from YAML
func (a *Adjuster) LoadData(data []byte) error {
	var adjustments Adjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return fmt.Errorf("failed to parse adjustments: %w", err)
	}
	a.adjustments = &adjustments
	return nil
}

// Selected reports whether the route and method should become a tool. With no
// route selection every route is selected.
func (a *Adjuster) Selected(route, method string) bool {
	if a.adjustments == nil || len(a.adjustments.Routes) == 0 {
		return true
	}

	for _, selection := range a.adjustments.Routes {
		if selection.Path != route {
			continue
		}
		for _, m := range selection.Methods {
			if strings.EqualFold(m, method) {
				return true
			}
		}
		return false
	}
	return false
}

// Description returns the override for route and method, or original
func (a *Adjuster) Description(route, method, original string) string {
	if a.adjustments == nil {
		return original
	}

	for _, desc := range a.adjustments.Descriptions {
		if desc.Path != route {
			continue
		}
		for _, update := range desc.Updates {
			if strings.EqualFold(update.Method, method) {
				return update.NewDescription
			}
		}
		break
	}
	return original
}
