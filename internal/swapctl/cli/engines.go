package cli

import (
	"maps"
	"slices"

	"github.com/abdul-hamid-achik/mediaswap/internal/app"
	"github.com/spf13/cobra"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List engines that can run on this host",
	Args:  cobra.NoArgs,
	RunE:  runEngines,
}

type engineInfo struct {
	Name     string            `json:"name"`
	Selected bool              `json:"selected"`
	Options  map[string]string `json:"options,omitempty"`
}

func runEngines(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	registry, options, err := app.RegisterEngines(cfg, log)
	if err != nil {
		return err
	}

	names := registry.List()
	infos := make([]engineInfo, 0, len(names))
	for _, name := range names {
		info := engineInfo{Name: name, Selected: name == cfg.Engine}
		if info.Selected {
			info.Options = options
		}
		infos = append(infos, info)
	}

	if printer.IsJSON() {
		return printer.JSON(infos)
	}

	for _, e := range infos {
		if e.Selected {
			printer.Success("%s (configured)", e.Name)
			for _, k := range slices.Sorted(maps.Keys(e.Options)) {
				printer.KeyValue(k, e.Options[k])
			}
		} else {
			printer.Info("%s", e.Name)
		}
	}
	if _, ok := registry.Get(cfg.Engine); !ok {
		printer.Warn("configured engine %q is not available", cfg.Engine)
	}
	return nil
}
