package settings

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/tonebarrier/internal/conf"
)

const mask = "********"

// secretKeys are replaced by a mask unless --show-secrets is given.
var secretKeys = [][]string{
	{"mqtt", "password"},
	{"sentry", "dsn"},
}

// Command creates the settings command, which prints the effective settings.
func Command(cfg *conf.Settings) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings as YAML",
		Long:  "Print the settings after merging defaults, the config file, environment variables and flags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "# tonebarrier %s, config %s\n", cfg.Version, viper.ConfigFileUsed())
			return WriteYAML(cmd.OutOrStdout(), viper.AllSettings(), showSecrets)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords and DSNs in clear text")

	return cmd
}

// WriteYAML encodes all as YAML, masking secrets unless showSecrets is set.
func WriteYAML(w io.Writer, all map[string]any, showSecrets bool) error {
	if !showSecrets {
		maskSecrets(all)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(all); err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	return enc.Close()
}

func maskSecrets(all map[string]any) {
	for _, path := range secretKeys {
		section, ok := all[path[0]].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := section[path[1]]; ok && fmt.Sprint(v) != "" {
			section[path[1]] = mask
		}
	}
}
