package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/imgmeta/exifedit/exif"
)

func DefineSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <image_path> [name=value ...]",
		Short: "Set or clear metadata attributes and rewrite the file",
		Long: `The 'set' command modifies metadata attributes of a JPEG, PNG or WebP
file in place. Attributes are given as name=value pairs on the command line,
or in bulk from a YAML file of name: value entries via --from.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunSet,
	}
	cmd.Flags().String("from", "", "YAML file holding attributes to apply")
	cmd.Flags().StringArray("clear", nil, "Attribute to remove (repeatable)")
	return cmd
}

func RunSet(cmd *cobra.Command, args []string) error {
	m, err := exif.Open(args[0], exif.WithLogger(newCommandLogger(cmd)))
	if err != nil {
		return err
	}

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		data, err := os.ReadFile(from)
		if err != nil {
			return err
		}
		var attrs map[string]string
		if err := yaml.Unmarshal(data, &attrs); err != nil {
			return fmt.Errorf("parsing %s: %w", from, err)
		}
		for name, value := range attrs {
			if err := m.SetAttribute(name, value); err != nil {
				return err
			}
		}
	}

	for _, pair := range args[1:] {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid attribute %q, want name=value", pair)
		}
		if err := m.SetAttribute(name, value); err != nil {
			return err
		}
	}

	clears, _ := cmd.Flags().GetStringArray("clear")
	for _, name := range clears {
		m.ClearAttribute(name)
	}

	return m.SaveAttributes()
}
