package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/imgmeta/exifedit/exif"
)

func DefineDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <image_path>",
		Short: "Print the metadata attributes of an image file",
		Long: `The 'dump' command opens an image file, extracts every metadata attribute
it carries and prints them as name/value pairs. Supported containers are
JPEG, PNG, WebP, TIFF, DNG, ORF, RW2, PEF, RAF and standalone Exif blobs.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunDump,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text or yaml")
	return cmd
}

func RunDump(cmd *cobra.Command, args []string) error {
	m, err := exif.Open(args[0], exif.WithLogger(newCommandLogger(cmd)))
	if err != nil {
		return err
	}

	attrs := m.Attributes()

	format, _ := cmd.Flags().GetString("output")
	if format == "yaml" {
		doc := map[string]any{
			"file":       args[0],
			"container":  m.Container().String(),
			"thumbnail":  m.HasThumbnail(),
			"attributes": attrs,
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	fmt.Printf("file:      %s\n", args[0])
	fmt.Printf("container: %s\n", m.Container())
	if m.HasThumbnail() {
		t := m.Thumbnail()
		fmt.Printf("thumbnail: %d bytes at offset %d\n", t.Length, t.Offset)
	}
	fmt.Println()

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-32s %s\n", name, attrs[name])
	}
	return nil
}
