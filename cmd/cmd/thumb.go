package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgmeta/exifedit/exif"
)

func DefineThumbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "thumb <image_path> <output_path>",
		Short:        "Extract the embedded thumbnail of an image file",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunThumb,
	}
	return cmd
}

func RunThumb(cmd *cobra.Command, args []string) error {
	m, err := exif.Open(args[0], exif.WithLogger(newCommandLogger(cmd)))
	if err != nil {
		return err
	}
	if !m.HasThumbnail() {
		return fmt.Errorf("%s carries no thumbnail", args[0])
	}
	return os.WriteFile(args[1], m.ThumbnailBytes(), 0o644)
}
