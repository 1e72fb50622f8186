package cmd

import (
	"github.com/spf13/cobra"

	"github.com/imgmeta/exifedit/exif"
)

func DefineStripCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strip <src_image> <dst_image>",
		Short: "Copy an image with all metadata removed",
		Long: `The 'strip' command copies a JPEG, PNG or WebP file with its Exif block,
XMP packet, ICC profile and Photoshop resources removed. Pass
--keep-orientation to re-insert a minimal block holding only the
orientation tag, so the stripped image still displays upright.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunStrip,
	}
	cmd.Flags().Bool("keep-orientation", false, "Preserve the orientation tag")
	return cmd
}

func RunStrip(cmd *cobra.Command, args []string) error {
	keep, _ := cmd.Flags().GetBool("keep-orientation")
	return exif.StripMetadata(args[0], args[1], keep)
}
