package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/folderextractor/internal/platform"
	"github.com/sdejongh/folderextractor/pkg/flatten"
	"github.com/sdejongh/folderextractor/pkg/models"
	"github.com/sdejongh/folderextractor/pkg/storage"
)

// NewDestCommand creates the dest command
func NewDestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dest",
		Short: "Show the destination folder and its current size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			desktop, err := platform.DesktopDir()
			if err != nil {
				return err
			}
			parent, err := storage.NewLocalAt(desktop)
			if err != nil {
				return err
			}

			copier := flatten.NewCopier(parent, flatten.DestinationFolder, nil)
			fmt.Fprintf(out, "Destination: %s\n", copier.DestPath())

			exists, err := parent.Exists(cmd.Context(), flatten.DestinationFolder)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(out, "Status:      not created yet")
				return nil
			}

			size, err := copier.FolderSize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Size:        %.1f MB (%d bytes)\n", models.SizeInMB(size), size)
			return nil
		},
	}
}
