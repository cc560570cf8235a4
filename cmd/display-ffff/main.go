// display-ffff prints FFFF romimages in human-readable form.
//
// Usage:
//
//	display-ffff image.ffff [more.ffff ...]
//	display-ffff --map image.ffff     # also writes image.ffff.map
//	display-ffff --all image.ffff     # full payload hex dumps
//
// Each argument is read, validated and printed. Exit status is
// non-zero when any image fails to parse.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootrom-tools/go-ffff/ffff"
)

func main() {
	var (
		writeMap bool
		showAll  bool
	)

	cmd := &cobra.Command{
		Use:          "display-ffff <image> [<image> ...]",
		Short:        "Print FFFF flash romimages",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed bool
			for _, path := range args {
				if err := display(path, writeMap, showAll); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("some images could not be displayed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeMap, "map", false, "write a <image>.map byte-offset map file")
	cmd.Flags().BoolVar(&showAll, "all", false, "show full payload hex dumps")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func display(path string, writeMap, showAll bool) error {
	image, err := ffff.ReadFile(path)
	if err != nil {
		return err
	}
	defer image.Free()

	if err := image.Print(os.Stdout, ffff.PrintOptions{Title: path, ShowAll: showAll}); err != nil {
		return err
	}

	if writeMap {
		mapPath := path + ".map"
		if err := image.WriteMapFile(mapPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", mapPath)
	}
	return nil
}
