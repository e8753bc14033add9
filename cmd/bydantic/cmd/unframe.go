package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khusmann/bydantic/pkg/framing"
)

// unframeCmd represents the unframe command
var unframeCmd = &cobra.Command{
	Use:   "unframe <stream-file>",
	Short: "Split a framed stream back into packets",
	Long: `Unframe reads a framed stream and prints each packet as a hex line.
With --out-dir, packets are written to numbered files instead.

Example:
  bydantic unframe stream.bin
  bydantic unframe --out-dir packets/ stream.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fr, ok := cmd.Context().Value(framingKey).(framing.SimpleFraming)
		if !ok {
			return fmt.Errorf("framing profile not found in context")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		frames, remaining, err := fr.Unframe(data)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("out-dir")
		if outDir != "" {
			if err := writeFrames(outDir, frames); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d packets to %s\n", len(frames), outDir)
		} else {
			for _, frame := range frames {
				fmt.Fprintf(cmd.OutOrStdout(), "%x\n", frame)
			}
		}
		if len(remaining) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d trailing bytes form an unterminated frame\n", len(remaining))
		}
		return nil
	},
}

func writeFrames(dir string, frames [][]byte) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("packet_%04d.bin", i))
		if err := os.WriteFile(path, frame, 0600); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	unframeCmd.Flags().String("out-dir", "", "Write packets to numbered files in this directory")
	rootCmd.AddCommand(unframeCmd)
}
