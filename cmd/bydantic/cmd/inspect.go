package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khusmann/bydantic/pkg/framing"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <stream-file>",
	Short: "Summarize the packets in a framed stream",
	Long: `Inspect unframes a stream and prints a per-packet summary with a hex
dump, plus totals.

Example:
  bydantic inspect stream.bin`,
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
		for i, frame := range frames {
			fmt.Fprintf(cmd.OutOrStdout(), "packet %d: %d bytes (%d bits)\n", i, len(frame), len(frame)*8)
			fmt.Fprint(cmd.OutOrStdout(), hex.Dump(frame))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d packets, %d stream bytes", len(frames), len(data))
		if len(remaining) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d trailing bytes unterminated", len(remaining))
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
