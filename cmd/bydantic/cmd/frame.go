package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khusmann/bydantic/pkg/framing"
)

// frameCmd represents the frame command
var frameCmd = &cobra.Command{
	Use:   "frame <packet-file>...",
	Short: "Frame raw packet files into one framed stream",
	Long: `Frame reads each input file as one raw packet, applies the configured
framing profile, and writes the framed stream.

Example:
  bydantic frame -o stream.bin pkt1.bin pkt2.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fr, ok := cmd.Context().Value(framingKey).(framing.SimpleFraming)
		if !ok {
			return fmt.Errorf("framing profile not found in context")
		}
		out, _ := cmd.Flags().GetString("output")
		data, err := frameFiles(fr, args)
		if err != nil {
			return err
		}
		if out == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0600); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Framed %d packets into %s (%d bytes)\n", len(args), out, len(data))
		return nil
	},
}

func frameFiles(fr framing.Framing, paths []string) ([]byte, error) {
	frames := make([][]byte, len(paths))
	for i, path := range paths {
		packet, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		frames[i] = packet
	}
	return fr.Frame(frames)
}

func init() {
	frameCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(frameCmd)
}
