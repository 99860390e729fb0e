package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/capture"
	"github.com/edgeo-scada/snmp/snmp"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [HEX...]",
	Short: "Decode SNMP messages from hex or a pcap capture",
	Long: `Decode raw SNMP v1/v2c messages.

Hex input may be given as arguments or on stdin; whitespace is ignored.
With --pcap, every UDP datagram on the SNMP ports of the capture is decoded.
A message must use exactly its declared length: trailing bytes are an error.

Examples:
  edgeo-snmp decode 302602010104067075626c6963a019...
  tcpdump -w snmp.pcap udp port 161 or udp port 162
  edgeo-snmp decode --pcap snmp.pcap --all-ports -o yaml`,
	RunE: runDecode,
}

var (
	decodePcap     string
	decodeAllPorts bool
)

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVar(&decodePcap, "pcap", "", "decode datagrams from a pcap file")
	decodeCmd.Flags().BoolVar(&decodeAllPorts, "all-ports", false, "decode UDP datagrams on any port (with --pcap)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	formatter := newFormatterTo(outputFormat, cmd.OutOrStdout())

	if decodePcap != "" {
		return decodeCapture(cmd, formatter)
	}

	input := strings.Join(args, "")
	if input == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		input = string(data)
	}

	data, err := hex.DecodeString(strings.Join(strings.Fields(input), ""))
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}

	msg, err := snmp.DecodeMessage(data)
	if err != nil {
		return err
	}
	formatter.FormatMessage(msg)
	return nil
}

func decodeCapture(cmd *cobra.Command, formatter *Formatter) error {
	filter := capture.DefaultFilter
	if decodeAllPorts {
		filter = capture.Filter{}
	}

	var decoded, failed int
	err := capture.ReplayFile(decodePcap, filter, capture.HandlerFunc(func(f *capture.Frame) error {
		if f.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "frame %d %s -> %s: %v\n", f.Number, f.Source, f.Destination, f.Err)
			return nil
		}
		decoded++
		if OutputFormat(outputFormat) == FormatTable {
			fmt.Fprintf(cmd.OutOrStdout(), "%s frame %d %s -> %s\n",
				colorize(f.Timestamp.Format("15:04:05.000000"), ColorGreen), f.Number, f.Source, f.Destination)
		}
		formatter.FormatMessage(f.Message)
		return nil
	}))
	if err != nil {
		return err
	}

	printVerbose("%d messages decoded, %d datagrams rejected", decoded, failed)
	return nil
}
