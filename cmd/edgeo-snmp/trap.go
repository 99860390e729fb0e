package main

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/capture"
	"github.com/edgeo-scada/snmp/internal/promexport"
	"github.com/edgeo-scada/snmp/snmp"
)

var trapListenCmd = &cobra.Command{
	Use:   "trap-listen",
	Short: "Listen for SNMP traps and informs",
	Long: `Start a listener to receive SNMPv1 traps, SNMPv2c traps and informs.

Informs are answered with a Response unless --no-ack is given.
By default, listens on port 162 (the standard SNMP trap port).
Note: Port 162 typically requires root/administrator privileges.

Examples:
  # Listen on default port (162)
  sudo edgeo-snmp trap-listen

  # Listen on alternate port with a community filter
  edgeo-snmp trap-listen --listen ":1162" --trap-community private

  # Expose Prometheus metrics and record notifications to a pcap file
  edgeo-snmp trap-listen --listen ":1162" --metrics-listen ":9116" --pcap traps.pcap`,
	RunE: runTrapListen,
}

var (
	listenAddress  string
	trapCommunity  string
	metricsAddress string
	pcapOutput     string
	noAckInforms   bool
)

func init() {
	rootCmd.AddCommand(trapListenCmd)

	trapListenCmd.Flags().StringVar(&listenAddress, "listen", ":162", "listen address (host:port)")
	trapListenCmd.Flags().StringVar(&trapCommunity, "trap-community", "", "filter by community string (empty = accept all)")
	trapListenCmd.Flags().StringVar(&metricsAddress, "metrics-listen", "", "serve Prometheus metrics on this address")
	trapListenCmd.Flags().StringVar(&pcapOutput, "pcap", "", "record received notifications to a pcap file")
	trapListenCmd.Flags().BoolVar(&noAckInforms, "no-ack", false, "do not answer informs")
}

func runTrapListen(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	fmt.Printf("Starting SNMP trap listener on %s\n", listenAddress)
	if trapCommunity != "" {
		fmt.Printf("Filtering by community: %s\n", trapCommunity)
	}
	fmt.Println("Press Ctrl+C to stop...")
	fmt.Println()

	ctx, cancel := signalContext()
	defer cancel()

	var recorder *capture.Writer
	if pcapOutput != "" {
		f, err := os.Create(pcapOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		if recorder, err = capture.NewWriter(f); err != nil {
			return err
		}
	}

	var (
		mu        sync.Mutex
		formatter = NewFormatter(outputFormat)
		local     *net.UDPAddr
	)

	listener := snmp.NewTrapListener(
		func(n *snmp.Notification) {
			mu.Lock()
			defer mu.Unlock()

			formatter.FormatNotification(n)

			if recorder == nil || local == nil {
				return
			}
			src, ok := n.Source.(*net.UDPAddr)
			if !ok {
				return
			}
			if err := recorder.WriteMessage(n.ReceivedAt, src, local, n.Message); err != nil {
				logger.Warn("failed to record notification", "error", err)
			}
		},
		snmp.WithListenAddress(listenAddress),
		snmp.WithTrapCommunity(trapCommunity),
		snmp.WithAcknowledgeInforms(!noAckInforms),
		snmp.WithTrapLogger(logger),
	)

	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("failed to start trap listener: %w", err)
	}
	defer listener.Stop()

	mu.Lock()
	local = recordAddress(listener.Address())
	mu.Unlock()

	if metricsAddress != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(promexport.NewCollector(listener.Metrics(), "listener"))
		go func() {
			if err := promexport.Serve(ctx, metricsAddress, promexport.NewRouter(reg), logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	snap := listener.Metrics().Snapshot()
	printVerbose("traps=%d informs=%d acknowledged=%d dropped=%d decode-errors=%d",
		snap.TrapsReceived, snap.InformsReceived, snap.InformsAcknowledged, snap.TrapsDropped, snap.DecodeErrors)
	return nil
}

// recordAddress turns the bound listener address into a concrete
// destination for recorded frames. Wildcard hosts become loopback.
func recordAddress(addr string) *net.UDPAddr {
	udp, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil
	}
	if udp.IP == nil || udp.IP.IsUnspecified() {
		udp.IP = net.IPv4(127, 0, 0, 1)
	}
	return udp
}
