package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/snmp"
)

var getCmd = &cobra.Command{
	Use:   "get OID [OID...]",
	Short: "Perform SNMP GET request",
	Long: `Perform an SNMP GET request to retrieve the value of one or more OIDs.

Examples:
  # Get system description
  edgeo-snmp get -t 192.168.1.1 1.3.6.1.2.1.1.1.0

  # Get multiple OIDs
  edgeo-snmp get -t 192.168.1.1 1.3.6.1.2.1.1.1.0 1.3.6.1.2.1.1.3.0 1.3.6.1.2.1.1.5.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

var getNextCmd = &cobra.Command{
	Use:   "getnext OID [OID...]",
	Short: "Perform SNMP GET-NEXT request",
	Long: `Perform an SNMP GET-NEXT request to retrieve the next OID in the MIB tree.

Examples:
  # Get next OID after sysDescr
  edgeo-snmp getnext -t 192.168.1.1 1.3.6.1.2.1.1.1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGetNext,
}

var getBulkCmd = &cobra.Command{
	Use:   "getbulk OID [OID...]",
	Short: "Perform SNMP GET-BULK request (v2c)",
	Long: `Perform an SNMP GET-BULK request to retrieve several successors at once.
Only available for SNMPv2c.

Examples:
  # Get bulk with custom repetitions
  edgeo-snmp getbulk -t 192.168.1.1 --max-repetitions 25 1.3.6.1.2.1.2.2.1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGetBulk,
}

var (
	maxRepetitions int
	nonRepeaters   int
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(getNextCmd)
	rootCmd.AddCommand(getBulkCmd)

	getBulkCmd.Flags().IntVar(&maxRepetitions, "max-repetitions", snmp.DefaultMaxRepetitions, "max-repetitions value")
	getBulkCmd.Flags().IntVar(&nonRepeaters, "non-repeaters", snmp.DefaultNonRepeaters, "non-repeaters value")
}

type requestFunc func(ctx context.Context, client *snmp.Client, oids []snmp.OID) (snmp.VarBindList, error)

// runRequest connects, runs one request over the parsed OIDs and prints the
// returned bindings.
func runRequest(name string, args []string, do requestFunc) error {
	if err := checkTarget(); err != nil {
		return err
	}

	oids, err := parseOIDs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := createClient(ctx)
	if err != nil {
		return err
	}
	defer disconnectClient(client)

	printVerbose("Sending %s request for %d OID(s)...", name, len(oids))
	start := time.Now()

	vbs, err := do(ctx, client, oids)
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}

	printVerbose("Response received in %s (%d variables)", formatDuration(time.Since(start)), len(vbs))

	NewFormatter(outputFormat).FormatVarBinds(vbs)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	return runRequest("GET", args, func(ctx context.Context, client *snmp.Client, oids []snmp.OID) (snmp.VarBindList, error) {
		return client.Get(ctx, oids...)
	})
}

func runGetNext(cmd *cobra.Command, args []string) error {
	return runRequest("GET-NEXT", args, func(ctx context.Context, client *snmp.Client, oids []snmp.OID) (snmp.VarBindList, error) {
		return client.GetNext(ctx, oids...)
	})
}

func runGetBulk(cmd *cobra.Command, args []string) error {
	if v, err := snmpVersion(); err == nil && v == snmp.Version1 {
		return fmt.Errorf("GET-BULK is not available in SNMPv1")
	}

	printVerbose("GET-BULK non-repeaters=%d max-repetitions=%d", nonRepeaters, maxRepetitions)
	return runRequest("GET-BULK", args, func(ctx context.Context, client *snmp.Client, oids []snmp.OID) (snmp.VarBindList, error) {
		return client.GetBulk(ctx, nonRepeaters, maxRepetitions, oids...)
	})
}
