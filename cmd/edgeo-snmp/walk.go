// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/snmp"
)

var walkCmd = &cobra.Command{
	Use:   "walk OID",
	Short: "Walk an SNMP MIB subtree",
	Long: `Walk an SNMP MIB subtree starting from the given OID.

For SNMPv1, this uses GET-NEXT requests and treats noSuchName as the end
of the view. For SNMPv2c, this uses GET-BULK requests.

The walk stops at the first OID outside the subtree, at an exception value,
or with an error if the agent returns an OID that does not increase.

Examples:
  # Walk the system group
  edgeo-snmp walk -t 192.168.1.1 1.3.6.1.2.1.1

  # Walk interface table
  edgeo-snmp walk -t 192.168.1.1 1.3.6.1.2.1.2.2`,
	Args: cobra.ExactArgs(1),
	RunE: runWalk,
}

var bulkWalkCmd = &cobra.Command{
	Use:   "bulkwalk OID",
	Short: "Walk using GET-BULK (v2c)",
	Long: `Walk an SNMP MIB subtree using GET-BULK requests.
Only available for SNMPv2c.

Examples:
  # Bulk walk with custom repetitions
  edgeo-snmp bulkwalk -t 192.168.1.1 --max-repetitions 50 1.3.6.1.2.1.2.2`,
	Args: cobra.ExactArgs(1),
	RunE: runBulkWalk,
}

var (
	walkMaxRepetitions int
	walkShowCount      bool
)

func init() {
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(bulkWalkCmd)

	for _, cmd := range []*cobra.Command{walkCmd, bulkWalkCmd} {
		cmd.Flags().IntVar(&walkMaxRepetitions, "max-repetitions", snmp.DefaultMaxRepetitions, "max-repetitions for bulk requests")
		cmd.Flags().BoolVar(&walkShowCount, "count", false, "show count of variables at the end")
	}
}

func runWalk(cmd *cobra.Command, args []string) error {
	return walk(args[0], "walk")
}

func runBulkWalk(cmd *cobra.Command, args []string) error {
	if v, err := snmpVersion(); err == nil && v == snmp.Version1 {
		return fmt.Errorf("bulk walk is not available in SNMPv1, use 'walk' instead")
	}
	return walk(args[0], "bulk walk")
}

func walk(arg, name string) error {
	if err := checkTarget(); err != nil {
		return err
	}

	rootOID, err := snmp.ParseOID(arg)
	if err != nil {
		return fmt.Errorf("invalid OID: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := createClient(ctx)
	if err != nil {
		return err
	}
	defer disconnectClient(client)

	if walkMaxRepetitions > 0 {
		client.Options().MaxRepetitions = walkMaxRepetitions
	}

	printVerbose("Walking from %s (max-repetitions=%d)...", rootOID, client.Options().MaxRepetitions)
	start := time.Now()

	formatter := NewFormatter(outputFormat)
	count := 0

	err = client.WalkFunc(ctx, rootOID, func(vb snmp.VarBind) error {
		formatter.FormatVarBind(vb)
		count++
		return nil
	})

	elapsed := time.Since(start)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\nInterrupted")
	} else if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}

	if walkShowCount || verbose {
		fmt.Fprintf(os.Stderr, "\n%d variables retrieved in %s\n", count, formatDuration(elapsed))
	}

	return nil
}
