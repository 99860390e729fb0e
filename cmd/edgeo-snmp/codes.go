package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/snmp"
)

var codesCmd = &cobra.Command{
	Use:   "codes [error-status|generic-trap] [NAME|NUMBER]",
	Short: "List or resolve error-status and generic-trap codes",
	Long: `List the SNMP error-status and generic-trap code tables, or resolve a
single code by name or number.

Examples:
  edgeo-snmp codes
  edgeo-snmp codes error-status notWritable
  edgeo-snmp codes generic-trap 3`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCodes,
}

func init() {
	rootCmd.AddCommand(codesCmd)
}

func runCodes(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	if len(args) == 2 {
		switch args[0] {
		case "error-status":
			e, err := snmp.ParseErrorStatus(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d %s\n", int32(e), e)
		case "generic-trap":
			g, err := snmp.ParseGenericTrap(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d %s\n", int32(g), g)
		default:
			return fmt.Errorf("unknown table %q (use error-status or generic-trap)", args[0])
		}
		return nil
	}

	showErrors := len(args) == 0 || args[0] == "error-status"
	showTraps := len(args) == 0 || args[0] == "generic-trap"
	if !showErrors && !showTraps {
		return fmt.Errorf("unknown table %q (use error-status or generic-trap)", args[0])
	}

	if showErrors {
		t := NewTableWriter(w, "error-status", "name")
		for code, name := range snmp.ErrorStatusNames() {
			t.AddRow(strconv.Itoa(code), name)
		}
		t.Render()
	}
	if showErrors && showTraps {
		fmt.Fprintln(w)
	}
	if showTraps {
		t := NewTableWriter(w, "generic-trap", "name")
		for code, name := range snmp.GenericTrapNames() {
			t.AddRow(strconv.Itoa(code), name)
		}
		t.Render()
	}
	return nil
}
