package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/snmp"
)

var trapSendCmd = &cobra.Command{
	Use:   "trap-send [OID TYPE VALUE...]",
	Short: "Send an SNMP trap",
	Long: `Send an unacknowledged notification to a trap receiver.

SNMPv1 sends a Trap-PDU built from --enterprise, --agent-address, --generic
and --specific. SNMPv2c sends an SNMPv2-Trap-PDU whose leading bindings are
sysUpTime.0 and snmpTrapOID.0 (--trap-oid). Extra bindings use the same
OID TYPE VALUE triplets as 'set'.

Examples:
  # SNMPv2c linkDown with an ifIndex binding
  edgeo-snmp trap-send -t 192.168.1.10 -p 162 --trap-oid 1.3.6.1.6.3.1.1.5.3 \
    1.3.6.1.2.1.2.2.1.1.2 i 2

  # SNMPv1 enterprise-specific trap
  edgeo-snmp trap-send -t 192.168.1.10 -p 162 -V 1 --enterprise 1.3.6.1.4.1.9 \
    --generic enterpriseSpecific --specific 17`,
	Args: optionalTripletArgs,
	RunE: runTrapSend,
}

var informCmd = &cobra.Command{
	Use:   "inform [OID TYPE VALUE...]",
	Short: "Send an SNMPv2c inform and wait for the acknowledgement",
	Long: `Send an InformRequest and print the bindings of the receiver's Response.

Examples:
  edgeo-snmp inform -t 192.168.1.10 -p 162 --trap-oid 1.3.6.1.6.3.1.1.5.1`,
	Args: optionalTripletArgs,
	RunE: runInform,
}

var (
	notifyTrapOID      string
	notifyUptime       uint32
	notifyEnterprise   string
	notifyAgentAddress string
	notifyGeneric      string
	notifySpecific     int32
)

func init() {
	rootCmd.AddCommand(trapSendCmd)
	rootCmd.AddCommand(informCmd)

	for _, cmd := range []*cobra.Command{trapSendCmd, informCmd} {
		cmd.Flags().StringVar(&notifyTrapOID, "trap-oid", snmp.OIDColdStart.String(), "snmpTrapOID.0 value (v2c)")
		cmd.Flags().Uint32Var(&notifyUptime, "uptime", 0, "sysUpTime.0 or v1 time-stamp in hundredths of a second")
	}
	trapSendCmd.Flags().StringVar(&notifyEnterprise, "enterprise", "1.3.6.1.4.1", "enterprise OID (v1)")
	trapSendCmd.Flags().StringVar(&notifyAgentAddress, "agent-address", "0.0.0.0", "agent address (v1)")
	trapSendCmd.Flags().StringVar(&notifyGeneric, "generic", "coldStart", "generic trap name or number (v1)")
	trapSendCmd.Flags().Int32Var(&notifySpecific, "specific", 0, "specific trap code (v1)")
}

func optionalTripletArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return tripletArgs(cmd, args)
}

// buildTrap builds the notification PDU for the configured version.
func buildTrap(v snmp.SNMPVersion, varbinds snmp.VarBindList) (snmp.PDU, error) {
	if v == snmp.Version1 {
		enterprise, err := snmp.ParseOID(notifyEnterprise)
		if err != nil {
			return nil, fmt.Errorf("invalid enterprise: %w", err)
		}
		agent := net.ParseIP(notifyAgentAddress).To4()
		if agent == nil {
			return nil, fmt.Errorf("invalid agent address: %s", notifyAgentAddress)
		}
		generic, err := snmp.ParseGenericTrap(notifyGeneric)
		if err != nil {
			return nil, err
		}
		return &snmp.TrapV1{
			Enterprise:   enterprise,
			AgentAddress: agent,
			GenericTrap:  generic,
			SpecificTrap: notifySpecific,
			Timestamp:    notifyUptime,
			VarBinds:     varbinds,
		}, nil
	}

	trapOID, err := snmp.ParseOID(notifyTrapOID)
	if err != nil {
		return nil, fmt.Errorf("invalid trap OID: %w", err)
	}
	return snmp.NewTrapV2(0, notifyUptime, trapOID, varbinds...), nil
}

func runTrapSend(cmd *cobra.Command, args []string) error {
	if err := checkTarget(); err != nil {
		return err
	}

	v, err := snmpVersion()
	if err != nil {
		return err
	}
	varbinds, err := parseVarBinds(args)
	if err != nil {
		return err
	}
	trap, err := buildTrap(v, varbinds)
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

	if err := client.SendTrap(ctx, trap); err != nil {
		return fmt.Errorf("trap send failed: %w", err)
	}

	printVerbose("Sent %s to %s:%d", trap.Type(), target, port)
	return nil
}

func runInform(cmd *cobra.Command, args []string) error {
	if err := checkTarget(); err != nil {
		return err
	}

	if v, err := snmpVersion(); err == nil && v == snmp.Version1 {
		return fmt.Errorf("inform is not available in SNMPv1")
	}

	trapOID, err := snmp.ParseOID(notifyTrapOID)
	if err != nil {
		return fmt.Errorf("invalid trap OID: %w", err)
	}
	varbinds, err := parseVarBinds(args)
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

	result, err := client.Inform(ctx, notifyUptime, trapOID, varbinds...)
	if err != nil {
		return fmt.Errorf("inform failed: %w", err)
	}

	NewFormatter(outputFormat).FormatVarBinds(result)
	return nil
}
