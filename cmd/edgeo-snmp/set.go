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
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/snmp/snmp"
)

var setCmd = &cobra.Command{
	Use:   "set OID TYPE VALUE [OID TYPE VALUE...]",
	Short: "Perform SNMP SET request",
	Long: `Perform an SNMP SET request to modify the value of one or more OIDs.

Type specifiers:
  i - INTEGER
  u - Unsigned32 (Gauge32)
  c - Counter32
  C - Counter64
  s - OCTET STRING (text)
  x - OCTET STRING (hex bytes, e.g., "DE AD BE EF")
  d - OCTET STRING (decimal bytes, e.g., "10.0.1.1")
  n - NULL
  o - OBJECT IDENTIFIER
  t - TimeTicks
  a - IpAddress

Examples:
  # Set system contact (string)
  edgeo-snmp set -t 192.168.1.1 1.3.6.1.2.1.1.4.0 s "admin@example.com"

  # Set an integer value
  edgeo-snmp set -t 192.168.1.1 1.3.6.1.4.1.9.2.1.55.0 i 5

  # Set multiple values
  edgeo-snmp set -t 192.168.1.1 \
    1.3.6.1.2.1.1.4.0 s "admin@example.com" \
    1.3.6.1.2.1.1.5.0 s "switch01"`,
	Args: tripletArgs,
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

// tripletArgs requires OID TYPE VALUE groups.
func tripletArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("requires at least 3 arguments: OID TYPE VALUE")
	}
	if len(args)%3 != 0 {
		return fmt.Errorf("arguments must be in groups of 3: OID TYPE VALUE")
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	if err := checkTarget(); err != nil {
		return err
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

	printVerbose("Sending SET request for %d variable(s)...", len(varbinds))
	start := time.Now()

	result, err := client.Set(ctx, varbinds...)
	if err != nil {
		return fmt.Errorf("SET failed: %w", err)
	}

	printVerbose("Response received in %s", formatDuration(time.Since(start)))

	NewFormatter(outputFormat).FormatVarBinds(result)
	return nil
}

// parseVarBinds parses OID TYPE VALUE triplets.
func parseVarBinds(args []string) (snmp.VarBindList, error) {
	var varbinds snmp.VarBindList

	for i := 0; i+2 < len(args); i += 3 {
		oid, err := snmp.ParseOID(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid OID '%s': %w", args[i], err)
		}

		vb, err := parseValue(oid, args[i+1], args[i+2])
		if err != nil {
			return nil, fmt.Errorf("invalid value for OID %s: %w", oid, err)
		}

		varbinds = append(varbinds, vb)
	}

	return varbinds, nil
}

func parseValue(oid snmp.OID, typeSpec, valueStr string) (snmp.VarBind, error) {
	vb := snmp.VarBind{OID: oid}

	if typeSpec != "C" {
		typeSpec = strings.ToLower(typeSpec)
	}

	switch typeSpec {
	case "i":
		val, err := strconv.ParseInt(valueStr, 10, 32)
		if err != nil {
			return vb, fmt.Errorf("invalid integer: %w", err)
		}
		vb.Type, vb.Value = snmp.TypeInteger, int(val)

	case "u", "c", "t":
		val, err := strconv.ParseUint(valueStr, 10, 32)
		if err != nil {
			return vb, fmt.Errorf("invalid unsigned integer: %w", err)
		}
		vb.Value = uint32(val)
		switch typeSpec {
		case "u":
			vb.Type = snmp.TypeGauge32
		case "c":
			vb.Type = snmp.TypeCounter32
		default:
			vb.Type = snmp.TypeTimeTicks
		}

	case "C":
		val, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			return vb, fmt.Errorf("invalid counter64: %w", err)
		}
		vb.Type, vb.Value = snmp.TypeCounter64, val

	case "s":
		vb.Type, vb.Value = snmp.TypeOctetString, []byte(valueStr)

	case "x":
		data, err := parseHexString(valueStr)
		if err != nil {
			return vb, fmt.Errorf("invalid hex string: %w", err)
		}
		vb.Type, vb.Value = snmp.TypeOctetString, data

	case "d":
		data, err := parseDottedDecimal(valueStr)
		if err != nil {
			return vb, fmt.Errorf("invalid decimal string: %w", err)
		}
		vb.Type, vb.Value = snmp.TypeOctetString, data

	case "n":
		vb.Type = snmp.TypeNull

	case "o":
		oidVal, err := snmp.ParseOID(valueStr)
		if err != nil {
			return vb, fmt.Errorf("invalid OID value: %w", err)
		}
		vb.Type, vb.Value = snmp.TypeObjectIdentifier, oidVal

	case "a":
		ip := net.ParseIP(valueStr).To4()
		if ip == nil {
			return vb, fmt.Errorf("not an IPv4 address: %s", valueStr)
		}
		vb.Type, vb.Value = snmp.TypeIPAddress, ip

	default:
		return vb, fmt.Errorf("unknown type specifier: %s (use i, u, c, C, s, x, d, n, o, t, or a)", typeSpec)
	}

	return vb, nil
}

// parseHexString accepts hex digits with optional space, colon or dash
// separators and an optional 0x prefix.
func parseHexString(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	return hex.DecodeString(s)
}

func parseDottedDecimal(s string) ([]byte, error) {
	parts := strings.Split(s, ".")
	data := make([]byte, len(parts))

	for i, part := range parts {
		val, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte value: %s", part)
		}
		data[i] = byte(val)
	}

	return data, nil
}
