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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgeo-scada/snmp/snmp"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatCSV   OutputFormat = "csv"
	FormatRaw   OutputFormat = "raw"
)

// VarBindOutput is the structured form of a variable binding.
type VarBindOutput struct {
	OID   string `json:"oid" yaml:"oid"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

// Formatter handles output formatting.
type Formatter struct {
	format    OutputFormat
	writer    io.Writer
	csvWriter *csv.Writer
	first     bool
}

// NewFormatter creates a formatter writing to stdout.
func NewFormatter(format string) *Formatter {
	return newFormatterTo(format, os.Stdout)
}

func newFormatterTo(format string, w io.Writer) *Formatter {
	f := &Formatter{
		format: OutputFormat(format),
		writer: w,
		first:  true,
	}
	if f.format == FormatCSV {
		f.csvWriter = csv.NewWriter(w)
	}
	return f
}

// FormatVarBind formats and prints a binding.
func (f *Formatter) FormatVarBind(vb snmp.VarBind) {
	switch f.format {
	case FormatJSON:
		f.encodeJSON(toVarBindOutput(vb), false)
	case FormatYAML:
		f.encodeYAML(toVarBindOutput(vb))
	case FormatCSV:
		f.formatCSV(vb)
	case FormatRaw:
		fmt.Fprintln(f.writer, formatValue(vb))
	default:
		f.formatTable(vb)
	}
}

// FormatVarBinds formats and prints a binding list.
func (f *Formatter) FormatVarBinds(vbs snmp.VarBindList) {
	for _, vb := range vbs {
		f.FormatVarBind(vb)
	}
}

func (f *Formatter) formatTable(vb snmp.VarBind) {
	var sb strings.Builder

	sb.WriteString(colorize(vb.OID.String(), ColorCyan))
	sb.WriteString(" = ")
	sb.WriteString(colorize(vb.Type.String(), ColorYellow))
	sb.WriteString(": ")
	sb.WriteString(formatValue(vb))

	fmt.Fprintln(f.writer, sb.String())
}

func (f *Formatter) formatCSV(vb snmp.VarBind) {
	if f.first {
		f.csvWriter.Write([]string{"oid", "type", "value"})
		f.first = false
	}

	f.csvWriter.Write([]string{
		vb.OID.String(),
		vb.Type.String(),
		formatValue(vb),
	})
	f.csvWriter.Flush()
}

func (f *Formatter) encodeJSON(v any, indent bool) {
	var data []byte
	if indent {
		data, _ = json.MarshalIndent(v, "", "  ")
	} else {
		data, _ = json.Marshal(v)
	}
	fmt.Fprintln(f.writer, string(data))
}

func (f *Formatter) encodeYAML(v any) {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if !f.first {
		fmt.Fprintln(f.writer, "---")
	}
	f.first = false
	enc.Encode(v)
	enc.Close()
}

func toVarBindOutput(vb snmp.VarBind) VarBindOutput {
	return VarBindOutput{
		OID:   vb.OID.String(),
		Type:  vb.Type.String(),
		Value: convertValue(vb),
	}
}

func toVarBindOutputs(vbs snmp.VarBindList) []VarBindOutput {
	out := make([]VarBindOutput, 0, len(vbs))
	for _, vb := range vbs {
		out = append(out, toVarBindOutput(vb))
	}
	return out
}

// formatValue formats a binding value for display.
func formatValue(vb snmp.VarBind) string {
	switch vb.Type {
	case snmp.TypeNull:
		return "NULL"

	case snmp.TypeOctetString:
		if val, ok := vb.Value.([]byte); ok {
			if isPrintable(val) {
				return fmt.Sprintf("%q", string(val))
			}
			return formatHex(val)
		}
		return fmt.Sprintf("%v", vb.Value)

	case snmp.TypeObjectIdentifier:
		if oid, ok := vb.Value.(snmp.OID); ok {
			return oid.String()
		}
		return fmt.Sprintf("%v", vb.Value)

	case snmp.TypeIPAddress:
		if ip, ok := vb.Value.(net.IP); ok {
			return ip.String()
		}
		return fmt.Sprintf("%v", vb.Value)

	case snmp.TypeTimeTicks:
		if ticks, ok := vb.Value.(uint32); ok {
			return fmt.Sprintf("%d (%s)", ticks, snmp.TimeTicksToString(ticks))
		}
		return fmt.Sprintf("%v", vb.Value)

	case snmp.TypeOpaque:
		if data, ok := vb.Value.([]byte); ok {
			return formatHex(data)
		}
		return fmt.Sprintf("%v", vb.Value)

	case snmp.TypeNoSuchObject:
		return "No Such Object"

	case snmp.TypeNoSuchInstance:
		return "No Such Instance"

	case snmp.TypeEndOfMibView:
		return "End of MIB View"

	default:
		if data, ok := vb.Value.([]byte); ok {
			return formatHex(data)
		}
		return fmt.Sprintf("%v", vb.Value)
	}
}

// convertValue converts a binding value for structured output.
func convertValue(vb snmp.VarBind) any {
	switch vb.Type {
	case snmp.TypeNull, snmp.TypeNoSuchObject, snmp.TypeNoSuchInstance, snmp.TypeEndOfMibView:
		return nil

	case snmp.TypeOctetString:
		if val, ok := vb.Value.([]byte); ok {
			if isPrintable(val) {
				return string(val)
			}
			return formatHex(val)
		}
		return vb.Value

	case snmp.TypeObjectIdentifier:
		if oid, ok := vb.Value.(snmp.OID); ok {
			return oid.String()
		}
		return vb.Value

	case snmp.TypeIPAddress:
		if ip, ok := vb.Value.(net.IP); ok {
			return ip.String()
		}
		return vb.Value

	case snmp.TypeTimeTicks:
		if ticks, ok := vb.Value.(uint32); ok {
			return map[string]any{
				"ticks":   ticks,
				"seconds": snmp.TimeTicksToSeconds(ticks),
				"human":   snmp.TimeTicksToString(ticks),
			}
		}
		return vb.Value

	default:
		if data, ok := vb.Value.([]byte); ok {
			return formatHex(data)
		}
		return vb.Value
	}
}

// isPrintable checks if bytes are printable ASCII.
func isPrintable(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return true
}

// formatHex formats bytes as hex string.
func formatHex(data []byte) string {
	parts := make([]string, 0, len(data))
	for _, b := range data {
		parts = append(parts, fmt.Sprintf("%02X", b))
	}
	return strings.Join(parts, " ")
}

// Color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// colorize wraps text with color codes.
func colorize(text, color string) string {
	if noColor {
		return text
	}
	return color + text + ColorReset
}

// TableWriter writes formatted tables.
type TableWriter struct {
	w       io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTableWriter creates a new table writer.
func NewTableWriter(w io.Writer, headers ...string) *TableWriter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &TableWriter{
		w:       w,
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table.
func (t *TableWriter) AddRow(values ...string) {
	for i, v := range values {
		if i < len(t.widths) && len(v) > t.widths[i] {
			t.widths[i] = len(v)
		}
	}
	t.rows = append(t.rows, values)
}

// Render writes the table.
func (t *TableWriter) Render() {
	for i, h := range t.headers {
		fmt.Fprintf(t.w, "%-*s  ", t.widths[i], h)
	}
	fmt.Fprintln(t.w)

	for i := range t.headers {
		fmt.Fprint(t.w, strings.Repeat("-", t.widths[i])+"  ")
	}
	fmt.Fprintln(t.w)

	for _, row := range t.rows {
		for i, v := range row {
			if i < len(t.widths) {
				fmt.Fprintf(t.w, "%-*s  ", t.widths[i], v)
			}
		}
		fmt.Fprintln(t.w)
	}
}

// NotificationOutput is the structured form of a received trap or inform.
type NotificationOutput struct {
	ReceivedAt    time.Time       `json:"received_at" yaml:"received_at"`
	Version       string          `json:"version" yaml:"version"`
	Type          string          `json:"type" yaml:"type"`
	Community     string          `json:"community,omitempty" yaml:"community,omitempty"`
	SourceAddress string          `json:"source_address,omitempty" yaml:"source_address,omitempty"`
	RequestID     int32           `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Enterprise    string          `json:"enterprise,omitempty" yaml:"enterprise,omitempty"`
	AgentAddress  string          `json:"agent_address,omitempty" yaml:"agent_address,omitempty"`
	GenericTrap   string          `json:"generic_trap,omitempty" yaml:"generic_trap,omitempty"`
	SpecificTrap  int32           `json:"specific_trap,omitempty" yaml:"specific_trap,omitempty"`
	Uptime        string          `json:"uptime" yaml:"uptime"`
	TrapOID       string          `json:"trap_oid" yaml:"trap_oid"`
	VarBinds      []VarBindOutput `json:"varbinds" yaml:"varbinds"`
}

func toNotificationOutput(n *snmp.Notification) NotificationOutput {
	out := NotificationOutput{
		ReceivedAt: n.ReceivedAt,
		Version:    n.Version.String(),
		Type:       n.Type.String(),
		Community:  n.Community,
		RequestID:  n.RequestID,
		Uptime:     snmp.TimeTicksToString(n.Uptime),
		TrapOID:    n.TrapOID.String(),
		VarBinds:   toVarBindOutputs(n.VarBinds),
	}
	if n.Source != nil {
		out.SourceAddress = n.Source.String()
	}
	if n.Type == snmp.PDUTrapV1 {
		out.Enterprise = n.Enterprise.String()
		out.AgentAddress = n.AgentAddress.String()
		out.GenericTrap = n.GenericTrap.String()
		out.SpecificTrap = n.SpecificTrap
	}
	return out
}

// FormatNotification formats a received trap or inform.
func (f *Formatter) FormatNotification(n *snmp.Notification) {
	switch f.format {
	case FormatJSON:
		f.encodeJSON(toNotificationOutput(n), true)
	case FormatYAML:
		f.encodeYAML(toNotificationOutput(n))
	default:
		f.formatNotificationTable(n)
	}
}

func (f *Formatter) formatNotificationTable(n *snmp.Notification) {
	w := f.writer
	field := func(name, value string) {
		fmt.Fprintf(w, "  %s: %s\n", colorize(name, ColorCyan), value)
	}

	fmt.Fprintln(w)
	if n.Type == snmp.PDUInformRequest {
		fmt.Fprintln(w, colorize("=== INFORM RECEIVED ===", ColorBold))
	} else {
		fmt.Fprintln(w, colorize("=== TRAP RECEIVED ===", ColorBold))
	}
	field("Time", n.ReceivedAt.Format(time.RFC3339))
	if n.Source != nil {
		field("Source", n.Source.String())
	}
	field("Version", n.Version.String())
	field("Community", n.Community)

	if n.Type == snmp.PDUTrapV1 {
		field("Enterprise", n.Enterprise.String())
		field("Agent Address", n.AgentAddress.String())
		field("Generic Trap", n.GenericTrap.String())
		field("Specific Trap", fmt.Sprintf("%d", n.SpecificTrap))
	} else {
		field("Request ID", fmt.Sprintf("%d", n.RequestID))
	}

	field("Uptime", snmp.TimeTicksToString(n.Uptime))
	field("Trap OID", n.TrapOID.String())

	if len(n.VarBinds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colorize("Variables:", ColorBold))
		for _, vb := range n.VarBinds {
			fmt.Fprintf(w, "    %s = %s: %s\n",
				colorize(vb.OID.String(), ColorCyan),
				colorize(vb.Type.String(), ColorYellow),
				formatValue(vb))
		}
	}
	fmt.Fprintln(w)
}

// MessageOutput is the structured form of a decoded message.
type MessageOutput struct {
	Version        string          `json:"version" yaml:"version"`
	Community      string          `json:"community" yaml:"community"`
	PDU            string          `json:"pdu" yaml:"pdu"`
	RequestID      *int32          `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	ErrorStatus    string          `json:"error_status,omitempty" yaml:"error_status,omitempty"`
	ErrorIndex     int32           `json:"error_index,omitempty" yaml:"error_index,omitempty"`
	NonRepeaters   *int32          `json:"non_repeaters,omitempty" yaml:"non_repeaters,omitempty"`
	MaxRepetitions *int32          `json:"max_repetitions,omitempty" yaml:"max_repetitions,omitempty"`
	Enterprise     string          `json:"enterprise,omitempty" yaml:"enterprise,omitempty"`
	AgentAddress   string          `json:"agent_address,omitempty" yaml:"agent_address,omitempty"`
	GenericTrap    string          `json:"generic_trap,omitempty" yaml:"generic_trap,omitempty"`
	SpecificTrap   *int32          `json:"specific_trap,omitempty" yaml:"specific_trap,omitempty"`
	Timestamp      *uint32         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	TrapOID        string          `json:"trap_oid,omitempty" yaml:"trap_oid,omitempty"`
	VarBinds       []VarBindOutput `json:"varbinds" yaml:"varbinds"`
}

func toMessageOutput(msg *snmp.Message) MessageOutput {
	out := MessageOutput{
		Version:   msg.Version.String(),
		Community: msg.Community,
		PDU:       msg.PDU.Type().String(),
		VarBinds:  toVarBindOutputs(msg.PDU.VarBindList()),
	}
	if id, ok := snmp.RequestID(msg.PDU); ok {
		out.RequestID = &id
	}

	switch p := msg.PDU.(type) {
	case *snmp.Response:
		if p.ErrorStatus != snmp.NoError {
			out.ErrorStatus = p.ErrorStatus.String()
			out.ErrorIndex = p.ErrorIndex
		}
	case *snmp.GetBulkRequest:
		out.NonRepeaters = &p.NonRepeaters
		out.MaxRepetitions = &p.MaxRepetitions
	case *snmp.TrapV1:
		out.Enterprise = p.Enterprise.String()
		out.AgentAddress = p.AgentAddress.String()
		out.GenericTrap = p.GenericTrap.String()
		out.SpecificTrap = &p.SpecificTrap
		out.Timestamp = &p.Timestamp
		out.TrapOID = p.TrapOID().String()
	case *snmp.TrapV2:
		if oid, err := p.TrapOID(); err == nil {
			if trapOID, ok := oid.(snmp.OID); ok {
				out.TrapOID = trapOID.String()
			}
		}
	case *snmp.InformRequest:
		if oid, err := p.TrapOID(); err == nil {
			if trapOID, ok := oid.(snmp.OID); ok {
				out.TrapOID = trapOID.String()
			}
		}
	}
	return out
}

// FormatMessage formats a decoded message.
func (f *Formatter) FormatMessage(msg *snmp.Message) {
	switch f.format {
	case FormatJSON:
		f.encodeJSON(toMessageOutput(msg), true)
	case FormatYAML:
		f.encodeYAML(toMessageOutput(msg))
	default:
		out := toMessageOutput(msg)
		fmt.Fprintf(f.writer, "%s %s community=%q", colorize(out.Version, ColorBold), colorize(out.PDU, ColorBold), out.Community)
		if out.RequestID != nil {
			fmt.Fprintf(f.writer, " request-id=%d", *out.RequestID)
		}
		if out.ErrorStatus != "" {
			fmt.Fprintf(f.writer, " error-status=%s error-index=%d", out.ErrorStatus, out.ErrorIndex)
		}
		if out.NonRepeaters != nil {
			fmt.Fprintf(f.writer, " non-repeaters=%d max-repetitions=%d", *out.NonRepeaters, *out.MaxRepetitions)
		}
		if out.Enterprise != "" {
			fmt.Fprintf(f.writer, " enterprise=%s agent=%s generic=%s specific=%d timestamp=%d",
				out.Enterprise, out.AgentAddress, out.GenericTrap, *out.SpecificTrap, *out.Timestamp)
		}
		if out.TrapOID != "" {
			fmt.Fprintf(f.writer, " trap-oid=%s", out.TrapOID)
		}
		fmt.Fprintln(f.writer)
		for _, vb := range msg.PDU.VarBindList() {
			fmt.Fprint(f.writer, "  ")
			f.formatTable(vb)
		}
	}
}
