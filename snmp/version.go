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

// Package snmp implements the SNMP v1/v2c message layer: the Message
// envelope, the PDU variants and their BER wire form, plus a UDP client and
// trap listener built on top of them.
package snmp

import (
	"fmt"
	"runtime"
)

// Version information for the SNMP library.
const (
	// Version is the current version of the library.
	Version = "1.0.0"

	// ProtocolName is the SNMP protocol name.
	ProtocolName = "SNMP"
)

// SNMPVersion is the message version field. Only the community-based
// versions are supported.
type SNMPVersion int

const (
	// Version1 is SNMPv1, wire value 0.
	Version1 SNMPVersion = 0
	// Version2c is SNMPv2c, wire value 1.
	Version2c SNMPVersion = 1
)

// String returns the string representation of the SNMP version.
func (v SNMPVersion) String() string {
	switch v {
	case Version1:
		return "SNMPv1"
	case Version2c:
		return "SNMPv2c"
	default:
		return fmt.Sprintf("SNMPVersion(%d)", int(v))
	}
}

// Supported reports whether v is a version this package can encode.
func (v SNMPVersion) Supported() bool {
	return v == Version1 || v == Version2c
}

// ParseVersion converts the CLI spelling of a version ("1", "v1", "2c",
// "v2c") to an SNMPVersion.
func ParseVersion(s string) (SNMPVersion, error) {
	switch s {
	case "1", "v1":
		return Version1, nil
	case "2", "2c", "v2c":
		return Version2c, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
}

// BuildInfo contains build metadata.
type BuildInfo struct {
	Version   string
	GoVersion string
	OS        string
	Arch      string
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
