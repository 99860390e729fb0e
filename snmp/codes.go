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

package snmp

import (
	"strconv"
	"strings"
)

// ErrorStatus is the error-status field of a PDU. Values outside the
// standard table are raw codes and are carried through unchanged.
type ErrorStatus int32

const (
	NoError             ErrorStatus = 0
	TooBig              ErrorStatus = 1
	NoSuchName          ErrorStatus = 2
	BadValue            ErrorStatus = 3
	ReadOnly            ErrorStatus = 4
	GenErr              ErrorStatus = 5
	NoAccess            ErrorStatus = 6
	WrongType           ErrorStatus = 7
	WrongLength         ErrorStatus = 8
	WrongEncoding       ErrorStatus = 9
	WrongValue          ErrorStatus = 10
	NoCreation          ErrorStatus = 11
	InconsistentValue   ErrorStatus = 12
	ResourceUnavailable ErrorStatus = 13
	CommitFailed        ErrorStatus = 14
	UndoFailed          ErrorStatus = 15
	AuthorizationError  ErrorStatus = 16
	NotWritable         ErrorStatus = 17
	InconsistentName    ErrorStatus = 18
)

// GenericTrap is the generic-trap field of an SNMPv1 trap. Values outside
// the standard table are raw codes and are carried through unchanged.
type GenericTrap int32

const (
	ColdStart             GenericTrap = 0
	WarmStart             GenericTrap = 1
	LinkDown              GenericTrap = 2
	LinkUp                GenericTrap = 3
	AuthenticationFailure GenericTrap = 4
	EGPNeighborLoss       GenericTrap = 5
	EnterpriseSpecific    GenericTrap = 6
)

var errorStatusNames = []string{
	"noError",
	"tooBig",
	"noSuchName",
	"badValue",
	"readOnly",
	"genErr",
	"noAccess",
	"wrongType",
	"wrongLength",
	"wrongEncoding",
	"wrongValue",
	"noCreation",
	"inconsistentValue",
	"resourceUnavailable",
	"commitFailed",
	"undoFailed",
	"authorizationError",
	"notWritable",
	"inconsistentName",
}

var genericTrapNames = []string{
	"coldStart",
	"warmStart",
	"linkDown",
	"linkUp",
	"authenticationFailure",
	"egpNeighborLoss",
	"enterpriseSpecific",
}

// Reverse lookups, built once.
var (
	errorStatusByName = reverseTable(errorStatusNames)
	genericTrapByName = reverseTable(genericTrapNames)
)

func reverseTable(names []string) map[string]int32 {
	m := make(map[string]int32, len(names))
	for i, name := range names {
		m[name] = int32(i)
	}
	return m
}

func lookupName(names []string, v int32) (string, bool) {
	if v < 0 || int(v) >= len(names) {
		return "", false
	}
	return names[v], true
}

// parseCode resolves s against a table. Any decimal 32-bit integer is
// accepted, known or not.
func parseCode(byName map[string]int32, s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if v, ok := byName[s]; ok {
		return v, true
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// Name returns the symbolic name of a known error status.
func (e ErrorStatus) Name() (string, bool) {
	return lookupName(errorStatusNames, int32(e))
}

// Known reports whether e is one of the standard error-status codes.
func (e ErrorStatus) Known() bool {
	_, ok := e.Name()
	return ok
}

// String returns the symbolic name, or the decimal value of a raw code.
func (e ErrorStatus) String() string {
	if name, ok := e.Name(); ok {
		return name
	}
	return strconv.FormatInt(int64(e), 10)
}

// ParseErrorStatus accepts a symbolic name such as "noSuchName" or a
// decimal integer. Integers outside the table yield raw codes.
func ParseErrorStatus(s string) (ErrorStatus, error) {
	v, ok := parseCode(errorStatusByName, s)
	if !ok {
		return 0, &InvalidErrorStatusError{Value: s}
	}
	return ErrorStatus(v), nil
}

// ErrorStatusNames returns the standard error-status names in code order.
func ErrorStatusNames() []string {
	return append([]string(nil), errorStatusNames...)
}

// Name returns the symbolic name of a known generic trap.
func (g GenericTrap) Name() (string, bool) {
	return lookupName(genericTrapNames, int32(g))
}

// Known reports whether g is one of the standard generic-trap codes.
func (g GenericTrap) Known() bool {
	_, ok := g.Name()
	return ok
}

// String returns the symbolic name, or the decimal value of a raw code.
func (g GenericTrap) String() string {
	if name, ok := g.Name(); ok {
		return name
	}
	return strconv.FormatInt(int64(g), 10)
}

// ParseGenericTrap accepts a symbolic name such as "linkDown" or a decimal
// integer. Integers outside the table yield raw codes.
func ParseGenericTrap(s string) (GenericTrap, error) {
	v, ok := parseCode(genericTrapByName, s)
	if !ok {
		return 0, &InvalidGenericTrapError{Value: s}
	}
	return GenericTrap(v), nil
}

// GenericTrapNames returns the standard generic-trap names in code order.
func GenericTrapNames() []string {
	return append([]string(nil), genericTrapNames...)
}
