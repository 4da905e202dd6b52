// Package respcode builds the 7-character composite response code carried in
// every API envelope:
//
//	2-digit HTTP class ("20", "40", "41"→"40", "50")
//	3-char module identifier (one per role area)
//	2-char specific outcome (success, created, not-found, ...)
//
// It is a leaf package so both the handlers and the middleware (which cannot
// import handlers) assemble codes through the same function instead of string
// literals.
package respcode

import "strconv"

// Module identifiers, one per role area.
const (
	ModuleAuth     = "001"
	ModuleCustomer = "002"
	ModuleDriver   = "003"
	ModuleLoading  = "004"
	ModuleAgent    = "005"
	ModuleTracking = "006"
	// ModuleSystem covers health, routing fallbacks, and anything not owned
	// by a role area.
	ModuleSystem = "000"
)

// Specific outcome identifiers.
const (
	SpecificSuccess      = "00"
	SpecificCreated      = "01"
	SpecificNotFound     = "02"
	SpecificInvalid      = "03"
	SpecificUnauthorized = "04"
	SpecificForbidden    = "05"
	SpecificError        = "06"
)

// Code builds the composite code from an HTTP status, a module identifier,
// and a specific-outcome identifier.
func Code(status int, module, specific string) string {
	prefix := strconv.Itoa(status)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return prefix + module + specific
}
