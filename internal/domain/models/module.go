package models

import "github.com/ethereum/go-ethereum/common"

// Well-known module ids.
const (
	ModuleCore      = "core"
	ModuleAccess    = "access"
	ModuleToken     = "token"
	ModuleTax       = "tax"
	ModuleReceipt   = "receipt"
	ModuleGrievance = "grievance"
	ModuleProject   = "project"
	ModuleGovernor  = "governor"

	// ModuleForwarder tags relay events; the forwarder sits in front of the
	// core rather than behind it.
	ModuleForwarder = "forwarder"
)

// ModuleInfo describes the implementation a module id currently points at.
type ModuleInfo struct {
	ID             string         `json:"id"`
	Version        string         `json:"version"`
	Implementation common.Address `json:"implementation"`
}
