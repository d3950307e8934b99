package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TaxReceipt is the soul-bound proof of a tax payment. Its owner is fixed at
// mint time.
type TaxReceipt struct {
	ID           uint64         `json:"id"`
	Owner        common.Address `json:"owner"`
	AssessmentID uint64         `json:"assessmentId"`
	MetadataURI  string         `json:"metadataUri"`
	MintedAt     time.Time      `json:"mintedAt"`
}
