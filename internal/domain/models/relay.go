package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ForwardRequest is a citizen-signed call that a relayer submits on the
// citizen's behalf. (From, Nonce) is consumed at most once.
type ForwardRequest struct {
	From     common.Address `json:"from"`
	Module   string         `json:"module"`
	Nonce    uint64         `json:"nonce"`
	Deadline uint64         `json:"deadline"` // unix seconds
	Data     hexutil.Bytes  `json:"data"`
}

// ExpiresAt returns the deadline as a time.
func (r *ForwardRequest) ExpiresAt() time.Time {
	return time.Unix(int64(r.Deadline), 0).UTC()
}

// SignedRequest pairs a request with its 65-byte [R || S || V] signature.
type SignedRequest struct {
	Request   ForwardRequest `json:"request"`
	Signature hexutil.Bytes  `json:"signature"`
}

// RelayResult reports the outcome of one relayed request in a batch.
type RelayResult struct {
	From     common.Address `json:"from"`
	Nonce    uint64         `json:"nonce"`
	ResultID uint64         `json:"resultId,omitempty"`
	Err      error          `json:"-"`
}
