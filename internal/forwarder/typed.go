package forwarder

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
)

const (
	DomainName    = "MetaForwarder"
	DomainVersion = "1"

	primaryType = "ForwardRequest"
)

var types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	primaryType: {
		{Name: "from", Type: "address"},
		{Name: "module", Type: "string"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	},
}

// Domain is the EIP-712 signing domain of one deployment.
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address
}

func (d Domain) typed() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(d.ChainID)),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

func (d Domain) typedData(req models.ForwardRequest) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      d.typed(),
		Message: apitypes.TypedDataMessage{
			"from":     req.From.Hex(),
			"module":   req.Module,
			"nonce":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(req.Nonce)),
			"deadline": (*math.HexOrDecimal256)(new(big.Int).SetUint64(req.Deadline)),
			"data":     hexutil.Encode(req.Data),
		},
	}
}

// Separator is the EIP-712 domain separator.
func (d Domain) Separator() (common.Hash, error) {
	td := apitypes.TypedData{Types: types, Domain: d.typed()}
	sep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash domain: %w", err)
	}
	return common.BytesToHash(sep), nil
}

// Hash is the digest a request's signer signs.
func (d Domain) Hash(req models.ForwardRequest) (common.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(d.typedData(req))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: hash request: %v", domain.ErrInvalidInput, err)
	}
	return common.BytesToHash(digest), nil
}

// Sign produces a 65-byte [R || S || V] signature with V in {27, 28}.
func (d Domain) Sign(key *ecdsa.PrivateKey, req models.ForwardRequest) (hexutil.Bytes, error) {
	digest, err := d.Hash(req)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address that signed req.
func (d Domain) Recover(req models.ForwardRequest, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature is %d bytes", domain.ErrInvalidSignature, len(signature))
	}
	digest, err := d.Hash(req)
	if err != nil {
		return common.Address{}, err
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
