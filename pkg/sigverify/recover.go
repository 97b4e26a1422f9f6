// Package sigverify recovers and validates the secp256k1 signer of a signed
// package hash. Pure functions, no side effects.
package sigverify

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const SignatureLength = 65

var ErrInvalidSignature = errors.New("sigverify: invalid signature")

// RecoverSigner recovers the address that produced sig (r||s||v, v in
// {27, 28}) over hash. Non-canonical signatures with s above half the curve
// order are rejected, as are signatures recovering to the zero address.
func RecoverSigner(hash []byte, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidSignature, len(sig), SignatureLength)
	}
	v := sig[SignatureLength-1]
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: v=%d, want 27 or 28", ErrInvalidSignature, v)
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	// homestead=true enforces the low-s (anti-malleability) constraint.
	if !crypto.ValidateSignatureValues(v-27, r, s, true) {
		return common.Address{}, fmt.Errorf("%w: non-canonical r/s values", ErrInvalidSignature)
	}

	// go-ethereum expects the recovery id as 0/1 in the last byte.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	normalized[SignatureLength-1] = v - 27

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	addr := crypto.PubkeyToAddress(*pub)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: recovered zero address", ErrInvalidSignature)
	}
	return addr, nil
}
