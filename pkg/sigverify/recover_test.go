package sigverify

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// secp256k1 curve order, for building the non-canonical mirror signature.
var curveN, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

func signFixture(t *testing.T) (hash []byte, sig []byte, addr [20]byte) {
	t.Helper()
	key, err := crypto.HexToECDSA("8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f")
	require.NoError(t, err)

	hash = crypto.Keccak256([]byte("observed feed values"))
	raw, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	sig = append([]byte(nil), raw...)
	sig[64] += 27
	copy(addr[:], crypto.PubkeyToAddress(key.PublicKey).Bytes())
	return hash, sig, addr
}

func TestRecoverSigner(t *testing.T) {
	hash, sig, want := signFixture(t)

	got, err := RecoverSigner(hash, sig)
	require.NoError(t, err)
	require.Equal(t, want[:], got.Bytes())
}

func TestRecoverSignerRejects(t *testing.T) {
	hash, sig, _ := signFixture(t)

	t.Run("bad length", func(t *testing.T) {
		_, err := RecoverSigner(hash, sig[:64])
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("v outside 27/28", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[64] = 29
		_, err := RecoverSigner(hash, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)

		bad[64] = 0
		_, err = RecoverSigner(hash, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("high s", func(t *testing.T) {
		// Mirror s across the curve order and flip v: same recovery math,
		// non-canonical encoding. Must be rejected regardless.
		bad := append([]byte(nil), sig...)
		s := new(big.Int).SetBytes(bad[32:64])
		s.Sub(curveN, s)
		sb := s.Bytes()
		for i := range bad[32:64] {
			bad[32+i] = 0
		}
		copy(bad[64-len(sb):64], sb)
		if bad[64] == 27 {
			bad[64] = 28
		} else {
			bad[64] = 27
		}
		_, err := RecoverSigner(hash, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("zero r and s", func(t *testing.T) {
		bad := make([]byte, SignatureLength)
		bad[64] = 27
		_, err := RecoverSigner(hash, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered hash recovers different signer", func(t *testing.T) {
		other := crypto.Keccak256([]byte("tampered"))
		got, err := RecoverSigner(other, sig)
		if err == nil {
			_, _, want := signFixture(t)
			require.NotEqual(t, want[:], got.Bytes())
		}
	})
}
