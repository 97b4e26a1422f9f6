package payload

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
)

var testKeyHexes = []string{
	"8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f",
	"4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	"6370fd033278c143179d81c5526140625662b8daa446c22ee2d73db3707e620c",
}

func testSigner(t *testing.T, i int) (SignFn, [20]byte) {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHexes[i])
	require.NoError(t, err)

	sign := func(hash []byte) ([]byte, error) {
		sig, err := crypto.Sign(hash, key)
		if err != nil {
			return nil, err
		}
		sig[64] += 27
		return sig, nil
	}
	var addr [20]byte
	copy(addr[:], crypto.PubkeyToAddress(key.PublicKey).Bytes())
	return sign, addr
}

func mustFeed(t *testing.T, symbol string) feedid.FeedID {
	t.Helper()
	f, err := feedid.FromSymbol(symbol)
	require.NoError(t, err)
	return f
}

func TestLocateTrailer(t *testing.T) {
	sign, _ := testSigner(t, 0)
	b := NewBuilder()
	require.NoError(t, b.AddPackage([]DataPoint{{Feed: mustFeed(t, "ETH"), Value: big.NewInt(1)}}, 1700000000000, 32, sign))
	good, err := b.Build([]byte("unrelated calldata prefix"))
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		cur, err := LocateTrailer(good)
		require.NoError(t, err)
		require.Equal(t, MarkerSize+MetadataLenSize, cur.BackOffset())
	})

	t.Run("empty buffer", func(t *testing.T) {
		_, err := LocateTrailer(nil)
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("marker corrupted", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[len(bad)-5] ^= 0xff
		_, err := LocateTrailer(bad)
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("no marker at all", func(t *testing.T) {
		_, err := LocateTrailer(make([]byte, 128))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("marker but buffer too short", func(t *testing.T) {
		short := append(make([]byte, 10), Marker()...)
		_, err := LocateTrailer(short)
		require.ErrorIs(t, err, ErrBufferTooShort)
	})

	t.Run("metadata length overruns buffer", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		// 3-byte metadata length sits just before the 9-byte marker.
		at := len(bad) - MarkerSize - MetadataLenSize
		bad[at] = 0xff
		bad[at+1] = 0xff
		bad[at+2] = 0xff
		_, err := LocateTrailer(bad)
		require.ErrorIs(t, err, ErrMetadataSizeInvalid)
	})

	t.Run("metadata region honored", func(t *testing.T) {
		withMd := NewBuilder().SetMetadata([]byte("build-42"))
		require.NoError(t, withMd.AddPackage([]DataPoint{{Feed: mustFeed(t, "ETH"), Value: big.NewInt(1)}}, 1700000000000, 32, sign))
		data, err := withMd.Build(nil)
		require.NoError(t, err)
		cur, err := LocateTrailer(data)
		require.NoError(t, err)
		require.Equal(t, MarkerSize+MetadataLenSize+len("build-42"), cur.BackOffset())
		n, _, err := ReadPackageCount(cur)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestCursorUnderflow(t *testing.T) {
	cur := NewCursor([]byte{1, 2, 3})

	_, _, err := cur.ReadBytes(4)
	require.ErrorIs(t, err, ErrBufferUnderflow)

	// A failed read leaves the cursor usable.
	v, cur, err := cur.ReadUint(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0203), v)
	require.Equal(t, 1, cur.Remaining())

	_, _, err = cur.ReadBytes(2)
	require.ErrorIs(t, err, ErrBufferUnderflow)
}

func TestBuildDecodeRoundTrip(t *testing.T) {
	eth := mustFeed(t, "ETH")
	btc := mustFeed(t, "BTC")
	const ts = int64(1700000000000)

	base := []byte("the unrelated call this payload rides on")
	b := NewBuilder()
	for i := 0; i < 2; i++ {
		sign, _ := testSigner(t, i)
		points := []DataPoint{
			{Feed: eth, Value: big.NewInt(2000_00000000 + int64(i))},
			{Feed: btc, Value: big.NewInt(42000_00000000 + int64(i))},
		}
		require.NoError(t, b.AddPackage(points, ts, 32, sign))
	}
	data, err := b.Build(base)
	require.NoError(t, err)

	cur, err := LocateTrailer(data)
	require.NoError(t, err)
	count, cur, err := ReadPackageCount(cur)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Scanning backward yields the last-appended package first.
	for i := count - 1; i >= 0; i-- {
		var pkg Package
		pkg, cur, err = DecodePackage(cur)
		require.NoError(t, err)
		require.Equal(t, ts, pkg.TimestampMs)
		require.Equal(t, PackageSize(2, 32), pkg.Size)
		require.Len(t, pkg.Points, 2)
		require.Equal(t, eth, pkg.Points[0].Feed)
		require.Equal(t, int64(2000_00000000+int64(i)), pkg.Points[0].Value.Int64())
		require.Equal(t, btc, pkg.Points[1].Feed)
		require.Equal(t, int64(42000_00000000+int64(i)), pkg.Points[1].Value.Int64())
	}

	// Stepping backward over all packages lands exactly where the payload
	// begins: only the unrelated prefix remains.
	require.Equal(t, len(base), cur.Remaining())
}

func TestDecodeValueWidths(t *testing.T) {
	eth := mustFeed(t, "ETH")
	sign, _ := testSigner(t, 0)

	for _, width := range []int{1, 4, 8, 32} {
		b := NewBuilder()
		v := big.NewInt(0xfe)
		require.NoError(t, b.AddPackage([]DataPoint{{Feed: eth, Value: v}}, 123456, width, sign))
		data, err := b.Build(nil)
		require.NoError(t, err)

		cur, err := LocateTrailer(data)
		require.NoError(t, err)
		_, cur, err = ReadPackageCount(cur)
		require.NoError(t, err)
		pkg, _, err := DecodePackage(cur)
		require.NoError(t, err)
		require.Equal(t, width, pkg.ValueWidth)
		require.Equal(t, int64(0xfe), pkg.Points[0].Value.Int64())
	}

	// Value wider than the declared width is an encode-time error.
	b := NewBuilder()
	err := b.AddPackage([]DataPoint{{Feed: eth, Value: big.NewInt(0x1ff)}}, 123456, 1, sign)
	require.Error(t, err)
}

// patchOffsets locates fields of the single package in a metadata-free payload.
func singlePackagePayload(t *testing.T, ts int64) []byte {
	sign, _ := testSigner(t, 0)
	b := NewBuilder()
	require.NoError(t, b.AddPackage([]DataPoint{{Feed: mustFeed(t, "ETH"), Value: big.NewInt(7)}}, ts, 32, sign))
	data, err := b.Build(nil)
	require.NoError(t, err)
	return data
}

func TestDecodeZeroTimestamp(t *testing.T) {
	data := singlePackagePayload(t, 1700000000000)

	// Timestamp sits before width(4), count(3) and signature(65), counting
	// from the package tail; the package tail is before count(2),
	// metadata len(3) and marker(9).
	tail := len(data) - MarkerSize - MetadataLenSize - PackageCountSize
	tsEnd := tail - SignatureSize - PointCountSize - ValueWidthSize
	for i := tsEnd - TimestampSize; i < tsEnd; i++ {
		data[i] = 0
	}

	cur, err := LocateTrailer(data)
	require.NoError(t, err)
	_, cur, err = ReadPackageCount(cur)
	require.NoError(t, err)
	_, _, err = DecodePackage(cur)
	require.ErrorIs(t, err, ErrZeroTimestamp)
}

func TestDecodeValueWidthTooLarge(t *testing.T) {
	data := singlePackagePayload(t, 1700000000000)

	tail := len(data) - MarkerSize - MetadataLenSize - PackageCountSize
	widthEnd := tail - SignatureSize - PointCountSize
	// Declare a 33-byte value width.
	data[widthEnd-1] = 33

	cur, err := LocateTrailer(data)
	require.NoError(t, err)
	_, cur, err = ReadPackageCount(cur)
	require.NoError(t, err)
	_, _, err = DecodePackage(cur)
	require.ErrorIs(t, err, ErrValueWidthTooLarge)
}

func TestDecodeTruncatedPackage(t *testing.T) {
	data := singlePackagePayload(t, 1700000000000)

	// Re-point the package count past the single real package.
	tail := len(data) - MarkerSize - MetadataLenSize
	data[tail-1] = 9

	cur, err := LocateTrailer(data)
	require.NoError(t, err)
	count, cur, err := ReadPackageCount(cur)
	require.NoError(t, err)
	require.Equal(t, 9, count)

	var derr error
	for i := 0; i < count && derr == nil; i++ {
		_, cur, derr = DecodePackage(cur)
	}
	require.ErrorIs(t, derr, ErrBufferUnderflow)
}
