package store

import (
	"encoding/binary"
	"fmt"

	"github.com/tecbot/gorocksdb"

	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
)

// FeedState remembers the last accepted payload timestamp per feed so
// replayed or regressed payloads are dropped even across restarts. It holds
// no value history, only the high-water mark.
type FeedState struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

func OpenFeedState(path string) (*FeedState, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}
	return &FeedState{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (s *FeedState) Close() {
	if s.ro != nil {
		s.ro.Destroy()
	}
	if s.wo != nil {
		s.wo.Destroy()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// LastAccepted returns the high-water timestamp for feed; ok=false when the
// feed was never seen.
func (s *FeedState) LastAccepted(feed feedid.FeedID) (int64, bool, error) {
	val, err := s.db.Get(s.ro, keyFeed(feed))
	if err != nil {
		return 0, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return 0, false, nil
	}
	return decodeI64(val.Data()), true, nil
}

// AdvanceIfNewer accepts tsMillis only if it is strictly newer than the
// stored high-water mark, advancing it. Returns false for replays and
// regressions.
func (s *FeedState) AdvanceIfNewer(feed feedid.FeedID, tsMillis int64) (bool, error) {
	if tsMillis <= 0 {
		return false, fmt.Errorf("store: non-positive timestamp %d", tsMillis)
	}
	last, ok, err := s.LastAccepted(feed)
	if err != nil {
		return false, err
	}
	if ok && last >= tsMillis {
		return false, nil
	}

	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()
	wb.Put(keyFeed(feed), encodeI64(tsMillis))
	if err := s.db.Write(s.wo, wb); err != nil {
		return false, err
	}
	return true, nil
}

// ---- keys ----

func keyFeed(feed feedid.FeedID) []byte {
	k := make([]byte, 0, 3+32)
	k = append(k, 'f', 'v', ':')
	return append(k, feed[:]...)
}

func encodeI64(x int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(x))
	return b[:]
}

func decodeI64(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b[:8]))
}
