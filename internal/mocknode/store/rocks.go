package store

import (
	"encoding/binary"
	"errors"

	"github.com/tecbot/gorocksdb"
)

// RocksStore keeps published payloads keyed by their millisecond timestamp,
// plus a head pointer to the latest one. The mock node is the single writer;
// the RPC side only reads.
type RocksStore struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

var ErrPayloadNotFound = errors.New("store: payload not found")

func Open(path string) (*RocksStore, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}

	return &RocksStore{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (s *RocksStore) Close() {
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

// Head returns the timestamp of the latest stored payload; ok=false on an
// empty store.
func (s *RocksStore) Head() (int64, bool, error) {
	val, err := s.db.Get(s.ro, keyHead())
	if err != nil {
		return 0, false, err
	}
	defer val.Free()

	if !val.Exists() {
		return 0, false, nil
	}
	return decodeI64(val.Data()), true, nil
}

// GetPayloadRaw returns the raw payload published at tsMillis.
func (s *RocksStore) GetPayloadRaw(tsMillis int64) ([]byte, error) {
	val, err := s.db.Get(s.ro, keyPayload(tsMillis))
	if err != nil {
		return nil, err
	}
	defer val.Free()

	if !val.Exists() {
		return nil, ErrPayloadNotFound
	}
	// val.Data() is rocksdb-owned memory, gone after Free; copy out.
	return append([]byte(nil), val.Data()...), nil
}

// GetLatestRaw returns the head payload and its timestamp.
func (s *RocksStore) GetLatestRaw() ([]byte, int64, error) {
	head, ok, err := s.Head()
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrPayloadNotFound
	}
	raw, err := s.GetPayloadRaw(head)
	if err != nil {
		return nil, 0, err
	}
	return raw, head, nil
}

// AppendPayload stores raw under tsMillis and advances the head pointer,
// atomically via a write batch.
func (s *RocksStore) AppendPayload(tsMillis int64, raw []byte) error {
	wb := gorocksdb.NewWriteBatch()
	defer wb.Destroy()

	wb.Put(keyPayload(tsMillis), raw)
	wb.Put(keyHead(), encodeI64(tsMillis))

	return s.db.Write(s.wo, wb)
}

// ---- keys ----

func keyHead() []byte { return []byte("meta:head") }

func keyPayload(tsMillis int64) []byte {
	k := make([]byte, 0, 3+8)
	k = append(k, 'p', 'l', ':')
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], uint64(tsMillis))
	return append(k, b8[:]...)
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
