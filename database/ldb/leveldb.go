// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// outputKeySuffix separates previous output entries from any other
	// data kept in the same database.
	outputKeySuffix = "to"

	// outputKeyLen is the length of the key for a previous output entry.
	outputKeyLen = 32 + len(outputKeySuffix) + 4

	// maxPkScriptLen is the largest public key script accepted when
	// decoding a stored output.
	maxPkScriptLen = wire.MaxMessagePayload
)

var (
	// ErrDbDoesNotExist is returned when opening a database which does not
	// exist without requesting its creation.
	ErrDbDoesNotExist = errors.New("non-existent database")

	// ErrCorruptEntry is returned when a stored output can not be decoded.
	ErrCorruptEntry = errors.New("corrupt previous output entry")
)

// Store is a goleveldb backed set of previous transaction outputs.  It
// implements the blockchain.PrevOutputFetcher interface so transactions may be
// validated against outputs persisted across runs.
type Store struct {
	// lock preventing multiple entry
	dbLock sync.Mutex

	lDb *leveldb.DB
	ro  *opt.ReadOptions
	wo  *opt.WriteOptions
}

// options returns the leveldb options used for every store.
func options(create bool) *opt.Options {
	return &opt.Options{
		ErrorIfMissing: !create,
		Filter:         filter.NewBloomFilter(10),
		Compression:    opt.NoCompression,
	}
}

// newStore wraps an opened leveldb instance.
func newStore(db *leveldb.DB) *Store {
	return &Store{
		lDb: db,
		ro:  &opt.ReadOptions{},
		wo:  &opt.WriteOptions{Sync: true},
	}
}

// Open opens the previous output database at dbPath.  The database is created
// when it does not exist and create is true, otherwise ErrDbDoesNotExist is
// returned.
func Open(dbPath string, create bool) (*Store, error) {
	db, err := leveldb.OpenFile(dbPath, options(create))
	if err != nil {
		if !create && errors.Is(err, os.ErrNotExist) {
			return nil, ErrDbDoesNotExist
		}
		return nil, err
	}

	log.Debugf("Opened previous output database %s", dbPath)
	return newStore(db), nil
}

// OpenStorage opens a previous output database on top of the provided
// goleveldb storage, such as the one returned by storage.NewMemStorage.
func OpenStorage(stor storage.Storage) (*Store, error) {
	db, err := leveldb.Open(stor, options(true))
	if err != nil {
		return nil, err
	}
	return newStore(db), nil
}

// Close cleanly shuts down the database, syncing all data.
func (s *Store) Close() error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return s.lDb.Close()
}

// outPointToKey returns the database key for the passed outpoint.  Keys sort
// by transaction hash and then by output index.
func outPointToKey(op *wire.OutPoint) []byte {
	key := make([]byte, outputKeyLen)
	copy(key, op.Hash[:])
	copy(key[32:], outputKeySuffix)
	binary.BigEndian.PutUint32(key[32+len(outputKeySuffix):], op.Index)
	return key
}

// keyToOutPoint decodes a database key created by outPointToKey.
func keyToOutPoint(key []byte) (wire.OutPoint, bool) {
	var op wire.OutPoint
	if len(key) != outputKeyLen ||
		string(key[32:32+len(outputKeySuffix)]) != outputKeySuffix {

		return op, false
	}
	copy(op.Hash[:], key[:32])
	op.Index = binary.BigEndian.Uint32(key[32+len(outputKeySuffix):])
	return op, true
}

// serializeTxOut returns the value buffer for a stored output: the amount as a
// little endian int64 followed by the variable length public key script.
func serializeTxOut(txOut *wire.TxOut) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(8 + wire.VarIntSerializeSize(uint64(len(txOut.PkScript))) +
		len(txOut.PkScript))

	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], uint64(txOut.Value))
	buf.Write(value[:])
	if err := wire.WriteVarBytes(&buf, 0, txOut.PkScript); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeTxOut decodes a value buffer created by serializeTxOut.
func deserializeTxOut(serialized []byte) (*wire.TxOut, error) {
	if len(serialized) < 8 {
		return nil, ErrCorruptEntry
	}
	value := int64(binary.LittleEndian.Uint64(serialized[:8]))

	r := bytes.NewReader(serialized[8:])
	pkScript, err := wire.ReadVarBytes(r, 0, maxPkScriptLen, "pkScript")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if r.Len() != 0 {
		return nil, ErrCorruptEntry
	}
	return wire.NewTxOut(value, pkScript), nil
}

// PutPrevOutput stores the output referenced by the passed outpoint,
// replacing any existing entry.
func (s *Store) PutPrevOutput(op wire.OutPoint, txOut *wire.TxOut) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	serialized, err := serializeTxOut(txOut)
	if err != nil {
		return err
	}
	return s.lDb.Put(outPointToKey(&op), serialized, s.wo)
}

// AddTxOuts stores all outputs of the passed transaction in a single batch.
func (s *Store) AddTxOuts(tx *btcutil.Tx) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	batch := new(leveldb.Batch)
	prevOut := wire.OutPoint{Hash: *tx.Hash()}
	for txOutIdx, txOut := range tx.MsgTx().TxOut {
		prevOut.Index = uint32(txOutIdx)
		serialized, err := serializeTxOut(txOut)
		if err != nil {
			return err
		}
		batch.Put(outPointToKey(&prevOut), serialized)
	}

	log.Tracef("Adding %d outputs of transaction %v", batch.Len(),
		tx.Hash())
	return s.lDb.Write(batch, s.wo)
}

// DeletePrevOutput removes the output referenced by the passed outpoint.
// Removing an output which is not stored is not an error.
func (s *Store) DeletePrevOutput(op wire.OutPoint) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return s.lDb.Delete(outPointToKey(&op), s.wo)
}

// FetchPrevOutputErr returns the output referenced by the passed outpoint.
// A nil output and nil error are returned when it is not stored.
func (s *Store) FetchPrevOutputErr(op wire.OutPoint) (*wire.TxOut, error) {
	serialized, err := s.lDb.Get(outPointToKey(&op), s.ro)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deserializeTxOut(serialized)
}

// FetchPrevOutput returns the output referenced by the passed outpoint or nil
// when it is not stored.  Database failures are logged and reported as a
// missing output.
//
// This is part of the blockchain.PrevOutputFetcher interface.
func (s *Store) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	txOut, err := s.FetchPrevOutputErr(op)
	if err != nil {
		log.Errorf("Unable to fetch previous output %v: %v", op, err)
		return nil
	}
	return txOut
}

// ForEachTxOut calls fn for every stored output of the passed transaction in
// output index order.
func (s *Store) ForEachTxOut(hash *chainhash.Hash,
	fn func(wire.OutPoint, *wire.TxOut) error) error {

	prefix := make([]byte, 32+len(outputKeySuffix))
	copy(prefix, hash[:])
	copy(prefix[32:], outputKeySuffix)

	iter := s.lDb.NewIterator(util.BytesPrefix(prefix), s.ro)
	defer iter.Release()
	for iter.Next() {
		op, ok := keyToOutPoint(iter.Key())
		if !ok {
			continue
		}
		txOut, err := deserializeTxOut(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(op, txOut); err != nil {
			return err
		}
	}
	return iter.Error()
}
