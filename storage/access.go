// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/tradechaind/fault"
)

// Handle - the operations available on a single pool
type Handle interface {
	Put(key []byte, value []byte) error
	PutIfAbsent(key []byte, value []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	LastElement() (Element, bool, error)
	Map(keyPrefix []byte, f func(key []byte, value []byte) error) error
	MapFrom(startKey []byte, f func(key []byte, value []byte) error) error
	Fetch(keyPrefix []byte, count int) ([]Element, error)
	NextSequence(key []byte) (uint64, error)
	Clear() error
}

// PoolHandle - the structure of a pool handle
type PoolHandle struct {
	prefix   byte
	limit    []byte
	database *Database
	readOnly bool
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

func (p *PoolHandle) db() (*leveldb.DB, error) {
	db := p.database.db
	if nil == db {
		return nil, fault.DatabaseIsNotSet
	}
	return db, nil
}

// Put - store a key/value bytes pair to the database
func (p *PoolHandle) Put(key []byte, value []byte) error {
	if p.readOnly {
		return fault.DatabaseIsNotSet
	}
	db, err := p.db()
	if nil != err {
		return err
	}
	return db.Put(p.prefixKey(key), value, nil)
}

// PutIfAbsent - store a key/value pair only if the key is not present
//
// returns false if the key already existed and nothing was written
func (p *PoolHandle) PutIfAbsent(key []byte, value []byte) (bool, error) {
	if p.readOnly {
		return false, fault.DatabaseIsNotSet
	}
	p.database.Lock()
	defer p.database.Unlock()

	db, err := p.db()
	if nil != err {
		return false, err
	}

	prefixedKey := p.prefixKey(key)
	found, err := db.Has(prefixedKey, nil)
	if nil != err {
		return false, err
	}
	if found {
		return false, nil
	}
	return true, db.Put(prefixedKey, value, nil)
}

// Delete - remove a key from the database
func (p *PoolHandle) Delete(key []byte) error {
	if p.readOnly {
		return fault.DatabaseIsNotSet
	}
	db, err := p.db()
	if nil != err {
		return err
	}
	return db.Delete(p.prefixKey(key), nil)
}

// Get - read a value for a given key
//
// this returns the actual element - copy the result if it must be preserved
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	db, err := p.db()
	if nil != err {
		return nil, err
	}
	value, err := db.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	db, err := p.db()
	if nil != err {
		return false, err
	}
	return db.Has(p.prefixKey(key), nil)
}

// LastElement - get the last element in a pool
func (p *PoolHandle) LastElement() (Element, bool, error) {
	db, err := p.db()
	if nil != err {
		return Element{}, false, err
	}

	maxRange := util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}

	iter := db.NewIterator(&maxRange, nil)
	defer iter.Release()

	found := false
	var element Element
	if iter.Last() {
		dataKey := make([]byte, len(iter.Key())-1)
		dataValue := make([]byte, len(iter.Value()))
		copy(dataKey, iter.Key()[1:])
		copy(dataValue, iter.Value())

		element.Key = dataKey
		element.Value = dataValue
		found = true
	}
	return element, found, iter.Error()
}

// Map - iterate over all keys starting with keyPrefix in key order
//
// an error from f stops the iteration and is returned
func (p *PoolHandle) Map(keyPrefix []byte, f func(key []byte, value []byte) error) error {
	db, err := p.db()
	if nil != err {
		return err
	}

	iter := db.NewIterator(util.BytesPrefix(p.prefixKey(keyPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		if err := f(iter.Key()[1:], iter.Value()); nil != err {
			return err
		}
	}
	return iter.Error()
}

// MapFrom - iterate over the pool in key order starting at startKey
func (p *PoolHandle) MapFrom(startKey []byte, f func(key []byte, value []byte) error) error {
	db, err := p.db()
	if nil != err {
		return err
	}

	maxRange := util.Range{
		Start: p.prefixKey(startKey),
		Limit: p.limit,
	}
	iter := db.NewIterator(&maxRange, nil)
	defer iter.Release()

	for iter.Next() {
		if err := f(iter.Key()[1:], iter.Value()); nil != err {
			return err
		}
	}
	return iter.Error()
}

// Fetch - return up to count elements starting with keyPrefix in key order
//
// a count of zero or less fetches everything
func (p *PoolHandle) Fetch(keyPrefix []byte, count int) ([]Element, error) {
	db, err := p.db()
	if nil != err {
		return nil, err
	}

	iter := db.NewIterator(util.BytesPrefix(p.prefixKey(keyPrefix)), nil)
	defer iter.Release()

	results := make([]Element, 0, 16)
	for iter.Next() {
		if count > 0 && len(results) >= count {
			break
		}
		dataKey := make([]byte, len(iter.Key())-1)
		dataValue := make([]byte, len(iter.Value()))
		copy(dataKey, iter.Key()[1:])
		copy(dataValue, iter.Value())

		results = append(results, Element{
			Key:   dataKey,
			Value: dataValue,
		})
	}
	return results, iter.Error()
}

// NextSequence - increment the counter stored under key and return the new value
//
// the first value returned for a new key is 1
func (p *PoolHandle) NextSequence(key []byte) (uint64, error) {
	if p.readOnly {
		return 0, fault.DatabaseIsNotSet
	}
	p.database.Lock()
	defer p.database.Unlock()

	db, err := p.db()
	if nil != err {
		return 0, err
	}

	prefixedKey := p.prefixKey(key)
	n := uint64(0)
	value, err := db.Get(prefixedKey, nil)
	if nil == err && 8 == len(value) {
		n = binary.BigEndian.Uint64(value)
	} else if nil != err && leveldb.ErrNotFound != err {
		return 0, err
	}

	n += 1
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	if err := db.Put(prefixedKey, buffer, nil); nil != err {
		return 0, err
	}
	return n, nil
}

// Clear - remove all records in a pool
func (p *PoolHandle) Clear() error {
	if p.readOnly {
		return fault.DatabaseIsNotSet
	}
	p.database.Lock()
	defer p.database.Unlock()

	db, err := p.db()
	if nil != err {
		return err
	}

	maxRange := util.Range{
		Start: []byte{p.prefix},
		Limit: p.limit,
	}
	iter := db.NewIterator(&maxRange, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); nil != err {
		return err
	}
	return db.Write(batch, nil)
}
