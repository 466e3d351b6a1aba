// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides a logical key space inside a kv store. All keys passing
// through a bucket are transparently prefixed with the bucket name.
type Bucket string

type bucketStore struct {
	b   Bucket
	src Store
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

// Key returns the raw store key for the given bucket key.
func (b Bucket) Key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.b.Key(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.b.Key(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, val []byte) error {
	return s.src.Put(s.b.Key(key), val)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.b.Key(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.b, s.src.NewBatch()}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	bucketRange := Range{Start: s.b.Key(r.Start)}
	if r.Limit != nil {
		bucketRange.Limit = s.b.Key(r.Limit)
	} else {
		bucketRange.Limit = PrefixRange([]byte(s.b)).Limit
	}
	return &bucketIterator{len(s.b), s.src.Iterate(bucketRange)}
}

type bucketBatch struct {
	b     Bucket
	batch Batch
}

func (b *bucketBatch) Put(key, val []byte) error {
	return b.batch.Put(b.b.Key(key), val)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(b.b.Key(key))
}

func (b *bucketBatch) Len() int { return b.batch.Len() }

func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	prefixLen int
	iter      Iterator
}

func (i *bucketIterator) Next() bool { return i.iter.Next() }

func (i *bucketIterator) Key() []byte {
	key := i.iter.Key()
	if len(key) < i.prefixLen {
		return nil
	}
	return key[i.prefixLen:]
}

func (i *bucketIterator) Value() []byte { return i.iter.Value() }
func (i *bucketIterator) Release()      { i.iter.Release() }
func (i *bucketIterator) Error() error  { return i.iter.Error() }
