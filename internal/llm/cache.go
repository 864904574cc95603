package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// CachedEmbedder keeps provider embeddings in a bbolt file keyed by model and
// text. Provider errors pass through and are never cached.
type CachedEmbedder struct {
	next  Embedder
	db    *bbolt.DB
	model string
}

func NewCachedEmbedder(next Embedder, path string, model string) (*CachedEmbedder, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &CachedEmbedder{next: next, db: db, model: model}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	var cached []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(key)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &cached)
	})
	if err != nil {
		log.Printf("embedding cache read failed, calling provider: %v", err)
		cached = nil
	}
	if len(cached) > 0 {
		return cached, nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return vec, nil
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(key, data)
	})
	if err != nil {
		log.Printf("embedding cache write failed: %v", err)
	}

	return vec, nil
}

func (c *CachedEmbedder) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}

func (c *CachedEmbedder) key(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return []byte(hex.EncodeToString(h.Sum(nil)))
}
