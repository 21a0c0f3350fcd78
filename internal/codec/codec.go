// Package codec maps raw external ids to dense embedding-matrix row indices.
package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Codec is a bidirectional mapping between raw ids and dense zero-based
// indices. It is built once from the ids observed at training time and is
// read-only afterwards; an id absent from the construction set is a lookup
// miss, never index 0.
type Codec struct {
	encode map[int64]int
	decode []int64
}

// New builds a codec from raw ids in first-seen order, assigning indices 0..N-1.
// Duplicate ids keep their first index.
func New(rawIDs []int64) *Codec {
	c := &Codec{
		encode: make(map[int64]int, len(rawIDs)),
		decode: make([]int64, 0, len(rawIDs)),
	}
	for _, id := range rawIDs {
		if _, ok := c.encode[id]; ok {
			continue
		}
		c.encode[id] = len(c.decode)
		c.decode = append(c.decode, id)
	}
	return c
}

// Encode returns the dense index for a raw id.
func (c *Codec) Encode(rawID int64) (int, bool) {
	idx, ok := c.encode[rawID]
	return idx, ok
}

// Decode returns the raw id for a dense index.
func (c *Codec) Decode(index int) (int64, bool) {
	if index < 0 || index >= len(c.decode) {
		return 0, false
	}
	return c.decode[index], true
}

// Len returns the number of ids in the codec.
func (c *Codec) Len() int {
	return len(c.decode)
}

// Load reads a codec artifact: a JSON array of raw ids in index order.
func Load(path string) (*Codec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read codec: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse codec: %w", err)
	}
	return New(ids), nil
}

// Save writes the codec artifact to path. Parent directories are created.
func (c *Codec) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create codec dir: %w", err)
		}
	}
	data, err := json.Marshal(c.decode)
	if err != nil {
		return fmt.Errorf("failed to marshal codec: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write codec: %w", err)
	}
	return nil
}
