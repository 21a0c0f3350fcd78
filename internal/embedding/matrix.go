// Package embedding provides the read-only embedding matrix artifact.
package embedding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Vbalimidi/Anime-Recomender-System/pkg/utils"
)

// Matrix is a dense row-major embedding matrix. Rows are normalized to unit
// L2 norm at load time, so a dot product between rows equals cosine
// similarity. Immutable after load.
type Matrix struct {
	dims int
	data [][]float32
}

// New builds a matrix from rows, normalizing each row in place.
// All rows must share the same dimension.
func New(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix cannot be empty")
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	data := make([][]float32, len(rows))
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("row %d dimension mismatch: got %d, expected %d", i, len(row), dims)
		}
		vec := make([]float32, dims)
		copy(vec, row)
		utils.NormalizeL2(vec)
		data[i] = vec
	}
	return &Matrix{dims: dims, data: data}, nil
}

// Rows returns the number of entity rows.
func (m *Matrix) Rows() int { return len(m.data) }

// Dims returns the embedding dimension.
func (m *Matrix) Dims() int { return m.dims }

// Row returns the i-th row. The returned slice must not be modified.
func (m *Matrix) Row(i int) ([]float32, bool) {
	if i < 0 || i >= len(m.data) {
		return nil, false
	}
	return m.data[i], true
}

// Load reads a matrix artifact from path and normalizes its rows.
// Format: dims (uint32 LE), rows (uint32 LE), then rows*dims float32 LE.
func Load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	var dims, rows uint32
	if err := binary.Read(f, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &rows); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}
	if dims == 0 || rows == 0 {
		return nil, fmt.Errorf("malformed weights file: %dx%d", rows, dims)
	}

	data := make([][]float32, rows)
	buf := make([]byte, int(dims)*4)
	for i := uint32(0); i < rows; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		row := make([]float32, dims)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4 : (j+1)*4]))
		}
		utils.NormalizeL2(row)
		data[i] = row
	}
	return &Matrix{dims: int(dims), data: data}, nil
}

// Save writes the matrix artifact to path. Parent directories are created.
// Rows are written as stored (already normalized).
func (m *Matrix) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create weights dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(m.dims)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.data))); err != nil {
		return fmt.Errorf("write row count: %w", err)
	}
	buf := make([]byte, m.dims*4)
	for _, row := range m.data {
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[j*4:(j+1)*4], math.Float32bits(v))
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}
