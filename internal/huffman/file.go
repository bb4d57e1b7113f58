package huffman

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

const (
	tableMagic   = "MCHT"
	tableVersion = uint32(1)
)

// File layout (zstd compressed):
//
//	magic "MCHT" | version uint32 BE | count uvarint |
//	count × (length uint8 | token length uvarint | token bytes)
//
// Entries are in canonical order, so reading reassigns identical codes.

// WriteTo writes the table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(tableMagic)
	if err := binary.Write(&buf, binary.BigEndian, tableVersion); err != nil {
		return 0, fmt.Errorf("write version: %w", err)
	}
	var scratch [binary.MaxVarintLen64]byte
	buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(t.tokens)))])
	for _, tok := range t.tokens {
		buf.WriteByte(byte(t.codes[tok].Len))
		buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(len(tok)))])
		buf.WriteString(tok)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("create zstd encoder: %w", err)
	}
	compressed := encoder.EncodeAll(buf.Bytes(), nil)
	encoder.Close()

	n, err := w.Write(compressed)
	return int64(n), err
}

// ReadTable reads a table written by WriteTo.
func ReadTable(r io.Reader) (*Table, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress table: %w", err)
	}

	buf := bytes.NewReader(raw)
	magic := make([]byte, len(tableMagic))
	if _, err := io.ReadFull(buf, magic); err != nil || string(magic) != tableMagic {
		return nil, fmt.Errorf("huffman: not a table file")
	}
	var version uint32
	if err := binary.Read(buf, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != tableVersion {
		return nil, fmt.Errorf("huffman: unsupported table version %d", version)
	}
	count, err := binary.ReadUvarint(buf)
	if err != nil {
		return nil, fmt.Errorf("read token count: %w", err)
	}
	if count > uint64(len(raw)) {
		return nil, fmt.Errorf("huffman: token count %d exceeds file size", count)
	}

	tokens := make([]string, 0, count)
	lengths := make([]int, 0, count)
	for i := uint64(0); i < count; i++ {
		l, err := buf.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read length of token %d: %w", i, err)
		}
		n, err := binary.ReadUvarint(buf)
		if err != nil {
			return nil, fmt.Errorf("read size of token %d: %w", i, err)
		}
		if n > uint64(buf.Len()) {
			return nil, fmt.Errorf("huffman: token %d truncated", i)
		}
		tok := make([]byte, n)
		if _, err := io.ReadFull(buf, tok); err != nil {
			return nil, fmt.Errorf("read token %d: %w", i, err)
		}
		tokens = append(tokens, string(tok))
		lengths = append(lengths, int(l))
	}
	return newTable(tokens, lengths)
}

// SaveFile writes the table to path, replacing any existing file.
func (t *Table) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a table saved with SaveFile.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}
