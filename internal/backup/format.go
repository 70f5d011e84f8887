// Package backup writes brains to checksummed, gzip-compressed archive files
// and prunes old archives by retention policy. Long simulations use it to
// checkpoint their brain every few ticks.
//
// An archive is a one-line JSON header followed by the gzip-compressed YAML
// document produced by codec. The header carries a SHA-256 of the compressed
// bytes so integrity can be checked without decompressing.
package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/psyche/internal/brain"
	"github.com/nvandessel/psyche/internal/codec"
)

// FormatVersion is written to every header.
const FormatVersion = 1

// Ext is the archive file extension.
const Ext = ".psyche.gz"

// MaxDecompressedSize is the maximum allowed size of a decompressed brain (512MB).
const MaxDecompressedSize = 512 * 1024 * 1024

// Header is the plain-text first line of an archive.
type Header struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Checksum  string            `json:"checksum"`
	Step      int64             `json:"step"`
	Neurons   int               `json:"neurons"`
	Synapses  int               `json:"synapses"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Write archives b at path, creating parent directories.
func Write(path string, b *brain.Brain, metadata map[string]string) (*Header, error) {
	doc, err := codec.Marshal(b)
	if err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(doc); err != nil {
		return nil, fmt.Errorf("compressing brain: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	header := &Header{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		Checksum:  checksum(compressed.Bytes()),
		Step:      b.Step(),
		Neurons:   b.NeuronCount(),
		Synapses:  b.SynapseCount(),
		Metadata:  metadata,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerBytes)
	w.WriteByte('\n')
	w.Write(compressed.Bytes())
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}
	return header, f.Close()
}

// Read verifies and restores the archived brain.
func Read(path string, opts codec.DecodeOptions) (*brain.Brain, *Header, error) {
	header, compressed, err := readArchive(path)
	if err != nil {
		return nil, nil, err
	}
	if err := verify(header, compressed); err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	doc, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing brain: %w", err)
	}
	if int64(len(doc)) > MaxDecompressedSize {
		return nil, nil, fmt.Errorf("decompressed brain exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	b, _, err := codec.Unmarshal(doc, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", filepath.Base(path), err)
	}
	return b, header, nil
}

// ReadHeader reads only the header line.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return parseHeader(bufio.NewReader(f))
}

// VerifyChecksum checks the integrity of an archive without decompressing it.
func VerifyChecksum(path string) error {
	header, compressed, err := readArchive(path)
	if err != nil {
		return err
	}
	return verify(header, compressed)
}

func readArchive(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header, err := parseHeader(r)
	if err != nil {
		return nil, nil, err
	}
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed brain: %w", err)
	}
	return header, compressed, nil
}

func parseHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: reading header line: %v", brain.ErrParse, err)
	}
	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("%w: parsing header: %v", brain.ErrParse, err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported archive version %d", brain.ErrParse, header.Version)
	}
	return &header, nil
}

func verify(header *Header, compressed []byte) error {
	if actual := checksum(compressed); actual != header.Checksum {
		return fmt.Errorf("%w: checksum mismatch: expected %s, got %s", brain.ErrParse, header.Checksum, actual)
	}
	return nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
