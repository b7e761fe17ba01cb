package render

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"

	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/layout"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// MaxBlobSize caps the decoded size of a blob. Real tables are a few
// kilobytes.
const MaxBlobSize = 16 << 20

// WriteBlob writes the raw big-endian table image, zstd-compressed when
// compress is set.
func WriteBlob(w io.Writer, table *layout.Table, compress bool) error {
	if !compress {
		_, err := w.Write(table.Bytes)
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	if _, err := enc.Write(table.Bytes); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadBlob reads a blob written by WriteBlob, decompressing zstd frames.
// Blobs larger than MaxBlobSize once decoded are INVALID_TABLE_SIZE.
func ReadBlob(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.Equal(head, zstdMagic) {
		return readLimited(br)
	}

	dec, err := zstd.NewReader(br,
		zstd.WithDecoderMaxMemory(MaxBlobSize),
		zstd.WithDecoderMaxWindow(MaxBlobSize),
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		return nil, vmcperrors.New(vmcperrors.UnsupportedEncoding, "cannot open zstd blob", err)
	}
	defer dec.Close()

	data, err := readLimited(dec)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, vmcperrors.New(vmcperrors.InvalidTableSize, "blob exceeds the size limit", err)
	}
	if err != nil && !vmcperrors.Is(err, vmcperrors.InvalidTableSize) {
		return nil, vmcperrors.New(vmcperrors.UnsupportedEncoding, "cannot decompress blob", err)
	}
	return data, err
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBlobSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBlobSize {
		return nil, vmcperrors.Newf(vmcperrors.InvalidTableSize, "blob exceeds %d bytes", MaxBlobSize)
	}
	return data, nil
}
