// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMA implements Compressor for the legacy .lzma format, using a Go-based
// implementation.
type LZMA struct{}

// Name returns the type of compression employed.
func (c *LZMA) Name() string {
	return "lzma"
}

// Decode decodes a byte slice of LZMA data.
func (c *LZMA) Decode(encodedData []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(encodedData))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Encode encodes a byte slice with LZMA. The uncompressed size is written
// to the header, since boot loaders reject streams of unknown size.
func (c *LZMA) Encode(decodedData []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.WriterConfig{
		Size:         int64(len(decodedData)),
		EOSMarker:    false,
		DictCap:      1 << 20,
		SizeInHeader: true,
	}.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(decodedData); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
