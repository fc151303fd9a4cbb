// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GZIP implements Compressor for gzip streams.
type GZIP struct{}

// Name returns the type of compression employed.
func (c *GZIP) Name() string {
	return "gzip"
}

// Decode decodes a byte slice of gzip data.
func (c *GZIP) Decode(encodedData []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(encodedData))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Encode encodes a byte slice with gzip at the best compression level.
func (c *GZIP) Encode(decodedData []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
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
