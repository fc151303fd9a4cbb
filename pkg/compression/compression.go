// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements reading and writing of compressed boot
// payloads.
//
// The names match the compression identifiers of boot images: "none",
// "gzip", "lzma", "lz4" and "zstd".
package compression

import (
	"fmt"
	"strings"
)

// Compressor defines a single compression scheme (such as LZMA).
type Compressor interface {
	// Name is the compression identifier.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// None implements Compressor for uncompressed payloads.
type None struct{}

// Name returns the type of compression employed.
func (c *None) Name() string {
	return "none"
}

// Decode returns the data unchanged.
func (c *None) Decode(encodedData []byte) ([]byte, error) {
	return encodedData, nil
}

// Encode returns the data unchanged.
func (c *None) Encode(decodedData []byte) ([]byte, error) {
	return decodedData, nil
}

// CompressorFromName returns the Compressor for a compression identifier.
// An empty name means "none".
func CompressorFromName(name string) (Compressor, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return &None{}, nil
	case "gzip":
		return &GZIP{}, nil
	case "lzma":
		return &LZMA{}, nil
	case "lz4":
		return &LZ4{}, nil
	case "zstd":
		return &ZSTD{}, nil
	}
	return nil, fmt.Errorf("unknown compression '%s'", name)
}
