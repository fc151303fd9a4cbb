// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"
)

func samplePayload() []byte {
	// Half random, half repetitive, so every codec has something to do.
	rnd := rand.New(rand.NewSource(42))
	b := make([]byte, 64*1024)
	rnd.Read(b[:len(b)/2])
	copy(b[len(b)/2:], bytes.Repeat([]byte("vmlinux"), len(b)/2/7))
	return b
}

var tests = []struct {
	name       string
	compressor Compressor
}{
	{name: "none", compressor: &None{}},
	{name: "gzip", compressor: &GZIP{}},
	{name: "lzma", compressor: &LZMA{}},
	{name: "lz4", compressor: &LZ4{}},
	{name: "zstd", compressor: &ZSTD{}},
}

func TestEncodeDecode(t *testing.T) {
	want := samplePayload()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.compressor.Encode(want)
			if err != nil {
				t.Fatal(err)
			}
			if tt.name != "none" && len(encoded) >= len(want) {
				t.Errorf("encoded payload is not smaller: %d >= %d", len(encoded), len(want))
			}
			got, err := tt.compressor.Decode(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("decompressed image did not match, (got: %d bytes, want: %d bytes)", len(got), len(want))
			}
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	// 0xff is neither a valid magic nor valid LZMA properties.
	garbage := bytes.Repeat([]byte{0xff}, 64)
	for _, tt := range tests {
		if tt.name == "none" {
			continue
		}
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.compressor.Decode(garbage); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestCompressorFromName(t *testing.T) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompressorFromName(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if c.Name() != tt.compressor.Name() {
				t.Fatalf("compressor from name %s did not match (got: %s)", tt.name, c.Name())
			}
		})
	}

	if c, err := CompressorFromName(""); err != nil || c.Name() != "none" {
		t.Fatalf("empty name should mean no compression, got %v, %v", c, err)
	}
	if _, err := CompressorFromName("bzip2"); err == nil {
		t.Fatalf("expected an error for an unsupported compression")
	}
}
