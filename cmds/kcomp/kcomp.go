// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// kcomp compresses and decompresses kernel images with the codecs understood
// by "lmbtool place".
//
// Synopsis:
//     kcomp -o OUTPUT_FILE (-d|-e) [-c ALGORITHM] INPUT_FILE
//
// Options:
//     -d: decode
//     -e: encode
//     -c ALGORITHM: one of none, gzip, lzma, lz4, zstd (default: gzip)
//     -o OUTPUT_FILE: output file
package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"github.com/u-boot/u-boot-sub110/pkg/compression"
	"github.com/u-boot/u-boot-sub110/pkg/log"
)

var (
	d    = flag.BoolP("decode", "d", false, "decode")
	e    = flag.BoolP("encode", "e", false, "encode")
	algo = flag.StringP("comp", "c", "gzip", "compression algorithm")
	o    = flag.StringP("output", "o", "", "output file")
)

func main() {
	flag.Parse()

	if *d == *e {
		log.Fatalf("either decode (-d) or encode (-e) must be set")
	}
	if *o == "" {
		log.Fatalf("output file must be set")
	}
	if flag.NArg() != 1 {
		log.Fatalf("expected one input file")
	}

	compressor, err := compression.CompressorFromName(*algo)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var op func([]byte) ([]byte, error)
	if *d {
		op = compressor.Decode
	} else {
		op = compressor.Encode
	}

	in, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	out, err := op(in)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := os.WriteFile(*o, out, 0666); err != nil {
		log.Fatalf("%v", err)
	}
}
