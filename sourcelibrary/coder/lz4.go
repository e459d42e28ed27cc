/*
 * Copyright (c) 2019 VMware, Inc.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
 * associated documentation files (the "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is furnished to do
 * so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all copies or substantial
 * portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
 * NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
 * WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

package coder

import (
	"encoding/binary"
	"errors"

	"github.com/pierrec/lz4/v4"
)

// ErrInvalidFrame is returned when an LZ4 coder is asked to decode data it
// did not produce.
var ErrInvalidFrame = errors.New("coder: invalid lz4 frame")

const (
	lz4FrameRaw        = 0
	lz4FrameCompressed = 1
	lz4HeaderSize      = 5
)

// LZ4 wraps another Coder with LZ4 block compression. Each encoded record is
// framed as one flag byte (raw or compressed), the big-endian length of the
// inner encoding, and the payload. Incompressible records are stored raw.
type LZ4 struct {
	inner Coder
}

// NewLZ4 returns a Coder that compresses the output of inner.
func NewLZ4(inner Coder) LZ4 {
	return LZ4{inner: inner}
}

func (c LZ4) Marshal(v interface{}) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(raw)))
	binary.BigEndian.PutUint32(buf[1:lz4HeaderSize], uint32(len(raw)))

	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(raw, buf[lz4HeaderSize:])
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(raw) {
		// Incompressible. Store the inner encoding as is.
		buf[0] = lz4FrameRaw
		return append(buf[:lz4HeaderSize], raw...), nil
	}

	buf[0] = lz4FrameCompressed
	return buf[:lz4HeaderSize+n], nil
}

func (c LZ4) Unmarshal(data []byte, v interface{}) error {
	if len(data) < lz4HeaderSize {
		return ErrInvalidFrame
	}
	rawLen := binary.BigEndian.Uint32(data[1:lz4HeaderSize])

	switch data[0] {
	case lz4FrameRaw:
		return c.inner.Unmarshal(data[lz4HeaderSize:], v)
	case lz4FrameCompressed:
		raw := make([]byte, rawLen)
		if _, err := lz4.UncompressBlock(data[lz4HeaderSize:], raw); err != nil {
			return err
		}
		return c.inner.Unmarshal(raw, v)
	default:
		return ErrInvalidFrame
	}
}

func (c LZ4) Name() string {
	return lz4Prefix + c.inner.Name()
}
