// rgbd-codec - carry depth maps and GPS poses through 8-bit video
//  Copyright (C) 2025, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package lut

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/klauspost/compress/zstd"
)

const chunkWords = 32 * 1024

// Write serialises sections for key: the magic and file version, a header
// field block, one field block per section, then a zstd stream holding the
// table contents in order. Word tables are delta coded before
// compression.
func Write(w io.Writer, key Key, sections []Section) error {
	if len(sections) > 255 {
		return fmt.Errorf("too many sections: %d", len(sections))
	}
	if _, err := w.Write(append([]byte(magic), fileVersion)); err != nil {
		return err
	}

	header := newFields()
	if err := header.String(schemeField, key.Scheme); err != nil {
		return err
	}
	header.Uint8(versionField, key.Version)
	if err := header.String(hashField, key.Hash()); err != nil {
		return err
	}
	if err := header.String(paramsField, key.String()); err != nil {
		return err
	}
	header.Uint8(sectionsField, uint8(len(sections)))
	if err := header.writeTo(w, headerCode); err != nil {
		return err
	}

	for _, s := range sections {
		f := newFields()
		if err := f.String(nameField, s.Name); err != nil {
			return err
		}
		f.Uint8(widthField, s.width())
		f.Uint32(countField, uint32(s.Len()))
		if err := f.writeTo(w, sectionCode); err != nil {
			return err
		}
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	for _, s := range sections {
		if s.Words != nil {
			err = writeWords(enc, s.Words)
		} else {
			_, err = enc.Write(s.Bytes)
		}
		if err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}

func writeWords(w io.Writer, words []uint16) error {
	buf := make([]byte, 2*chunkWords)
	var prev uint16
	for len(words) > 0 {
		n := len(words)
		if n > chunkWords {
			n = chunkWords
		}
		for i, v := range words[:n] {
			binary.LittleEndian.PutUint16(buf[2*i:], v-prev)
			prev = v
		}
		if _, err := w.Write(buf[:2*n]); err != nil {
			return err
		}
		words = words[n:]
	}
	return nil
}

func readWords(r io.Reader, words []uint16) error {
	buf := make([]byte, 2*chunkWords)
	var prev uint16
	for len(words) > 0 {
		n := len(words)
		if n > chunkWords {
			n = chunkWords
		}
		if _, err := io.ReadFull(r, buf[:2*n]); err != nil {
			return err
		}
		for i := range words[:n] {
			prev += binary.LittleEndian.Uint16(buf[2*i:])
			words[i] = prev
		}
		words = words[n:]
	}
	return nil
}

type sectionInfo struct {
	name  string
	width uint8
	count uint32
}

// Read parses a file written by Write, returning ErrStale if it was not
// written for key.
func Read(r io.Reader, key Key) ([]Section, error) {
	head := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	if string(head[:len(magic)]) != magic {
		return nil, errors.New("not a lookup table file")
	}
	if head[len(magic)] != fileVersion {
		return nil, fmt.Errorf("%w: file version %d, want %d", ErrStale, head[len(magic)], fileVersion)
	}

	header, err := readFieldBlock(r, headerCode)
	if err != nil {
		return nil, err
	}
	scheme, err := header.String(schemeField)
	if err != nil {
		return nil, err
	}
	version, err := header.Uint8(versionField)
	if err != nil {
		return nil, err
	}
	hash, err := header.String(hashField)
	if err != nil {
		return nil, err
	}
	if scheme != key.Scheme || version != key.Version || hash != key.Hash() {
		params, _ := header.String(paramsField)
		return nil, fmt.Errorf("%w: file has %q, want %q", ErrStale, params, key.String())
	}
	count, err := header.Uint8(sectionsField)
	if err != nil {
		return nil, err
	}

	infos := make([]sectionInfo, count)
	for i := range infos {
		f, err := readFieldBlock(r, sectionCode)
		if err != nil {
			return nil, err
		}
		if infos[i].name, err = f.String(nameField); err != nil {
			return nil, err
		}
		if infos[i].width, err = f.Uint8(widthField); err != nil {
			return nil, err
		}
		if infos[i].count, err = f.Uint32(countField); err != nil {
			return nil, err
		}
		if w := infos[i].width; w != 1 && w != 2 {
			return nil, fmt.Errorf("section %q has element width %d", infos[i].name, w)
		}
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sections := make([]Section, len(infos))
	for i, info := range infos {
		sections[i].Name = info.name
		if info.width == 2 {
			sections[i].Words = make([]uint16, info.count)
			err = readWords(dec, sections[i].Words)
		} else {
			sections[i].Bytes = make([]uint8, info.count)
			_, err = io.ReadFull(dec, sections[i].Bytes)
		}
		if err != nil {
			return nil, fmt.Errorf("reading section %q: %v", info.name, err)
		}
	}
	return sections, nil
}

func readFieldBlock(r io.Reader, code byte) (cptv.Fields, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	if b[0] != code {
		return nil, fmt.Errorf("expected section %q, got %q", code, b[0])
	}
	return cptv.ReadFields(r)
}
