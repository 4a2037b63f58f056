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
	"fmt"
	"io"
)

const (
	headerCode  byte = 'H'
	sectionCode byte = 'T'

	// Header fields
	schemeField   byte = 'S'
	versionField  byte = 'V'
	hashField     byte = 'K'
	sectionsField byte = 'N'
	paramsField   byte = 'P'

	// Section fields
	nameField  byte = 'n'
	widthField byte = 'w'
	countField byte = 'c'

	magic             = "RGBDLUT"
	fileVersion  byte = 0x01
	maxFieldSize      = 255
)

// fields are written with the same size, code, data encoding CPTV uses,
// so cptv.ReadFields can parse them back.
type fields struct {
	data       []byte
	fieldCount uint8
}

func newFields() *fields {
	return &fields{
		data: make([]byte, 0, 128),
	}
}

func (f *fields) Uint8(code byte, v uint8) {
	f.data = append(f.data, byte(1), code, byte(v))
	f.fieldCount++
}

func (f *fields) Uint32(code byte, v uint32) {
	b := []byte{4, code, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[2:], v)
	f.data = append(f.data, b...)
	f.fieldCount++
}

func (f *fields) String(code byte, v string) error {
	if len(v) > maxFieldSize {
		return fmt.Errorf("string length %d greater than %d", len(v), maxFieldSize)
	}
	f.data = append(f.data, byte(len(v)), code)
	f.data = append(f.data, v...)
	f.fieldCount++
	return nil
}

func (f *fields) writeTo(w io.Writer, code byte) error {
	if _, err := w.Write([]byte{code, f.fieldCount}); err != nil {
		return err
	}
	_, err := w.Write(f.data)
	return err
}
