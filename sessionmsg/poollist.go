// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package sessionmsg

// PoolListDecoder incrementally parses a stream of concatenated FileInfo
// ("PoolFileInfo") records arriving in arbitrarily-sized chunks, carrying
// any trailing partial record over to the next Feed call. This is the
// decode half of spec §4.7's List operation: "parses complete PoolFileInfo
// records incrementally ... handling records that straddle chunk boundaries
// via a carry-over copy to the buffer start".
type PoolListDecoder struct {
	carry   []byte
	Records []FileInfo
}

// Write implements io.Writer by feeding p through Feed, so a decoder can be
// handed directly to a raw-stream reader as its destination.
func (d *PoolListDecoder) Write(p []byte) (int, error) {
	if err := d.Feed(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Feed appends chunk to the carry-over buffer and extracts every complete
// record currently available, leaving any trailing partial bytes in carry.
func (d *PoolListDecoder) Feed(chunk []byte) error {
	d.carry = append(d.carry, chunk...)
	for {
		fi, consumed, err := DecodeFileInfo(d.carry)
		if err != nil {
			// Not an error yet: the record may simply be incomplete. Only
			// a too-short header blocks forever; a name-length overrun is
			// resolved once more bytes arrive, so we distinguish by
			// checking whether a complete header is even present.
			if len(d.carry) < 1+8*3 {
				return nil
			}
			nameLen := int(d.carry[0])
			if len(d.carry) < 1+8*3+nameLen {
				return nil
			}
			return err
		}
		d.Records = append(d.Records, fi)
		d.carry = d.carry[consumed:]
		if len(d.carry) == 0 {
			return nil
		}
	}
}

// EncodePoolList serializes a full file list as a concatenation of FileInfo
// records, the bytes PoolSize(N) announces and the server then streams.
func EncodePoolList(files []FileInfo) ([]byte, error) {
	var out []byte
	for _, fi := range files {
		rec, err := EncodeFileInfo(fi)
		if err != nil {
			return nil, err
		}
		out = append(out, rec...)
	}
	return out, nil
}
