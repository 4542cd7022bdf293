package classfile

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Utf8 entries use the JVM's modified UTF-8: NUL is encoded as two bytes
// and supplementary characters as a pair of three-byte surrogates.
//
// Decoded values are Go strings in generalized UTF-8: a surrogate that is
// not part of a pair keeps its three-byte form (ED A0..BF xx), so it
// survives a load and write unchanged.

func decodeModifiedUtf8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", Malformed("bad modified UTF-8 sequence at byte %d", i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", Malformed("bad modified UTF-8 sequence at byte %d", i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", Malformed("bad modified UTF-8 lead byte 0x%02X at byte %d", c, i)
		}
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if utf16.IsSurrogate(rune(u)) {
			if i+1 < len(units) {
				if r := utf16.DecodeRune(rune(u), rune(units[i+1])); r != utf8.RuneError {
					out = utf8.AppendRune(out, r)
					i++
					continue
				}
			}
			out = appendUnit(out, u)
			continue
		}
		out = utf8.AppendRune(out, rune(u))
	}
	return string(out), nil
}

func encodeModifiedUtf8(s string) ([]byte, error) {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		if u, ok := surrogateAt(s, i); ok {
			units = append(units, u)
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		units = utf16.AppendRune(units, r)
		i += size
	}

	out := make([]byte, 0, len(units))
	for _, u := range units {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
		default:
			out = appendUnit(out, u)
		}
	}
	if len(out) > 0xFFFF {
		return nil, Unsupported("utf8 constant of %d bytes exceeds 65535", len(out))
	}
	return out, nil
}

func appendUnit(out []byte, u uint16) []byte {
	return append(out, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
}

// surrogateAt reports the lone surrogate encoded at s[i:], if any.
func surrogateAt(s string, i int) (uint16, bool) {
	if i+2 >= len(s) || s[i] != 0xED || s[i+1]&0xE0 != 0xA0 || s[i+2]&0xC0 != 0x80 {
		return 0, false
	}
	return 0xD000 | uint16(s[i+1]&0x3F)<<6 | uint16(s[i+2]&0x3F), true
}
