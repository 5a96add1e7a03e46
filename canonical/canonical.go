// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bitmark-inc/tradechaind/fault"
)

// Version - canonical form in use, see package documentation
const Version = 1

const hexDigits = "0123456789abcdef"

// Canonicalize - serialise any JSON compatible value into its
// canonical string
//
// structs are serialised through their json tags, so a struct and a
// map with the same keys and values produce identical output
func Canonicalize(value interface{}) (string, error) {
	b, err := Bytes(value)
	if nil != err {
		return "", err
	}
	return string(b), nil
}

// Bytes - same as Canonicalize but returns the raw bytes
func Bytes(value interface{}) ([]byte, error) {

	// first pass through the standard encoder resolves struct tags,
	// marshalers and rejects NaN/Inf and unsupported kinds
	raw, err := json.Marshal(value)
	if nil != err {
		return nil, fault.NonCanonicalizableValue
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var generic interface{}
	if err := decoder.Decode(&generic); nil != err {
		return nil, fault.NonCanonicalizableValue
	}

	buffer := &bytes.Buffer{}
	if err := encode(buffer, generic); nil != err {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Digest - hex SHA-256 of the canonical form
func Digest(value interface{}) (string, error) {
	b, err := Bytes(value)
	if nil != err {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func encode(buffer *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {

	case nil:
		buffer.WriteString("null")

	case bool:
		if v {
			buffer.WriteString("true")
		} else {
			buffer.WriteString("false")
		}

	case json.Number:
		n, err := normaliseNumber(v.String())
		if nil != err {
			return err
		}
		buffer.WriteString(n)

	case string:
		writeString(buffer, v)

	case []interface{}:
		buffer.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buffer.WriteByte(',')
			}
			if err := encode(buffer, item); nil != err {
				return err
			}
		}
		buffer.WriteByte(']')

	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		// byte order of UTF-8 is code point order
		sort.Strings(keys)

		buffer.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buffer.WriteByte(',')
			}
			writeString(buffer, k)
			buffer.WriteByte(':')
			if err := encode(buffer, v[k]); nil != err {
				return err
			}
		}
		buffer.WriteByte('}')

	default:
		return fault.NonCanonicalizableValue
	}
	return nil
}

// a number literal is written the way the standard encoder writes a
// float64 of the same value, so 1.50, 15e-1 and 1.5 all give 1.5
//
// integer literals are kept exact
func normaliseNumber(s string) (string, error) {
	if !strings.ContainsAny(s, ".eE") {
		return s, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if nil != err || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fault.NonCanonicalizableValue
	}

	format := byte('f')
	if abs := math.Abs(f); 0 != abs && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, f, format, -1, 64)

	// e-07 becomes e-7
	if 'e' == format {
		n := len(b)
		if n >= 4 && 'e' == b[n-4] && '-' == b[n-3] && '0' == b[n-2] {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return string(b), nil
}

func writeString(buffer *bytes.Buffer, s string) {
	buffer.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buffer.WriteString(`\"`)
		case '\\':
			buffer.WriteString(`\\`)
		case '\b':
			buffer.WriteString(`\b`)
		case '\f':
			buffer.WriteString(`\f`)
		case '\n':
			buffer.WriteString(`\n`)
		case '\r':
			buffer.WriteString(`\r`)
		case '\t':
			buffer.WriteString(`\t`)
		default:
			if r < 0x20 {
				buffer.WriteString(`\u00`)
				buffer.WriteByte(hexDigits[r>>4])
				buffer.WriteByte(hexDigits[r&0x0f])
			} else {
				buffer.WriteRune(r)
			}
		}
	}
	buffer.WriteByte('"')
}
