// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package canonical - deterministic JSON serialisation and digest
//
// The canonical form (version 1) is shared with every client that
// signs a digest, so it must not change without bumping Version:
//
//   1. object keys sorted by Unicode code point
//   2. no whitespace between tokens
//   3. strings are UTF-8, only '"', '\\' and control characters are
//      escaped (\b \f \n \r \t, otherwise \u00xx in lower case hex)
//   4. numbers are written in the shortest form that round trips,
//      i.e. integral values have no fraction part; a json.Number with
//      a fraction or exponent is read as a float64 first so 1.50 and
//      1.5 agree, integer literals are kept exact
//   5. NaN and ±Inf, channels, functions and complex values are
//      rejected
//
// Digest is the lower case hex SHA-256 of the UTF-8 canonical bytes.
package canonical
