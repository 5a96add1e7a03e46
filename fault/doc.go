// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
//
// validation errors reject a request without touching any state,
// integrity errors mean the chain itself cannot be trusted for the
// operation and are never retried automatically
package fault
