// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package ldb implements a goleveldb backed store of previous transaction
outputs which may be handed to the transaction script validator.

Each output is stored under a key made of the transaction hash, a two byte
"to" marker and the big endian output index, so all outputs of a transaction
are adjacent.  The value is the output amount as a little endian int64
followed by the variable length public key script in wire encoding.
*/
package ldb
