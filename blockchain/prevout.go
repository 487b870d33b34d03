// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// PrevOutputFetcher is an interface used to supply the previous outputs spent
// by the inputs of a transaction being validated.
type PrevOutputFetcher interface {
	// FetchPrevOutput returns the output referenced by the passed
	// outpoint or nil when it is not known.
	FetchPrevOutput(op wire.OutPoint) *wire.TxOut
}

// PrevOutputMap is an in-memory PrevOutputFetcher keyed by outpoint.
type PrevOutputMap map[wire.OutPoint]*wire.TxOut

// Ensure PrevOutputMap implements the PrevOutputFetcher interface.
var _ PrevOutputFetcher = PrevOutputMap(nil)

// FetchPrevOutput returns the output referenced by the passed outpoint or nil
// when the map does not contain it.
//
// This is part of the PrevOutputFetcher interface.
func (m PrevOutputMap) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	return m[op]
}

// AddTxOuts adds all outputs of the passed transaction to the map so later
// transactions may spend them.
func (m PrevOutputMap) AddTxOuts(tx *btcutil.Tx) {
	prevOut := wire.OutPoint{Hash: *tx.Hash()}
	for txOutIdx, txOut := range tx.MsgTx().TxOut {
		prevOut.Index = uint32(txOutIdx)
		m[prevOut] = txOut
	}
}
