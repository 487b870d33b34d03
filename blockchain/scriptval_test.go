// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/txscript"
	"github.com/stretchr/testify/require"
)

// testKey returns a deterministic private key derived from b.
func testKey(b byte) *btcec.PrivateKey {
	privKey, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{b}, 32))
	return privKey
}

// signedSpend returns a transaction with numIn inputs, each spending a
// distinct pay-to-pubkey-hash output, along with the outputs it spends.
func signedSpend(t *testing.T, numIn int) (*wire.MsgTx, PrevOutputMap) {
	t.Helper()

	tx := newTestTx(numIn, 1)
	prevOuts := make(PrevOutputMap, numIn)
	for i, txIn := range tx.TxIn {
		key := testKey(byte(i + 1))
		pkScript, err := txscript.PayToPubKeyHashScript(
			key.PubKey().SerializeCompressed())
		require.NoError(t, err)
		prevOuts[txIn.PreviousOutPoint] = wire.NewTxOut(5000, pkScript)
	}
	for i, txIn := range tx.TxIn {
		prevOut := prevOuts[txIn.PreviousOutPoint]
		sigScript, err := txscript.SignatureScript(tx, i,
			prevOut.PkScript, txscript.SigHashAll,
			testKey(byte(i+1)), true)
		require.NoError(t, err)
		txIn.SignatureScript = sigScript
	}
	return tx, prevOuts
}

// TestVerifyInput ensures single input verification reports sanity failures,
// script failures and success with the expected errors.
func TestVerifyInput(t *testing.T) {
	t.Parallel()

	tx, prevOuts := signedSpend(t, 2)
	flags := txscript.StandardVerifyFlags
	for i, txIn := range tx.TxIn {
		prevOut := prevOuts[txIn.PreviousOutPoint]
		require.NoError(t, VerifyInput(prevOut, tx, i, flags))
	}

	// Each input only validly spends its own previous output.
	err := VerifyInput(prevOuts[tx.TxIn[1].PreviousOutPoint], tx, 0, flags)
	require.True(t, IsErrorCode(err, ErrScriptValidation), "%v", err)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrEqualVerify),
		"%v", err)

	// A missing previous output.
	err = VerifyInput(nil, tx, 0, flags)
	require.True(t, IsErrorCode(err, ErrMissingTxOut), "%v", err)

	// An input index out of range is a script failure.
	err = VerifyInput(prevOuts[tx.TxIn[0].PreviousOutPoint], tx, 2, flags)
	require.True(t, IsErrorCode(err, ErrScriptValidation), "%v", err)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrInvalidIndex),
		"%v", err)

	// Sanity failures take precedence over the scripts.
	dup := tx.Copy()
	dup.TxIn[1].PreviousOutPoint = dup.TxIn[0].PreviousOutPoint
	err = VerifyInput(prevOuts[tx.TxIn[0].PreviousOutPoint], dup, 0, flags)
	require.True(t, IsErrorCode(err, ErrDuplicateTxInputs), "%v", err)

	// Changing an output invalidates the signatures.
	modified := tx.Copy()
	modified.TxOut[0].Value++
	err = VerifyInput(prevOuts[tx.TxIn[0].PreviousOutPoint], modified, 0,
		flags)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrEvalFalse),
		"%v", err)
}

// TestVerifyInputFlags ensures the same script pair may be accepted or
// rejected depending on the flags.
func TestVerifyInputFlags(t *testing.T) {
	t.Parallel()

	redeem := []byte{txscript.OP_1, txscript.OP_NOT}
	pkScript, err := txscript.PayToScriptHashScript(redeem)
	require.NoError(t, err)

	tx := newTestTx(1, 1)
	builder := txscript.NewScriptBuilder()
	builder.AddData(redeem)
	tx.TxIn[0].SignatureScript, err = builder.Script()
	require.NoError(t, err)
	prevOut := wire.NewTxOut(0, pkScript)

	// Without P2SH the script only checks the hash.
	require.NoError(t, VerifyInput(prevOut, tx, 0, txscript.ScriptFlagsNone))

	// With P2SH the redeem script leaves false.
	err = VerifyInput(prevOut, tx, 0, txscript.ScriptBip16)
	require.True(t, IsErrorCode(err, ErrScriptValidation), "%v", err)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrEvalFalse),
		"%v", err)

	// CLEANSTACK requires P2SH.
	err = VerifyInput(prevOut, tx, 0, txscript.ScriptVerifyCleanStack)
	require.True(t, txscript.IsErrorCode(err, txscript.ErrInvalidFlags),
		"%v", err)
}

// TestVerifyInputWithCache ensures verified signatures are added to the
// signature cache and do not change the outcome.
func TestVerifyInputWithCache(t *testing.T) {
	t.Parallel()

	tx, prevOuts := signedSpend(t, 1)
	sigCache := txscript.NewSigCache(10)
	prevOut := prevOuts[tx.TxIn[0].PreviousOutPoint]
	for i := 0; i < 2; i++ {
		err := VerifyInputWithCache(prevOut, tx, 0,
			txscript.StandardVerifyFlags, sigCache)
		require.NoError(t, err)
	}
}

// TestValidateTransactionScripts ensures all inputs of a transaction are
// validated and the first failure is reported.
func TestValidateTransactionScripts(t *testing.T) {
	t.Parallel()

	// Use enough inputs to exceed the number of validation goroutines.
	tx, prevOuts := signedSpend(t, 40)
	utilTx := btcutil.NewTx(tx)
	flags := txscript.StandardVerifyFlags
	sigCache := txscript.NewSigCache(100)

	err := ValidateTransactionScripts(utilTx, prevOuts, flags, sigCache)
	require.NoError(t, err)
	err = ValidateTransactionScripts(utilTx, prevOuts, flags, nil)
	require.NoError(t, err)

	// A single bad signature fails the whole transaction.
	bad := tx.Copy()
	bad.TxIn[17].SignatureScript = tx.TxIn[18].SignatureScript
	err = ValidateTransactionScripts(btcutil.NewTx(bad), prevOuts, flags,
		nil)
	require.True(t, IsErrorCode(err, ErrScriptValidation), "%v", err)

	// A missing previous output.
	missing := make(PrevOutputMap, len(prevOuts))
	for op, txOut := range prevOuts {
		missing[op] = txOut
	}
	delete(missing, tx.TxIn[39].PreviousOutPoint)
	err = ValidateTransactionScripts(utilTx, missing, flags, nil)
	require.True(t, IsErrorCode(err, ErrMissingTxOut), "%v", err)

	// Coinbase scripts are not validated.
	coinbase := btcutil.NewTx(newCoinbaseTx([]byte{0x00, 0x00}))
	err = ValidateTransactionScripts(coinbase, PrevOutputMap{}, flags, nil)
	require.NoError(t, err)
}

// TestPrevOutputMap ensures outputs added from a transaction may be fetched
// by outpoint.
func TestPrevOutputMap(t *testing.T) {
	t.Parallel()

	tx := btcutil.NewTx(newTestTx(1, 3))
	prevOuts := make(PrevOutputMap)
	prevOuts.AddTxOuts(tx)
	require.Len(t, prevOuts, 3)

	for i, txOut := range tx.MsgTx().TxOut {
		op := wire.OutPoint{Hash: *tx.Hash(), Index: uint32(i)}
		require.Same(t, txOut, prevOuts.FetchPrevOutput(op))
	}
	require.Nil(t, prevOuts.FetchPrevOutput(wire.OutPoint{
		Hash: *tx.Hash(), Index: 3,
	}))
}
