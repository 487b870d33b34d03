// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/blockchain"
	"github.com/btcsuite/btcverify/database/ldb"
	"github.com/btcsuite/btcverify/internal/fixtures"
	"github.com/btcsuite/btcverify/txscript"
)

// prevOutputFetchers consults each fetcher in order and returns the first
// output found.
type prevOutputFetchers []blockchain.PrevOutputFetcher

// FetchPrevOutput is part of the blockchain.PrevOutputFetcher interface.
func (f prevOutputFetchers) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	for _, fetcher := range f {
		if txOut := fetcher.FetchPrevOutput(op); txOut != nil {
			return txOut
		}
	}
	return nil
}

// verifyTx checks the sanity of the transaction and validates the scripts of
// all of its inputs.
func verifyTx(tx *btcutil.Tx, prevOuts blockchain.PrevOutputFetcher,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache) error {

	if err := blockchain.CheckTransactionSanity(tx); err != nil {
		return err
	}
	return blockchain.ValidateTransactionScripts(tx, prevOuts, flags,
		sigCache)
}

// redeemScript returns the final push of a push only signature script, which
// holds the redeem script of a pay-to-script-hash spend.
func redeemScript(sigScript []byte) []byte {
	if !txscript.IsPushOnlyScript(sigScript) {
		return nil
	}

	var data []byte
	tokenizer := txscript.MakeScriptTokenizer(sigScript)
	for tokenizer.Next() {
		data = tokenizer.Data()
	}
	return data
}

// describeInput returns a one line disassembly of the scripts involved in
// spending prevOut with sigScript.
func describeInput(sigScript []byte, prevOut *wire.TxOut) string {
	sigDisasm, _ := txscript.DisasmString(sigScript)
	if prevOut == nil {
		return fmt.Sprintf("sig script [%s], unknown previous output",
			sigDisasm)
	}

	class := txscript.GetScriptClass(prevOut.PkScript)
	pkDisasm, _ := txscript.DisasmString(prevOut.PkScript)
	desc := fmt.Sprintf("sig script [%s], %s pk script [%s]", sigDisasm,
		class, pkDisasm)
	if class != txscript.ScriptHashTy {
		return desc
	}

	redeem := redeemScript(sigScript)
	redeemDisasm, _ := txscript.DisasmString(redeem)
	return fmt.Sprintf("%s, script hash %x, %s redeem script [%s]", desc,
		txscript.ExtractScriptHash(prevOut.PkScript),
		txscript.GetScriptClass(redeem), redeemDisasm)
}

// reportInputs logs the outcome of verifying each input of the transaction on
// its own.
func reportInputs(msgTx *wire.MsgTx, prevOuts blockchain.PrevOutputFetcher,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache) {

	for i, txIn := range msgTx.TxIn {
		prevOut := prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
		err := blockchain.VerifyInputWithCache(prevOut, msgTx, i, flags,
			sigCache)
		if err != nil {
			txvfLog.Infof("Input %d spending %v: %v", i,
				txIn.PreviousOutPoint, err)
			txvfLog.Infof("Input %d: %s", i,
				describeInput(txIn.SignatureScript, prevOut))
			continue
		}
		txvfLog.Infof("Input %d spending %v: ok", i,
			txIn.PreviousOutPoint)
	}
}

// verifySingleTx verifies the hex encoded transaction against the passed
// previous outputs and, when it is not nil, the previous output database.
// The outputs of a valid transaction are added to the database when
// addOutputs is set.
func verifySingleTx(txHex string, prevOuts blockchain.PrevOutputMap,
	store *ldb.Store, flags txscript.ScriptFlags,
	sigCache *txscript.SigCache, addOutputs bool) error {

	msgTx, err := fixtures.ParseTx(txHex)
	if err != nil {
		return fmt.Errorf("unable to decode transaction: %w", err)
	}
	tx := btcutil.NewTx(msgTx)

	fetchers := prevOutputFetchers{prevOuts}
	if store != nil {
		fetchers = append(fetchers, store)
	}

	txvfLog.Debugf("Verifying transaction %v with flags %v", tx.Hash(),
		flags)
	for _, txIn := range msgTx.TxIn {
		prevOut := fetchers.FetchPrevOutput(txIn.PreviousOutPoint)
		if prevOut == nil {
			continue
		}
		txvfLog.Debugf("Previous output %v: %s", txIn.PreviousOutPoint,
			txscript.AssemblyString(prevOut.PkScript))
	}
	err = verifyTx(tx, fetchers, flags, sigCache)
	if err != nil {
		reportInputs(msgTx, fetchers, flags, sigCache)
		return fmt.Errorf("transaction %v is invalid: %w", tx.Hash(), err)
	}
	txvfLog.Infof("Transaction %v is valid", tx.Hash())

	if addOutputs && store != nil {
		if err := store.AddTxOuts(tx); err != nil {
			return fmt.Errorf("unable to store outputs: %w", err)
		}
		txvfLog.Infof("Stored %d outputs of transaction %v",
			len(msgTx.TxOut), tx.Hash())
	}
	return nil
}

// fixtureResult tallies the outcome of verifying a fixture corpus.
type fixtureResult struct {
	valid      int
	invalid    int
	unexpected int
}

// verifyFixtures verifies each fixture and counts the ones whose outcome does
// not match expect.
func verifyFixtures(name string, tests []*fixtures.Fixture, expect string,
	sigCache *txscript.SigCache) fixtureResult {

	var result fixtureResult
	for _, test := range tests {
		tx := btcutil.NewTx(test.Tx)
		err := verifyTx(tx, test, test.Flags, sigCache)
		if err == nil {
			result.valid++
		} else {
			result.invalid++
		}
		txvfLog.Debugf("%s: fixture %d (%v): %v", name, test.Row,
			tx.Hash(), err)

		switch {
		case expect == expectValid && err != nil:
			result.unexpected++
			txvfLog.Errorf("%s: fixture %d (%s) failed: %v", name,
				test.Row, test.Comment, err)

		case expect == expectInvalid && err == nil:
			result.unexpected++
			txvfLog.Errorf("%s: fixture %d (%s) succeeded when "+
				"it should fail", name, test.Row, test.Comment)
		}
	}
	return result
}

// verifyFixtureFiles loads and verifies every fixture corpus in paths.
func verifyFixtureFiles(paths []string, expect string,
	sigCache *txscript.SigCache) error {

	var unexpected int
	for _, path := range paths {
		tests, err := fixtures.Load(path)
		if err != nil {
			return fmt.Errorf("unable to load fixtures %s: %w", path,
				err)
		}

		result := verifyFixtures(path, tests, expect, sigCache)
		txvfLog.Infof("%s: %d fixtures, %d valid, %d invalid, %d "+
			"unexpected", path, len(tests), result.valid,
			result.invalid, result.unexpected)
		unexpected += result.unexpected
	}

	if unexpected > 0 {
		return fmt.Errorf("%d fixtures did not match the expected "+
			"outcome", unexpected)
	}
	return nil
}
