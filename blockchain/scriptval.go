// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/txscript"
	"github.com/davecgh/go-spew/spew"
)

// txValidateItem holds a transaction along with which input to validate.
type txValidateItem struct {
	txInIndex int
	txIn      *wire.TxIn
	tx        *btcutil.Tx
}

// txValidator provides a type which asynchronously validates transaction
// inputs.  It provides several channels for communication and a processing
// function that is intended to be in run multiple goroutines.
type txValidator struct {
	validateChan chan *txValidateItem
	quitChan     chan struct{}
	resultChan   chan error
	prevOuts     PrevOutputFetcher
	flags        txscript.ScriptFlags
	sigCache     *txscript.SigCache
}

// sendResult sends the result of a script pair validation on the internal
// result channel while respecting the quit channel.  This allows orderly
// shutdown when the validation process is aborted early due to a validation
// error in one of the other goroutines.
func (v *txValidator) sendResult(result error) {
	select {
	case v.resultChan <- result:
	case <-v.quitChan:
	}
}

// validateHandler consumes items to validate from the internal validate channel
// and returns the result of the validation on the internal result channel. It
// must be run as a goroutine.
func (v *txValidator) validateHandler() {
out:
	for {
		select {
		case txVI := <-v.validateChan:
			// Ensure the referenced input output is available.
			txIn := txVI.txIn
			prevOut := v.prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
			if prevOut == nil {
				str := fmt.Sprintf("unable to find unspent "+
					"output %v referenced from "+
					"transaction %s:%d",
					txIn.PreviousOutPoint, txVI.tx.Hash(),
					txVI.txInIndex)
				err := ruleError(ErrMissingTxOut, str)
				v.sendResult(err)
				break out
			}

			err := checkInputScript(txVI.tx, txVI.txInIndex,
				prevOut.PkScript, v.flags, v.sigCache)
			if err != nil {
				v.sendResult(err)
				break out
			}

			// Validation succeeded.
			v.sendResult(nil)

		case <-v.quitChan:
			break out
		}
	}
}

// Validate validates the scripts for all of the passed transaction inputs using
// multiple goroutines.
func (v *txValidator) Validate(items []*txValidateItem) error {
	if len(items) == 0 {
		return nil
	}

	// Limit the number of goroutines to do script validation based on the
	// number of processor cores.  This helps ensure the system stays
	// reasonably responsive under heavy load.
	maxGoRoutines := runtime.NumCPU() * 3
	if maxGoRoutines <= 0 {
		maxGoRoutines = 1
	}
	if maxGoRoutines > len(items) {
		maxGoRoutines = len(items)
	}

	// Start up validation handlers that are used to asynchronously
	// validate each transaction input.
	for i := 0; i < maxGoRoutines; i++ {
		go v.validateHandler()
	}

	// Validate each of the inputs.  The quit channel is closed when any
	// errors occur so all processing goroutines exit regardless of which
	// input had the validation error.
	numInputs := len(items)
	currentItem := 0
	processedItems := 0
	for processedItems < numInputs {
		// Only send items while there are still items that need to
		// be processed.  The select statement will never select a nil
		// channel.
		var validateChan chan *txValidateItem
		var item *txValidateItem
		if currentItem < numInputs {
			validateChan = v.validateChan
			item = items[currentItem]
		}

		select {
		case validateChan <- item:
			currentItem++

		case err := <-v.resultChan:
			processedItems++
			if err != nil {
				close(v.quitChan)
				return err
			}
		}
	}

	close(v.quitChan)
	return nil
}

// newTxValidator returns a new instance of txValidator to be used for
// validating transaction scripts asynchronously.
func newTxValidator(prevOuts PrevOutputFetcher, flags txscript.ScriptFlags,
	sigCache *txscript.SigCache) *txValidator {

	return &txValidator{
		validateChan: make(chan *txValidateItem),
		quitChan:     make(chan struct{}),
		resultChan:   make(chan error),
		prevOuts:     prevOuts,
		flags:        flags,
		sigCache:     sigCache,
	}
}

// ValidateTransactionScripts validates the scripts for the passed transaction
// using multiple goroutines.  Validation stops at the first input which fails.
// The signature cache is optional and may be nil.
func ValidateTransactionScripts(tx *btcutil.Tx, prevOuts PrevOutputFetcher,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache) error {

	// Don't validate coinbase transaction scripts.
	if IsCoinBase(tx) {
		return nil
	}

	// Collect all of the transaction inputs and required information for
	// validation.
	txIns := tx.MsgTx().TxIn
	txValItems := make([]*txValidateItem, 0, len(txIns))
	for txInIdx, txIn := range txIns {
		txVI := &txValidateItem{
			txInIndex: txInIdx,
			txIn:      txIn,
			tx:        tx,
		}
		txValItems = append(txValItems, txVI)
	}

	// Validate all of the inputs.
	validator := newTxValidator(prevOuts, flags, sigCache)
	return validator.Validate(txValItems)
}

// checkInputScript executes the signature script of the given input followed
// by the passed public key script and converts any failure to a rule error.
func checkInputScript(tx *btcutil.Tx, txIdx int, pkScript []byte,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache) error {

	// The signature script is only reported when the input exists.
	var sigScript []byte
	msgTx := tx.MsgTx()
	if txIdx >= 0 && txIdx < len(msgTx.TxIn) {
		sigScript = msgTx.TxIn[txIdx].SignatureScript
	}

	vm, err := txscript.NewEngine(pkScript, msgTx, txIdx, flags, sigCache)
	if err == nil {
		err = vm.Execute()
	}
	if err != nil {
		str := fmt.Sprintf("failed to validate input %s:%d - %v "+
			"(input script bytes %x, prev output script bytes %x)",
			tx.Hash(), txIdx, err, sigScript, pkScript)
		return RuleError{
			ErrorCode:   ErrScriptValidation,
			Description: str,
			Err:         err,
		}
	}

	log.Tracef("Input %s:%d final stack: %v", tx.Hash(), txIdx,
		newLogClosure(func() string {
			return spew.Sdump(vm.GetStack())
		}))
	return nil
}

// VerifyInput checks that the input at index txIdx of the passed transaction
// validly spends prevOut under the provided script flags.  The transaction is
// first checked for sanity and then the signature script of the input is run
// followed by the public key script of the previous output.
//
// The returned error is nil when the input is valid.  Otherwise it is a
// RuleError.  Script failures use the ErrScriptValidation code and wrap the
// underlying txscript.Error.
func VerifyInput(prevOut *wire.TxOut, tx *wire.MsgTx, txIdx int,
	flags txscript.ScriptFlags) error {

	return VerifyInputWithCache(prevOut, tx, txIdx, flags, nil)
}

// VerifyInputWithCache is identical to VerifyInput except that it consults
// and populates the provided signature cache.
func VerifyInputWithCache(prevOut *wire.TxOut, tx *wire.MsgTx, txIdx int,
	flags txscript.ScriptFlags, sigCache *txscript.SigCache) error {

	utilTx := btcutil.NewTx(tx)
	if err := CheckTransactionSanity(utilTx); err != nil {
		return err
	}

	if prevOut == nil {
		str := fmt.Sprintf("no previous output supplied for input "+
			"%s:%d", utilTx.Hash(), txIdx)
		return ruleError(ErrMissingTxOut, str)
	}

	return checkInputScript(utilTx, txIdx, prevOut.PkScript, flags,
		sigCache)
}
