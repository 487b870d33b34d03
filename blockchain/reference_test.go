// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcverify/internal/fixtures"
	"github.com/btcsuite/btcverify/txscript"
	"github.com/stretchr/testify/require"
)

// verifyFixture checks the sanity of the fixture transaction and then
// verifies every input against the listed previous outputs.  The first
// failure is returned.
func verifyFixture(f *fixtures.Fixture) error {
	for i, txIn := range f.Tx.TxIn {
		prevOut := f.FetchPrevOutput(txIn.PreviousOutPoint)
		if err := VerifyInput(prevOut, f.Tx, i, f.Flags); err != nil {
			return err
		}
	}

	// Transactions without inputs still need to fail the sanity checks.
	return CheckTransactionSanity(btcutil.NewTx(f.Tx))
}

// TestTxInvalidTests ensures all of the tests in tx_invalid.json fail as
// expected.
func TestTxInvalidTests(t *testing.T) {
	tests, err := fixtures.Load("testdata/tx_invalid.json")
	require.NoError(t, err)

	for _, test := range tests {
		err := verifyFixture(test)
		require.Errorf(t, err, "test %d (%s) succeeded when should fail",
			test.Row, test.Comment)
		t.Logf("test %d: %v", test.Row, err)

		// Verification is deterministic.
		require.Equalf(t, err, verifyFixture(test), "test %d (%s)",
			test.Row, test.Comment)
	}
}

// TestTxInvalidFlagSuperset ensures enabling additional verification flags
// never makes an invalid vector pass.
func TestTxInvalidFlagSuperset(t *testing.T) {
	tests, err := fixtures.Load("testdata/tx_invalid.json")
	require.NoError(t, err)

	for _, test := range tests {
		for flag := txscript.ScriptBip16; flag <= txscript.ScriptVerifyCheckLockTimeVerify; flag <<= 1 {
			if test.Flags&flag == flag {
				continue
			}

			superset := *test
			superset.Flags = test.Flags | flag
			if flag == txscript.ScriptVerifyCleanStack {
				superset.Flags |= txscript.ScriptBip16
			}
			err := verifyFixture(&superset)
			require.Errorf(t, err, "test %d (%s) succeeded with "+
				"flags %v", test.Row, test.Comment, superset.Flags)
		}
	}
}

// TestTxValidTests ensures all of the tests in tx_valid.json pass as expected.
func TestTxValidTests(t *testing.T) {
	tests, err := fixtures.Load("testdata/tx_valid.json")
	require.NoError(t, err)

	for _, test := range tests {
		err := verifyFixture(test)
		require.NoErrorf(t, err, "test %d (%s) failed", test.Row,
			test.Comment)
		require.NoErrorf(t, verifyFixture(test), "test %d (%s) is not "+
			"deterministic", test.Row, test.Comment)

		// The parallel validator must agree with the per-input path.
		err = ValidateTransactionScripts(btcutil.NewTx(test.Tx), test,
			test.Flags, nil)
		require.NoErrorf(t, err, "test %d (%s) failed", test.Row,
			test.Comment)
	}
}

// TestTxInvalidParallel ensures the parallel validator rejects every invalid
// vector which passes the sanity checks.
func TestTxInvalidParallel(t *testing.T) {
	tests, err := fixtures.Load("testdata/tx_invalid.json")
	require.NoError(t, err)

	for _, test := range tests {
		tx := btcutil.NewTx(test.Tx)
		if CheckTransactionSanity(tx) != nil {
			continue
		}
		err := ValidateTransactionScripts(tx, test, test.Flags, nil)
		require.Errorf(t, err, "test %d (%s) succeeded when should fail",
			test.Row, test.Comment)
	}
}
