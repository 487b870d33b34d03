// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestErrorCodeStringer tests the stringized output for the ErrorCode type.
func TestErrorCodeStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ErrorCode
		want string
	}{
		{ErrInternal, "ErrInternal"},
		{ErrInvalidFlags, "ErrInvalidFlags"},
		{ErrInvalidIndex, "ErrInvalidIndex"},
		{ErrUnknownFlag, "ErrUnknownFlag"},
		{ErrInvalidAssembly, "ErrInvalidAssembly"},
		{ErrEarlyReturn, "ErrEarlyReturn"},
		{ErrEmptyStack, "ErrEmptyStack"},
		{ErrEvalFalse, "ErrEvalFalse"},
		{ErrScriptUnfinished, "ErrScriptUnfinished"},
		{ErrInvalidProgramCounter, "ErrInvalidProgramCounter"},
		{ErrScriptTooBig, "ErrScriptTooBig"},
		{ErrElementTooBig, "ErrElementTooBig"},
		{ErrTooManyOperations, "ErrTooManyOperations"},
		{ErrStackOverflow, "ErrStackOverflow"},
		{ErrInvalidPubKeyCount, "ErrInvalidPubKeyCount"},
		{ErrInvalidSignatureCount, "ErrInvalidSignatureCount"},
		{ErrNumberTooBig, "ErrNumberTooBig"},
		{ErrVerify, "ErrVerify"},
		{ErrEqualVerify, "ErrEqualVerify"},
		{ErrNumEqualVerify, "ErrNumEqualVerify"},
		{ErrCheckSigVerify, "ErrCheckSigVerify"},
		{ErrCheckMultiSigVerify, "ErrCheckMultiSigVerify"},
		{ErrDisabledOpcode, "ErrDisabledOpcode"},
		{ErrReservedOpcode, "ErrReservedOpcode"},
		{ErrMalformedPush, "ErrMalformedPush"},
		{ErrInvalidStackOperation, "ErrInvalidStackOperation"},
		{ErrUnbalancedConditional, "ErrUnbalancedConditional"},
		{ErrMinimalData, "ErrMinimalData"},
		{ErrInvalidSigHashType, "ErrInvalidSigHashType"},
		{ErrSigTooShort, "ErrSigTooShort"},
		{ErrSigTooLong, "ErrSigTooLong"},
		{ErrSigInvalidSeqID, "ErrSigInvalidSeqID"},
		{ErrSigInvalidDataLen, "ErrSigInvalidDataLen"},
		{ErrSigMissingSTypeID, "ErrSigMissingSTypeID"},
		{ErrSigMissingSLen, "ErrSigMissingSLen"},
		{ErrSigInvalidSLen, "ErrSigInvalidSLen"},
		{ErrSigInvalidRIntID, "ErrSigInvalidRIntID"},
		{ErrSigZeroRLen, "ErrSigZeroRLen"},
		{ErrSigNegativeR, "ErrSigNegativeR"},
		{ErrSigTooMuchRPadding, "ErrSigTooMuchRPadding"},
		{ErrSigInvalidSIntID, "ErrSigInvalidSIntID"},
		{ErrSigZeroSLen, "ErrSigZeroSLen"},
		{ErrSigNegativeS, "ErrSigNegativeS"},
		{ErrSigTooMuchSPadding, "ErrSigTooMuchSPadding"},
		{ErrSigHighS, "ErrSigHighS"},
		{ErrNotPushOnly, "ErrNotPushOnly"},
		{ErrSigNullDummy, "ErrSigNullDummy"},
		{ErrPubKeyType, "ErrPubKeyType"},
		{ErrCleanStack, "ErrCleanStack"},
		{ErrDiscourageUpgradableNOPs, "ErrDiscourageUpgradableNOPs"},
		{ErrNegativeLockTime, "ErrNegativeLockTime"},
		{ErrUnsatisfiedLockTime, "ErrUnsatisfiedLockTime"},
		{0xffff, "Unknown ErrorCode (65535)"},
	}

	// Detect additional error codes that don't have the stringer added.
	require.Equal(t, int(numErrorCodes), len(tests)-1, "it appears an "+
		"error code was added without adding an associated stringer test")

	for i, test := range tests {
		require.Equalf(t, test.want, test.in.String(), "String #%d", i)
	}
}

// TestErrorCodeCategory ensures every error code maps to the expected class
// of rule.
func TestErrorCodeCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ErrorCode
		want ErrorCategory
	}{
		{ErrInvalidFlags, CategoryUsage},
		{ErrInvalidIndex, CategoryUsage},
		{ErrUnknownFlag, CategoryUsage},
		{ErrInvalidAssembly, CategoryUsage},
		{ErrMalformedPush, CategoryStructural},
		{ErrStackOverflow, CategoryStructural},
		{ErrUnbalancedConditional, CategoryStructural},
		{ErrNumberTooBig, CategoryStructural},
		{ErrMinimalData, CategoryEncoding},
		{ErrNotPushOnly, CategoryEncoding},
		{ErrSigHighS, CategoryNonCanonicalSignature},
		{ErrSigTooShort, CategoryEncoding},
		{ErrSigTooMuchSPadding, CategoryEncoding},
		{ErrSigNegativeR, CategoryEncoding},
		{ErrPubKeyType, CategoryEncoding},
		{ErrInvalidSigHashType, CategoryEncoding},
		{ErrDisabledOpcode, CategoryDisabledOpcode},
		{ErrReservedOpcode, CategoryDisabledOpcode},
		{ErrDiscourageUpgradableNOPs, CategoryDiscouragedNOP},
		{ErrNegativeLockTime, CategoryTimeLock},
		{ErrUnsatisfiedLockTime, CategoryTimeLock},
		{ErrSigNullDummy, CategoryMultisig},
		{ErrInvalidPubKeyCount, CategoryMultisig},
		{ErrEvalFalse, CategoryRedemption},
		{ErrEmptyStack, CategoryRedemption},
		{ErrEqualVerify, CategoryRedemption},
		{ErrCleanStack, CategoryRedemption},
	}

	for _, test := range tests {
		require.Equalf(t, test.want, test.in.Category(), "%v", test.in)
	}

	require.Equal(t, "RedemptionFailed", CategoryRedemption.String())
	require.Equal(t, "Unknown ErrorCategory (99)", ErrorCategory(99).String())
}

// TestError tests the error output for the Error type.
func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Error
		want string
	}{
		{
			Error{Description: "some error"},
			"some error",
		},
		{
			Error{Description: "human-readable error"},
			"human-readable error",
		},
	}

	for i, test := range tests {
		require.Equalf(t, test.want, test.in.Error(), "Error #%d", i)
	}
}

// TestIsErrorCode ensures IsErrorCode detects script errors, including wrapped
// ones, and rejects everything else.
func TestIsErrorCode(t *testing.T) {
	t.Parallel()

	err := scriptError(ErrEvalFalse, "false stack entry at end")
	require.True(t, IsErrorCode(err, ErrEvalFalse))
	require.False(t, IsErrorCode(err, ErrEmptyStack))

	wrapped := fmt.Errorf("input 0: %w", err)
	require.True(t, IsErrorCode(wrapped, ErrEvalFalse))

	require.False(t, IsErrorCode(nil, ErrInternal))
	require.False(t, IsErrorCode(fmt.Errorf("plain"), ErrInternal))
}
