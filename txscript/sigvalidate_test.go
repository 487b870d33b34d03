// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCheckStrictDEREncoding ensures every way a signature can deviate from
// strict DER is reported with its own error code.
func TestCheckStrictDEREncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sig  string
		err  *ErrorCode
	}{
		{"shortest valid", "3006020101020101", nil},
		{"R sign padding", "300702020081020101", nil},
		{"too short", "30050201010201", errCode(ErrSigTooShort)},
		{"wrong sequence id", "3106020101020101", errCode(ErrSigInvalidSeqID)},
		{"bad data length", "3007020101020101", errCode(ErrSigInvalidDataLen)},
		{"S type missing", "3006020401010101", errCode(ErrSigMissingSTypeID)},
		{"S length missing", "3006020301010102", errCode(ErrSigMissingSLen)},
		{"invalid S length", "3006020101020201", errCode(ErrSigInvalidSLen)},
		{"R integer id", "3006030101020101", errCode(ErrSigInvalidRIntID)},
		{"zero R length", "3006020002020101", errCode(ErrSigZeroRLen)},
		{"negative R", "3006020181020101", errCode(ErrSigNegativeR)},
		{"R padding", "300702020001020101", errCode(ErrSigTooMuchRPadding)},
		{"S integer id", "3006020101030101", errCode(ErrSigInvalidSIntID)},
		{"zero S length", "3006020201010200", errCode(ErrSigZeroSLen)},
		{"negative S", "3006020101020181", errCode(ErrSigNegativeS)},
		{"S padding", "300702010102020001", errCode(ErrSigTooMuchSPadding)},
	}

	for _, test := range tests {
		err := checkStrictDEREncoding(hexToBytes(test.sig))
		requireScriptErr(t, test.err, err, test.name)
	}

	tooLong := append([]byte{0x30, 71}, bytes.Repeat([]byte{0x01}, 71)...)
	requireScriptErr(t, errCode(ErrSigTooLong),
		checkStrictDEREncoding(tooLong))
}

// TestCheckLowS ensures the S value boundary is exactly half the group order
// and that values which overflow the order are left to fail verification.
func TestCheckLowS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		err  *ErrorCode
	}{
		{"one", "01", nil},
		{"half order", "7fffffffffffffffffffffffffffffff5d576e7357a4501ddfe92f46681b20a0", nil},
		{"half order plus one", "7fffffffffffffffffffffffffffffff5d576e7357a4501ddfe92f46681b20a1", errCode(ErrSigHighS)},
		{"order minus one", "00fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140", errCode(ErrSigHighS)},
		{"order", "00fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", nil},
		{"above order", "00ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", nil},
	}

	for _, test := range tests {
		s := hexToBytes(test.s)
		sig := []byte{0x30, byte(5 + len(s)), 0x02, 0x01, 0x01, 0x02,
			byte(len(s))}
		sig = append(sig, s...)
		require.NoError(t, checkStrictDEREncoding(sig), test.name)

		requireScriptErr(t, test.err, checkLowS(sig), test.name)
	}
}

// TestCheckSignatureEncodingFlags ensures the signature encoding checks only
// apply under the flags which enable them.
func TestCheckSignatureEncodingFlags(t *testing.T) {
	t.Parallel()

	valid := hexToBytes("3006020101020101")
	badDER := hexToBytes("3006020181020101")
	highS := hexToBytes("302502010102207fffffffffffffffffffffffff" +
		"ffffff5d576e7357a4501ddfe92f46681b20a1")
	withHashType := func(sig []byte, hashType byte) []byte {
		return append(append([]byte(nil), sig...), hashType)
	}

	tests := []struct {
		name  string
		sig   []byte
		flags ScriptFlags
		err   *ErrorCode
	}{
		{"empty", nil, StandardVerifyFlags, nil},
		{"bad DER without flags", withHashType(badDER, 0x01), ScriptFlagsNone, nil},
		{"bad DER", withHashType(badDER, 0x01), ScriptVerifyDERSignatures, errCode(ErrSigNegativeR)},
		{"bad DER under low S", withHashType(badDER, 0x01), ScriptVerifyLowS, errCode(ErrSigNegativeR)},
		{"bad DER under strict encoding", withHashType(badDER, 0x01), ScriptVerifyStrictEncoding, errCode(ErrSigNegativeR)},
		{"high S under DER", withHashType(highS, 0x01), ScriptVerifyDERSignatures, nil},
		{"high S", withHashType(highS, 0x01), ScriptVerifyLowS, errCode(ErrSigHighS)},
		{"anyonecanpay", withHashType(valid, 0x81), ScriptVerifyStrictEncoding, nil},
		{"single", withHashType(valid, 0x03), ScriptVerifyStrictEncoding, nil},
		{"undefined hash type under DER", withHashType(valid, 0x04), ScriptVerifyDERSignatures, nil},
		{"undefined hash type", withHashType(valid, 0x04), ScriptVerifyStrictEncoding, errCode(ErrInvalidSigHashType)},
		{"undefined anyonecanpay hash type", withHashType(valid, 0x84), ScriptVerifyStrictEncoding, errCode(ErrInvalidSigHashType)},
		{"zero hash type", withHashType(valid, 0x00), ScriptVerifyStrictEncoding, errCode(ErrInvalidSigHashType)},
	}

	for _, test := range tests {
		vm := Engine{flags: test.flags}
		err := vm.checkSignatureEncoding(test.sig)
		requireScriptErr(t, test.err, err, test.name)
	}
}

// TestCheckPubKeyEncoding ensures only the compressed and uncompressed
// encodings pass under strict encoding.
func TestCheckPubKeyEncoding(t *testing.T) {
	t.Parallel()

	pubKey := testKey(0x05).PubKey()
	compressed := pubKey.SerializeCompressed()
	uncompressed := pubKey.SerializeUncompressed()
	hybrid := append([]byte(nil), uncompressed...)
	hybrid[0] = pubKeyHybridEven | hybrid[64]&0x01

	tests := []struct {
		name string
		key  []byte
		err  *ErrorCode
	}{
		{"compressed", compressed, nil},
		{"uncompressed", uncompressed, nil},
		{"hybrid", hybrid, errCode(ErrPubKeyType)},
		{"compressed prefix on long key", append([]byte{0x02}, uncompressed[1:]...), errCode(ErrPubKeyType)},
		{"uncompressed prefix on short key", append([]byte{0x04}, compressed[1:]...), errCode(ErrPubKeyType)},
		{"empty", nil, errCode(ErrPubKeyType)},
	}

	strict := Engine{flags: ScriptVerifyStrictEncoding}
	lax := Engine{}
	for _, test := range tests {
		requireScriptErr(t, test.err, strict.checkPubKeyEncoding(test.key),
			test.name)
		require.NoError(t, lax.checkPubKeyEncoding(test.key), test.name)
	}
}

// TestParsePubKeyHybrid ensures hybrid keys parse to the same point as the
// uncompressed form when the parity byte agrees with Y.
func TestParsePubKeyHybrid(t *testing.T) {
	t.Parallel()

	pubKey := testKey(0x06).PubKey()
	uncompressed := pubKey.SerializeUncompressed()

	hybrid := append([]byte(nil), uncompressed...)
	hybrid[0] = pubKeyHybridEven | hybrid[64]&0x01
	parsed, err := parsePubKey(hybrid)
	require.NoError(t, err)
	require.True(t, parsed.IsEqual(pubKey))

	// The caller's bytes are left untouched.
	require.NotEqual(t, byte(0x04), hybrid[0])

	hybrid[0] ^= 0x01
	_, err = parsePubKey(hybrid)
	require.Error(t, err)

	parsed, err = parsePubKey(pubKey.SerializeCompressed())
	require.NoError(t, err)
	require.True(t, parsed.IsEqual(pubKey))
}
