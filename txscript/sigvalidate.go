// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// pubKeyHybridEven and pubKeyHybridOdd are the format bytes of the
	// hybrid public key encoding, which carries both coordinates like the
	// uncompressed format along with the parity of Y.
	pubKeyHybridEven = 0x06
	pubKeyHybridOdd  = 0x07
)

// parsePubKey parses a public key in any of the encodings the consensus rules
// accept when strict encoding is not enforced, which includes the hybrid
// format on top of the compressed and uncompressed ones.
func parsePubKey(pkBytes []byte) (*btcec.PublicKey, error) {
	if len(pkBytes) != secp256k1.PubKeyBytesLenUncompressed ||
		(pkBytes[0] != pubKeyHybridEven && pkBytes[0] != pubKeyHybridOdd) {

		return btcec.ParsePubKey(pkBytes)
	}

	// The hybrid format is the uncompressed format with the parity of Y
	// folded into the format byte, which must agree with Y itself.
	wantOdd := pkBytes[0] == pubKeyHybridOdd
	if isOdd := pkBytes[64]&0x01 == 1; isOdd != wantOdd {
		return nil, fmt.Errorf("hybrid public key parity bit does not " +
			"match the y coordinate")
	}

	uncompressed := make([]byte, secp256k1.PubKeyBytesLenUncompressed)
	copy(uncompressed, pkBytes)
	uncompressed[0] = 0x04
	return btcec.ParsePubKey(uncompressed)
}

// checkHashTypeEncoding returns whether or not the passed hashtype adheres to
// the strict encoding requirements if enabled.
func (vm *Engine) checkHashTypeEncoding(hashType SigHashType) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) {
		return nil
	}

	sigHashType := hashType & ^SigHashAnyOneCanPay
	if sigHashType < SigHashAll || sigHashType > SigHashSingle {
		str := fmt.Sprintf("invalid hash type 0x%x", hashType)
		return scriptError(ErrInvalidSigHashType, str)
	}
	return nil
}

// checkPubKeyEncoding returns whether or not the passed public key adheres to
// the strict encoding requirements if enabled.
func (vm *Engine) checkPubKeyEncoding(pubKey []byte) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) {
		return nil
	}

	if len(pubKey) == secp256k1.PubKeyBytesLenCompressed &&
		(pubKey[0] == 0x02 || pubKey[0] == 0x03) {
		// Compressed
		return nil
	}
	if len(pubKey) == secp256k1.PubKeyBytesLenUncompressed && pubKey[0] == 0x04 {
		// Uncompressed
		return nil
	}

	return scriptError(ErrPubKeyType, "unsupported public key type")
}

// checkSignatureEncoding returns whether or not the passed signature, which
// includes the trailing hash type byte, adheres to the strict encoding
// requirements enabled by the flags.  An empty signature always passes since
// it is the compact way to provide an invalid signature.
func (vm *Engine) checkSignatureEncoding(fullSig []byte) error {
	if len(fullSig) == 0 {
		return nil
	}

	if !vm.hasFlag(ScriptVerifyDERSignatures) &&
		!vm.hasFlag(ScriptVerifyLowS) &&
		!vm.hasFlag(ScriptVerifyStrictEncoding) {

		return nil
	}

	sig := fullSig[:len(fullSig)-1]
	if err := checkStrictDEREncoding(sig); err != nil {
		return err
	}

	if vm.hasFlag(ScriptVerifyLowS) {
		if err := checkLowS(sig); err != nil {
			return err
		}
	}

	hashType := SigHashType(fullSig[len(fullSig)-1])
	return vm.checkHashTypeEncoding(hashType)
}

// checkLowS returns an error when the S value of the passed strictly DER
// encoded signature is greater than half the group order.
func checkLowS(sig []byte) error {
	// The offsets were validated by checkStrictDEREncoding.
	rLen := int(sig[3])
	sLen := int(sig[rLen+5])
	sValue := sig[rLen+6 : rLen+6+sLen]

	// Strip the sign padding.  An S value at or above the group order is
	// not a valid signature at all, so it is left to fail verification
	// rather than rejected as high.
	for len(sValue) > 1 && sValue[0] == 0x00 {
		sValue = sValue[1:]
	}
	if len(sValue) > 32 {
		return nil
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sValue); overflow {
		return nil
	}
	if s.IsOverHalfOrder() {
		return scriptError(ErrSigHighS, "signature is not canonical "+
			"due to unnecessarily high S value")
	}
	return nil
}

// checkStrictDEREncoding returns an error when the passed signature, without
// the hash type byte, is not a strictly DER encoded ECDSA signature.
func checkStrictDEREncoding(sig []byte) error {
	// The format of a DER encoded signature is as follows:
	//
	// 0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S>
	//   - 0x30 is the ASN.1 identifier for a sequence
	//   - Total length is 1 byte and specifies length of all remaining data
	//   - 0x02 is the ASN.1 identifier that specifies an integer follows
	//   - Length of R is 1 byte and specifies how many bytes R occupies
	//   - R is the arbitrary length big-endian encoded number which
	//     represents the R value of the signature.  DER encoding dictates
	//     that the value must be encoded using the minimum possible number
	//     of bytes.  This implies the first byte can only be null if the
	//     highest bit of the next byte is set in order to prevent it from
	//     being interpreted as a negative number.
	//   - 0x02 is once again the ASN.1 integer identifier
	//   - Length of S is 1 byte and specifies how many bytes S occupies
	//   - S is the arbitrary length big-endian encoded number which
	//     represents the S value of the signature.  The encoding rules are
	//     identical as those for R.
	const (
		asn1SequenceID = 0x30
		asn1IntegerID  = 0x02

		// minSigLen is the minimum length of a DER encoded signature and
		// is when both R and S are 1 byte each.
		minSigLen = 8

		// maxSigLen is the maximum length of a DER encoded signature and
		// is when both R and S are 33 bytes each.
		maxSigLen = 72

		sequenceOffset = 0
		dataLenOffset  = 1
		rTypeOffset    = 2
		rLenOffset     = 3
		rOffset        = 4
	)

	sigLen := len(sig)
	if sigLen < minSigLen {
		str := fmt.Sprintf("malformed signature: too short: %d < %d",
			sigLen, minSigLen)
		return scriptError(ErrSigTooShort, str)
	}
	if sigLen > maxSigLen {
		str := fmt.Sprintf("malformed signature: too long: %d > %d",
			sigLen, maxSigLen)
		return scriptError(ErrSigTooLong, str)
	}

	if sig[sequenceOffset] != asn1SequenceID {
		str := fmt.Sprintf("malformed signature: format has wrong "+
			"type: %#x", sig[sequenceOffset])
		return scriptError(ErrSigInvalidSeqID, str)
	}

	if int(sig[dataLenOffset]) != sigLen-2 {
		str := fmt.Sprintf("malformed signature: bad length: %d != %d",
			sig[dataLenOffset], sigLen-2)
		return scriptError(ErrSigInvalidDataLen, str)
	}

	rLen := int(sig[rLenOffset])
	sTypeOffset := rOffset + rLen
	sLenOffset := sTypeOffset + 1
	if sTypeOffset >= sigLen {
		str := "malformed signature: S type indicator missing"
		return scriptError(ErrSigMissingSTypeID, str)
	}
	if sLenOffset >= sigLen {
		str := "malformed signature: S length missing"
		return scriptError(ErrSigMissingSLen, str)
	}

	sOffset := sLenOffset + 1
	sLen := int(sig[sLenOffset])
	if sOffset+sLen != sigLen {
		str := "malformed signature: invalid S length"
		return scriptError(ErrSigInvalidSLen, str)
	}

	if sig[rTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: R integer marker: "+
			"%#x != %#x", sig[rTypeOffset], asn1IntegerID)
		return scriptError(ErrSigInvalidRIntID, str)
	}
	if rLen == 0 {
		str := "malformed signature: R length is zero"
		return scriptError(ErrSigZeroRLen, str)
	}
	if sig[rOffset]&0x80 != 0 {
		str := "malformed signature: R is negative"
		return scriptError(ErrSigNegativeR, str)
	}
	if rLen > 1 && sig[rOffset] == 0x00 && sig[rOffset+1]&0x80 == 0 {
		str := "malformed signature: R value has too much padding"
		return scriptError(ErrSigTooMuchRPadding, str)
	}

	if sig[sTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: S integer marker: "+
			"%#x != %#x", sig[sTypeOffset], asn1IntegerID)
		return scriptError(ErrSigInvalidSIntID, str)
	}
	if sLen == 0 {
		str := "malformed signature: S length is zero"
		return scriptError(ErrSigZeroSLen, str)
	}
	if sig[sOffset]&0x80 != 0 {
		str := "malformed signature: S is negative"
		return scriptError(ErrSigNegativeS, str)
	}
	if sLen > 1 && sig[sOffset] == 0x00 && sig[sOffset+1]&0x80 == 0 {
		str := "malformed signature: S value has too much padding"
		return scriptError(ErrSigTooMuchSPadding, str)
	}

	return nil
}
