// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy ScriptClass = iota // None of the recognized forms.
	PubKeyTy                         // Pay pubkey.
	PubKeyHashTy                     // Pay pubkey hash.
	ScriptHashTy                     // Pay to script hash.
	MultiSigTy                       // Multi signature.
	NullDataTy                       // Empty data-only (provably prunable).
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy: "nonstandard",
	PubKeyTy:      "pubkey",
	PubKeyHashTy:  "pubkeyhash",
	ScriptHashTy:  "scripthash",
	MultiSigTy:    "multisig",
	NullDataTy:    "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class.  If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// isPubKeyScript returns whether or not the passed script is a standard
// pay-to-pubkey script, that is a compressed or uncompressed public key
// followed by OP_CHECKSIG.
func isPubKeyScript(script []byte) bool {
	switch len(script) {
	case 35:
		return script[0] == OP_DATA_33 && script[34] == OP_CHECKSIG &&
			(script[1] == 0x02 || script[1] == 0x03)
	case 67:
		return script[0] == OP_DATA_65 && script[66] == OP_CHECKSIG &&
			script[1] == 0x04
	}
	return false
}

// isPubKeyHashScript returns whether or not the passed script is a standard
// pay-to-pubkey-hash script.
func isPubKeyHashScript(script []byte) bool {
	return len(script) == 25 &&
		script[0] == OP_DUP &&
		script[1] == OP_HASH160 &&
		script[2] == OP_DATA_20 &&
		script[23] == OP_EQUALVERIFY &&
		script[24] == OP_CHECKSIG
}

// multiSigDetails houses details extracted from a standard multisig script.
type multiSigDetails struct {
	requiredSigs int
	numPubKeys   int
	pubKeys      [][]byte
	valid        bool
}

// extractMultisigScriptDetails attempts to extract details from the passed
// script if it is a standard multisig script.  The returned details struct
// will have the valid flag set to false otherwise.
func extractMultisigScriptDetails(script []byte) multiSigDetails {
	// A multi-signature script is of the form:
	//  NUM_SIGS PUBKEY PUBKEY PUBKEY ... NUM_PUBKEYS OP_CHECKMULTISIG

	// The script can't possibly be a multisig script if it doesn't end with
	// OP_CHECKMULTISIG or have at least two small integer pushes preceding
	// it.  Fail fast to avoid more work below.
	if len(script) < 3 || script[len(script)-1] != OP_CHECKMULTISIG {
		return multiSigDetails{}
	}

	// The first opcode must be a small integer specifying the number of
	// signatures required.
	tokenizer := MakeScriptTokenizer(script)
	if !tokenizer.Next() || !isSmallInt(tokenizer.Opcode()) {
		return multiSigDetails{}
	}
	requiredSigs := asSmallInt(tokenizer.Opcode())

	// The next series of opcodes must either push public keys or be a small
	// integer specifying the number of public keys.
	var numPubKeys int
	var pubKeys [][]byte
	for tokenizer.Next() {
		data := tokenizer.Data()
		if len(data) == 33 || len(data) == 65 {
			pubKeys = append(pubKeys, data)
			continue
		}
		if !isSmallInt(tokenizer.Opcode()) {
			return multiSigDetails{}
		}
		numPubKeys = asSmallInt(tokenizer.Opcode())
		break
	}

	// There must only be a single opcode left unparsed which will be
	// OP_CHECKMULTISIG per the check above.
	if !tokenizer.Next() || tokenizer.Opcode() != OP_CHECKMULTISIG ||
		!tokenizer.Done() || tokenizer.Err() != nil {

		return multiSigDetails{}
	}

	if numPubKeys == 0 || numPubKeys != len(pubKeys) ||
		requiredSigs > numPubKeys {

		return multiSigDetails{}
	}

	return multiSigDetails{
		requiredSigs: requiredSigs,
		numPubKeys:   numPubKeys,
		pubKeys:      pubKeys,
		valid:        true,
	}
}

// isNullDataScript returns whether or not the passed script is a standard
// null data script, that is OP_RETURN optionally followed by a single push.
func isNullDataScript(script []byte) bool {
	if len(script) == 0 || script[0] != OP_RETURN {
		return false
	}
	if len(script) == 1 {
		return true
	}

	tokenizer := makeScriptTokenizerAt(script, 1)
	return tokenizer.Next() && tokenizer.Opcode() <= OP_16 &&
		tokenizer.Done() && tokenizer.Err() == nil
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	switch {
	case isPubKeyScript(script):
		return PubKeyTy
	case isPubKeyHashScript(script):
		return PubKeyHashTy
	case isScriptHashScript(script):
		return ScriptHashTy
	case extractMultisigScriptDetails(script).valid:
		return MultiSigTy
	case isNullDataScript(script):
		return NullDataTy
	}
	return NonStandardTy
}

// payToPubKeyHashScript creates a new script to pay a transaction
// output to a 20-byte pubkey hash. It is expected that the input is a valid
// hash.
func payToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).
		AddData(pubKeyHash).AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).
		Script()
}

// PayToPubKeyHashScript creates a new script to pay a transaction output to
// the hash of the passed serialized public key.
func PayToPubKeyHashScript(serializedPubKey []byte) ([]byte, error) {
	return payToPubKeyHashScript(btcutil.Hash160(serializedPubKey))
}

// PayToScriptHashScript creates a new script to pay a transaction output to a
// script hash of the passed redeem script.
func PayToScriptHashScript(redeemScript []byte) ([]byte, error) {
	scriptHash := btcutil.Hash160(redeemScript)
	return NewScriptBuilder().AddOp(OP_HASH160).AddData(scriptHash).
		AddOp(OP_EQUAL).Script()
}

// ExtractScriptHash returns the script hash committed to by the passed
// pay-to-script-hash script or nil when it is not one.
func ExtractScriptHash(pkScript []byte) []byte {
	return extractScriptHash(pkScript)
}

// MultiSigScript returns a valid script for a multisignature redemption where
// nrequired of the keys in pubkeys are required to have signed the transaction
// for success.  An Error with the error code ErrInvalidSignatureCount will be
// returned if nrequired is larger than the number of keys provided.
func MultiSigScript(pubKeys [][]byte, nrequired int) ([]byte, error) {
	if len(pubKeys) < nrequired {
		str := fmt.Sprintf("unable to generate multisig script with "+
			"%d required signatures when there are only %d public "+
			"keys available", nrequired, len(pubKeys))
		return nil, scriptError(ErrInvalidSignatureCount, str)
	}
	if len(pubKeys) > MaxPubKeysPerMultiSig {
		str := fmt.Sprintf("unable to generate multisig script with "+
			"%d public keys when the limit is %d", len(pubKeys),
			MaxPubKeysPerMultiSig)
		return nil, scriptError(ErrInvalidPubKeyCount, str)
	}

	builder := NewScriptBuilder().AddInt64(int64(nrequired))
	for _, key := range pubKeys {
		builder.AddData(key)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(OP_CHECKMULTISIG)

	return builder.Script()
}
