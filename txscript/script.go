// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"strings"
)

// These are the constants specified for maximums in individual scripts.
const (
	MaxOpsPerScript       = 201 // Max number of non-push operations.
	MaxPubKeysPerMultiSig = 20  // Multisig can't have more sigs than this.
	MaxScriptElementSize  = 520 // Max bytes pushable to the stack.
	MaxStackSize          = 1000
	MaxScriptSize         = 10000
)

// LockTimeThreshold is the number below which a lock time is interpreted to be
// a block number.  Since an average of one block is generated per 10 minutes,
// this allows blocks for about 9,512 years.
const LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

// isSmallInt returns whether or not the opcode is considered a small integer,
// which is an OP_0, or OP_1 through OP_16.
func isSmallInt(op byte) bool {
	return op == OP_0 || (op >= OP_1 && op <= OP_16)
}

// asSmallInt returns the passed opcode, which must be true according to
// isSmallInt(), as an integer.
func asSmallInt(op byte) int {
	if op == OP_0 {
		return 0
	}

	return int(op - (OP_1 - 1))
}

// checkScriptParses returns an error if the provided script fails to parse.
func checkScriptParses(script []byte) error {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		// Nothing to do.
	}
	return tokenizer.Err()
}

// IsPushOnlyScript returns whether or not the passed script only pushes data
// according to the consensus definition of pushing data.
//
// WARNING: This function always treats the passed script as version 0.  Great
// care must be taken if introducing a new script version because it is used
// in consensus which, unfortunately as of the time of this writing, does not
// check script versions before checking if it is a push only script which
// means nodes on existing rules will treat new version scripts as if they were
// version 0.
func IsPushOnlyScript(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		// All opcodes up to OP_16 are data push instructions.  Note that
		// this also counts OP_RESERVED as a push.
		if tokenizer.Opcode() > OP_16 {
			return false
		}
	}
	return tokenizer.Err() == nil
}

// isScriptHashScript returns whether or not the passed script is a
// pay-to-script-hash script per consensus, that is OP_HASH160 <20-byte hash>
// OP_EQUAL with exactly that encoding.
func isScriptHashScript(script []byte) bool {
	return len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL
}

// IsPayToScriptHash returns true if the script is in the standard
// pay-to-script-hash (P2SH) format, false otherwise.
func IsPayToScriptHash(script []byte) bool {
	return isScriptHashScript(script)
}

// extractScriptHash extracts the script hash from the passed script if it is a
// standard pay-to-script-hash script.  It will return nil otherwise.
func extractScriptHash(script []byte) []byte {
	if isScriptHashScript(script) {
		return script[2:22]
	}
	return nil
}

// removeOpcodeRaw returns the script minus any opcodes that perform the
// provided opcode.  Bytes that can not be parsed are kept as they are.
func removeOpcodeRaw(script []byte, opcode byte) []byte {
	result := make([]byte, 0, len(script))
	var prevOffset int32
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if tokenizer.Opcode() != opcode {
			result = append(result, script[prevOffset:tokenizer.ByteIndex()]...)
		}
		prevOffset = tokenizer.ByteIndex()
	}
	return append(result, script[prevOffset:]...)
}

// canonicalDataPush returns the script bytes that push the passed data with
// the shortest explicit length prefix.  Unlike the script builder it never
// substitutes small integer opcodes, so empty data is the single byte 0x00.
func canonicalDataPush(data []byte) []byte {
	return appendDataPush(make([]byte, 0, len(data)+5), data)
}

// findAndDelete returns the script with every occurrence of the canonical push
// of data removed.  Occurrences are only recognized when they start at an
// opcode boundary, and runs of back to back occurrences are removed together.
// Parsing stops at the first malformed opcode, and any remaining bytes are
// kept as they are.
//
// This is a consensus rule and the matching is byte exact, so a push of the
// same data with a different encoding is not removed.
func findAndDelete(script, data []byte) []byte {
	pattern := canonicalDataPush(data)

	var result []byte
	found := false
	pc, kept := 0, 0
	for {
		result = append(result, script[kept:pc]...)
		for len(script)-pc >= len(pattern) &&
			bytes.Equal(script[pc:pc+len(pattern)], pattern) {

			pc += len(pattern)
			found = true
		}
		kept = pc

		tokenizer := makeScriptTokenizerAt(script, pc)
		if !tokenizer.Next() {
			break
		}
		pc = int(tokenizer.ByteIndex())
	}

	if !found {
		return script
	}
	return append(result, script[kept:]...)
}

// DisasmString formats a disassembled script for one line printing.  When the
// script fails to parse, the returned string will contain the disassembled
// script up to the point the failure occurred along with the string '[error]'
// appended.  In addition, the reason the script failed to parse is returned
// if the caller wants more information about the failure.
func DisasmString(script []byte) (string, error) {
	var disbuf strings.Builder
	tokenizer := MakeScriptTokenizer(script)
	if tokenizer.Next() {
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	for tokenizer.Next() {
		disbuf.WriteByte(' ')
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	if tokenizer.Err() != nil {
		if tokenizer.ByteIndex() != 0 {
			disbuf.WriteByte(' ')
		}
		disbuf.WriteString("[error]")
	}
	return disbuf.String(), tokenizer.Err()
}
