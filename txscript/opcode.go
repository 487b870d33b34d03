// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/crypto/ripemd160"
)

// opcode describes a single script opcode: its byte value, display name, encoded
// length (negative for OP_PUSHDATAn, giving the size of the length prefix), class
// and handler.
type opcode struct {
	value  byte
	name   string
	length int
	class  OpcodeClass
	opfunc func(*opcode, []byte, *Engine) error
}

// OpcodeClass describes the broad family an opcode belongs to.
type OpcodeClass uint8

// These constants define the opcode families.
const (
	ClassPush OpcodeClass = iota
	ClassFlowControl
	ClassStack
	ClassSplice
	ClassBitwise
	ClassArithmetic
	ClassCrypto
	ClassLockTime
	ClassNop
	ClassDisabled
	ClassReserved
)

var opcodeClassStrings = map[OpcodeClass]string{
	ClassPush:        "push",
	ClassFlowControl: "flow-control",
	ClassStack:       "stack",
	ClassSplice:      "splice",
	ClassBitwise:     "bitwise",
	ClassArithmetic:  "arithmetic",
	ClassCrypto:      "crypto",
	ClassLockTime:    "locktime",
	ClassNop:         "nop",
	ClassDisabled:    "disabled",
	ClassReserved:    "reserved",
}

// String returns the OpcodeClass as a human-readable name.
func (c OpcodeClass) String() string {
	if s, ok := opcodeClassStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("Unknown OpcodeClass (%d)", uint8(c))
}

// Opcode byte values.
const (
	OP_0     = 0x00
	OP_FALSE = 0x00 // AKA OP_0

	OP_DATA_1 = 0x01 + iota - 2
	OP_DATA_2
	OP_DATA_3
	OP_DATA_4
	OP_DATA_5
	OP_DATA_6
	OP_DATA_7
	OP_DATA_8
	OP_DATA_9
	OP_DATA_10
	OP_DATA_11
	OP_DATA_12
	OP_DATA_13
	OP_DATA_14
	OP_DATA_15
	OP_DATA_16
	OP_DATA_17
	OP_DATA_18
	OP_DATA_19
	OP_DATA_20
	OP_DATA_21
	OP_DATA_22
	OP_DATA_23
	OP_DATA_24
	OP_DATA_25
	OP_DATA_26
	OP_DATA_27
	OP_DATA_28
	OP_DATA_29
	OP_DATA_30
	OP_DATA_31
	OP_DATA_32
	OP_DATA_33
	OP_DATA_34
	OP_DATA_35
	OP_DATA_36
	OP_DATA_37
	OP_DATA_38
	OP_DATA_39
	OP_DATA_40
	OP_DATA_41
	OP_DATA_42
	OP_DATA_43
	OP_DATA_44
	OP_DATA_45
	OP_DATA_46
	OP_DATA_47
	OP_DATA_48
	OP_DATA_49
	OP_DATA_50
	OP_DATA_51
	OP_DATA_52
	OP_DATA_53
	OP_DATA_54
	OP_DATA_55
	OP_DATA_56
	OP_DATA_57
	OP_DATA_58
	OP_DATA_59
	OP_DATA_60
	OP_DATA_61
	OP_DATA_62
	OP_DATA_63
	OP_DATA_64
	OP_DATA_65
	OP_DATA_66
	OP_DATA_67
	OP_DATA_68
	OP_DATA_69
	OP_DATA_70
	OP_DATA_71
	OP_DATA_72
	OP_DATA_73
	OP_DATA_74
	OP_DATA_75
)

// Opcodes from OP_PUSHDATA1 through OP_NOP10 are contiguous.
const (
	OP_PUSHDATA1 = 0x4c + iota
	OP_PUSHDATA2
	OP_PUSHDATA4
	OP_1NEGATE
	OP_RESERVED
	OP_1
	OP_2
	OP_3
	OP_4
	OP_5
	OP_6
	OP_7
	OP_8
	OP_9
	OP_10
	OP_11
	OP_12
	OP_13
	OP_14
	OP_15
	OP_16
	OP_NOP
	OP_VER
	OP_IF
	OP_NOTIF
	OP_VERIF
	OP_VERNOTIF
	OP_ELSE
	OP_ENDIF
	OP_VERIFY
	OP_RETURN
	OP_TOALTSTACK
	OP_FROMALTSTACK
	OP_2DROP
	OP_2DUP
	OP_3DUP
	OP_2OVER
	OP_2ROT
	OP_2SWAP
	OP_IFDUP
	OP_DEPTH
	OP_DROP
	OP_DUP
	OP_NIP
	OP_OVER
	OP_PICK
	OP_ROLL
	OP_ROT
	OP_SWAP
	OP_TUCK
	OP_CAT
	OP_SUBSTR
	OP_LEFT
	OP_RIGHT
	OP_SIZE
	OP_INVERT
	OP_AND
	OP_OR
	OP_XOR
	OP_EQUAL
	OP_EQUALVERIFY
	OP_RESERVED1
	OP_RESERVED2
	OP_1ADD
	OP_1SUB
	OP_2MUL
	OP_2DIV
	OP_NEGATE
	OP_ABS
	OP_NOT
	OP_0NOTEQUAL
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_LSHIFT
	OP_RSHIFT
	OP_BOOLAND
	OP_BOOLOR
	OP_NUMEQUAL
	OP_NUMEQUALVERIFY
	OP_NUMNOTEQUAL
	OP_LESSTHAN
	OP_GREATERTHAN
	OP_LESSTHANOREQUAL
	OP_GREATERTHANOREQUAL
	OP_MIN
	OP_MAX
	OP_WITHIN
	OP_RIPEMD160
	OP_SHA1
	OP_SHA256
	OP_HASH160
	OP_HASH256
	OP_CODESEPARATOR
	OP_CHECKSIG
	OP_CHECKSIGVERIFY
	OP_CHECKMULTISIG
	OP_CHECKMULTISIGVERIFY
	OP_NOP1
	OP_NOP2
	OP_NOP3
	OP_NOP4
	OP_NOP5
	OP_NOP6
	OP_NOP7
	OP_NOP8
	OP_NOP9
	OP_NOP10
)

// Aliases and the template-matching pseudo opcodes that live in the undefined
// range.
const (
	OP_TRUE                = OP_1
	OP_CHECKLOCKTIMEVERIFY = OP_NOP2
	OP_SMALLINTEGER        = 0xfa
	OP_PUBKEYS             = 0xfb
	OP_PUBKEYHASH          = 0xfd
	OP_PUBKEY              = 0xfe
	OP_INVALIDOPCODE       = 0xff
)

// Conditional execution constants.
const (
	OpCondFalse = 0
	OpCondTrue  = 1
	OpCondSkip  = 2
)

// opcodeArray is indexed by opcode byte.  It is filled by init and never
// written afterwards.
var opcodeArray [256]opcode

// namedOpcodes lists every opcode with a dedicated name and handler.  Data
// pushes, small integers, upgradable NOPs and undefined opcodes are filled in
// generically by init.
var namedOpcodes = []opcode{
	{OP_0, "OP_0", 1, ClassPush, opcodeFalse},
	{OP_PUSHDATA1, "OP_PUSHDATA1", -1, ClassPush, opcodePushData},
	{OP_PUSHDATA2, "OP_PUSHDATA2", -2, ClassPush, opcodePushData},
	{OP_PUSHDATA4, "OP_PUSHDATA4", -4, ClassPush, opcodePushData},
	{OP_1NEGATE, "OP_1NEGATE", 1, ClassPush, opcode1Negate},
	{OP_RESERVED, "OP_RESERVED", 1, ClassReserved, opcodeReserved},

	// Control opcodes.
	{OP_NOP, "OP_NOP", 1, ClassFlowControl, opcodeNop},
	{OP_VER, "OP_VER", 1, ClassReserved, opcodeReserved},
	{OP_IF, "OP_IF", 1, ClassFlowControl, opcodeIf},
	{OP_NOTIF, "OP_NOTIF", 1, ClassFlowControl, opcodeNotIf},
	{OP_VERIF, "OP_VERIF", 1, ClassReserved, opcodeReserved},
	{OP_VERNOTIF, "OP_VERNOTIF", 1, ClassReserved, opcodeReserved},
	{OP_ELSE, "OP_ELSE", 1, ClassFlowControl, opcodeElse},
	{OP_ENDIF, "OP_ENDIF", 1, ClassFlowControl, opcodeEndif},
	{OP_VERIFY, "OP_VERIFY", 1, ClassFlowControl, opcodeVerify},
	{OP_RETURN, "OP_RETURN", 1, ClassFlowControl, opcodeReturn},
	{OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY", 1, ClassLockTime, opcodeCheckLockTimeVerify},

	// Stack opcodes.
	{OP_TOALTSTACK, "OP_TOALTSTACK", 1, ClassStack, opcodeToAltStack},
	{OP_FROMALTSTACK, "OP_FROMALTSTACK", 1, ClassStack, opcodeFromAltStack},
	{OP_2DROP, "OP_2DROP", 1, ClassStack, opcode2Drop},
	{OP_2DUP, "OP_2DUP", 1, ClassStack, opcode2Dup},
	{OP_3DUP, "OP_3DUP", 1, ClassStack, opcode3Dup},
	{OP_2OVER, "OP_2OVER", 1, ClassStack, opcode2Over},
	{OP_2ROT, "OP_2ROT", 1, ClassStack, opcode2Rot},
	{OP_2SWAP, "OP_2SWAP", 1, ClassStack, opcode2Swap},
	{OP_IFDUP, "OP_IFDUP", 1, ClassStack, opcodeIfDup},
	{OP_DEPTH, "OP_DEPTH", 1, ClassStack, opcodeDepth},
	{OP_DROP, "OP_DROP", 1, ClassStack, opcodeDrop},
	{OP_DUP, "OP_DUP", 1, ClassStack, opcodeDup},
	{OP_NIP, "OP_NIP", 1, ClassStack, opcodeNip},
	{OP_OVER, "OP_OVER", 1, ClassStack, opcodeOver},
	{OP_PICK, "OP_PICK", 1, ClassStack, opcodePick},
	{OP_ROLL, "OP_ROLL", 1, ClassStack, opcodeRoll},
	{OP_ROT, "OP_ROT", 1, ClassStack, opcodeRot},
	{OP_SWAP, "OP_SWAP", 1, ClassStack, opcodeSwap},
	{OP_TUCK, "OP_TUCK", 1, ClassStack, opcodeTuck},

	// Splice opcodes.
	{OP_CAT, "OP_CAT", 1, ClassDisabled, opcodeDisabled},
	{OP_SUBSTR, "OP_SUBSTR", 1, ClassDisabled, opcodeDisabled},
	{OP_LEFT, "OP_LEFT", 1, ClassDisabled, opcodeDisabled},
	{OP_RIGHT, "OP_RIGHT", 1, ClassDisabled, opcodeDisabled},
	{OP_SIZE, "OP_SIZE", 1, ClassSplice, opcodeSize},

	// Bitwise logic opcodes.
	{OP_INVERT, "OP_INVERT", 1, ClassDisabled, opcodeDisabled},
	{OP_AND, "OP_AND", 1, ClassDisabled, opcodeDisabled},
	{OP_OR, "OP_OR", 1, ClassDisabled, opcodeDisabled},
	{OP_XOR, "OP_XOR", 1, ClassDisabled, opcodeDisabled},
	{OP_EQUAL, "OP_EQUAL", 1, ClassBitwise, opcodeEqual},
	{OP_EQUALVERIFY, "OP_EQUALVERIFY", 1, ClassBitwise, opcodeEqualVerify},
	{OP_RESERVED1, "OP_RESERVED1", 1, ClassReserved, opcodeReserved},
	{OP_RESERVED2, "OP_RESERVED2", 1, ClassReserved, opcodeReserved},

	// Numeric related opcodes.
	{OP_1ADD, "OP_1ADD", 1, ClassArithmetic, opcode1Add},
	{OP_1SUB, "OP_1SUB", 1, ClassArithmetic, opcode1Sub},
	{OP_2MUL, "OP_2MUL", 1, ClassDisabled, opcodeDisabled},
	{OP_2DIV, "OP_2DIV", 1, ClassDisabled, opcodeDisabled},
	{OP_NEGATE, "OP_NEGATE", 1, ClassArithmetic, opcodeNegate},
	{OP_ABS, "OP_ABS", 1, ClassArithmetic, opcodeAbs},
	{OP_NOT, "OP_NOT", 1, ClassArithmetic, opcodeNot},
	{OP_0NOTEQUAL, "OP_0NOTEQUAL", 1, ClassArithmetic, opcode0NotEqual},
	{OP_ADD, "OP_ADD", 1, ClassArithmetic, opcodeAdd},
	{OP_SUB, "OP_SUB", 1, ClassArithmetic, opcodeSub},
	{OP_MUL, "OP_MUL", 1, ClassDisabled, opcodeDisabled},
	{OP_DIV, "OP_DIV", 1, ClassDisabled, opcodeDisabled},
	{OP_MOD, "OP_MOD", 1, ClassDisabled, opcodeDisabled},
	{OP_LSHIFT, "OP_LSHIFT", 1, ClassDisabled, opcodeDisabled},
	{OP_RSHIFT, "OP_RSHIFT", 1, ClassDisabled, opcodeDisabled},
	{OP_BOOLAND, "OP_BOOLAND", 1, ClassArithmetic, opcodeBoolAnd},
	{OP_BOOLOR, "OP_BOOLOR", 1, ClassArithmetic, opcodeBoolOr},
	{OP_NUMEQUAL, "OP_NUMEQUAL", 1, ClassArithmetic, opcodeNumEqual},
	{OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY", 1, ClassArithmetic, opcodeNumEqualVerify},
	{OP_NUMNOTEQUAL, "OP_NUMNOTEQUAL", 1, ClassArithmetic, opcodeNumNotEqual},
	{OP_LESSTHAN, "OP_LESSTHAN", 1, ClassArithmetic, opcodeLessThan},
	{OP_GREATERTHAN, "OP_GREATERTHAN", 1, ClassArithmetic, opcodeGreaterThan},
	{OP_LESSTHANOREQUAL, "OP_LESSTHANOREQUAL", 1, ClassArithmetic, opcodeLessThanOrEqual},
	{OP_GREATERTHANOREQUAL, "OP_GREATERTHANOREQUAL", 1, ClassArithmetic, opcodeGreaterThanOrEqual},
	{OP_MIN, "OP_MIN", 1, ClassArithmetic, opcodeMin},
	{OP_MAX, "OP_MAX", 1, ClassArithmetic, opcodeMax},
	{OP_WITHIN, "OP_WITHIN", 1, ClassArithmetic, opcodeWithin},

	// Crypto opcodes.
	{OP_RIPEMD160, "OP_RIPEMD160", 1, ClassCrypto, opcodeRipemd160},
	{OP_SHA1, "OP_SHA1", 1, ClassCrypto, opcodeSha1},
	{OP_SHA256, "OP_SHA256", 1, ClassCrypto, opcodeSha256},
	{OP_HASH160, "OP_HASH160", 1, ClassCrypto, opcodeHash160},
	{OP_HASH256, "OP_HASH256", 1, ClassCrypto, opcodeHash256},
	{OP_CODESEPARATOR, "OP_CODESEPARATOR", 1, ClassCrypto, opcodeCodeSeparator},
	{OP_CHECKSIG, "OP_CHECKSIG", 1, ClassCrypto, opcodeCheckSig},
	{OP_CHECKSIGVERIFY, "OP_CHECKSIGVERIFY", 1, ClassCrypto, opcodeCheckSigVerify},
	{OP_CHECKMULTISIG, "OP_CHECKMULTISIG", 1, ClassCrypto, opcodeCheckMultiSig},
	{OP_CHECKMULTISIGVERIFY, "OP_CHECKMULTISIGVERIFY", 1, ClassCrypto, opcodeCheckMultiSigVerify},

	// Undefined opcodes with names used by script templates.
	{OP_SMALLINTEGER, "OP_SMALLINTEGER", 1, ClassReserved, opcodeInvalid},
	{OP_PUBKEYS, "OP_PUBKEYS", 1, ClassReserved, opcodeInvalid},
	{OP_PUBKEYHASH, "OP_PUBKEYHASH", 1, ClassReserved, opcodeInvalid},
	{OP_PUBKEY, "OP_PUBKEY", 1, ClassReserved, opcodeInvalid},
	{OP_INVALIDOPCODE, "OP_INVALIDOPCODE", 1, ClassReserved, opcodeInvalid},
}

// opcodeOnelineRepls renames opcodes in the compact disassembly.
var opcodeOnelineRepls = map[string]string{
	"OP_1NEGATE": "-1",
	"OP_0":       "0",
}

// OpcodeByName maps an opcode name such as OP_CHECKSIG to its byte value.
var OpcodeByName = make(map[string]byte)

func init() {
	// Everything not explicitly defined below is an undefined opcode that
	// fails when executed.
	for i := range opcodeArray {
		opcodeArray[i] = opcode{
			value:  byte(i),
			name:   fmt.Sprintf("OP_UNKNOWN%d", i),
			length: 1,
			class:  ClassReserved,
			opfunc: opcodeInvalid,
		}
	}

	for i := OP_DATA_1; i <= OP_DATA_75; i++ {
		opcodeArray[i] = opcode{
			value:  byte(i),
			name:   fmt.Sprintf("OP_DATA_%d", i),
			length: i + 1,
			class:  ClassPush,
			opfunc: opcodePushData,
		}
	}

	for i := OP_1; i <= OP_16; i++ {
		n := i - (OP_1 - 1)
		opcodeArray[i] = opcode{
			value:  byte(i),
			name:   fmt.Sprintf("OP_%d", n),
			length: 1,
			class:  ClassPush,
			opfunc: opcodeN,
		}
		opcodeOnelineRepls[opcodeArray[i].name] = fmt.Sprintf("%d", n)
	}

	for i := OP_NOP1; i <= OP_NOP10; i++ {
		opcodeArray[i] = opcode{
			value:  byte(i),
			name:   fmt.Sprintf("OP_NOP%d", i-(OP_NOP1-1)),
			length: 1,
			class:  ClassNop,
			opfunc: opcodeNop,
		}
	}

	for _, op := range namedOpcodes {
		opcodeArray[op.value] = op
	}

	for _, op := range opcodeArray {
		OpcodeByName[op.name] = op.value
	}
	OpcodeByName["OP_FALSE"] = OP_FALSE
	OpcodeByName["OP_TRUE"] = OP_TRUE
	OpcodeByName["OP_NOP2"] = OP_CHECKLOCKTIMEVERIFY
}

// OpcodeName returns the human-readable name of the passed opcode.
func OpcodeName(op byte) string {
	return opcodeArray[op].name
}

// OpcodeClassOf returns the family the passed opcode belongs to.
func OpcodeClassOf(op byte) OpcodeClass {
	return opcodeArray[op].class
}

// disasmOpcode appends the disassembly of op and its data to buf.  In compact
// form small integers print as numbers and data pushes print as bare hex.
func disasmOpcode(buf *strings.Builder, op *opcode, data []byte, compact bool) {
	name := op.name
	if compact {
		if repl, ok := opcodeOnelineRepls[name]; ok {
			name = repl
		}
		if op.length == 1 {
			buf.WriteString(name)
		} else {
			buf.WriteString(hex.EncodeToString(data))
		}
		return
	}

	buf.WriteString(name)
	switch op.length {
	case 1:
		return
	case -1:
		fmt.Fprintf(buf, " 0x%02x", len(data))
	case -2:
		fmt.Fprintf(buf, " 0x%04x", len(data))
	case -4:
		fmt.Fprintf(buf, " 0x%08x", len(data))
	}
	fmt.Fprintf(buf, " 0x%02x", data)
}

// opcodeDisabled fails with ErrDisabledOpcode.  The engine rejects disabled
// opcodes before dispatch, even on a non-executing branch.
func opcodeDisabled(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute disabled opcode %s", op.name)
	return scriptError(ErrDisabledOpcode, str)
}

// opcodeReserved fails with ErrReservedOpcode.
func opcodeReserved(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute reserved opcode %s", op.name)
	return scriptError(ErrReservedOpcode, str)
}

// opcodeInvalid is a common handler for all undefined opcodes.
func opcodeInvalid(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute invalid opcode %s", op.name)
	return scriptError(ErrReservedOpcode, str)
}

// opcodeFalse pushes an empty item, which is the encoding of zero.
func opcodeFalse(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushByteArray(nil)
	return nil
}

// opcodePushData pushes the data carried by OP_DATA_n and OP_PUSHDATAn.
func opcodePushData(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushByteArray(data)
	return nil
}

func opcode1Negate(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushInt(scriptNum(-1))
	return nil
}

// opcodeN pushes the number 1 through 16 named by OP_1 through OP_16.
func opcodeN(op *opcode, data []byte, vm *Engine) error {
	// OP_1 through OP_16 are contiguous.
	vm.dstack.PushInt(scriptNum(op.value - (OP_1 - 1)))
	return nil
}

// opcodeNop does nothing unless the upgradable NOPs are discouraged, in which
// case OP_NOP1 and OP_NOP3 through OP_NOP10 fail.
func opcodeNop(op *opcode, data []byte, vm *Engine) error {
	if op.class == ClassNop && vm.hasFlag(ScriptDiscourageUpgradableNops) {
		str := fmt.Sprintf("%s reserved for soft-fork upgrades", op.name)
		return scriptError(ErrDiscourageUpgradableNOPs, str)
	}
	return nil
}

// opcodeIf pops a boolean and pushes the branch state onto the conditional
// stack.  It runs on non-executing branches too so nesting stays balanced; the
// pushed state is then OpCondSkip.
//
// [... bool] -> [...]
func opcodeIf(op *opcode, data []byte, vm *Engine) error {
	return pushCondition(op, vm, false)
}

// opcodeNotIf is opcodeIf with the condition inverted.
func opcodeNotIf(op *opcode, data []byte, vm *Engine) error {
	return pushCondition(op, vm, true)
}

// pushCondition adds the conditional stack entry for OP_IF and OP_NOTIF.
func pushCondition(op *opcode, vm *Engine, invert bool) error {
	if !vm.isBranchExecuting() {
		vm.condStack = append(vm.condStack, OpCondSkip)
		return nil
	}

	if vm.dstack.Depth() < 1 {
		str := fmt.Sprintf("opcode %s requires a condition on the stack",
			op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}
	ok, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}

	condVal := OpCondFalse
	if ok != invert {
		condVal = OpCondTrue
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

// opcodeElse flips the innermost branch state.  Skipped branches stay skipped.
func opcodeElse(op *opcode, data []byte, vm *Engine) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}

	idx := len(vm.condStack) - 1
	switch vm.condStack[idx] {
	case OpCondTrue:
		vm.condStack[idx] = OpCondFalse
	case OpCondFalse:
		vm.condStack[idx] = OpCondTrue
	}
	return nil
}

// opcodeEndif pops the innermost branch state.
func opcodeEndif(op *opcode, data []byte, vm *Engine) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name)
		return scriptError(ErrUnbalancedConditional, str)
	}

	vm.condStack = vm.condStack[:len(vm.condStack)-1]
	return nil
}

// abstractVerify pops the top item and fails with code c when it is false.
func abstractVerify(op *opcode, vm *Engine, c ErrorCode) error {
	verified, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}

	if !verified {
		str := fmt.Sprintf("%s failed", op.name)
		return scriptError(c, str)
	}
	return nil
}

func opcodeVerify(op *opcode, data []byte, vm *Engine) error {
	return abstractVerify(op, vm, ErrVerify)
}

// opcodeReturn always fails with ErrEarlyReturn.
func opcodeReturn(op *opcode, data []byte, vm *Engine) error {
	return scriptError(ErrEarlyReturn, "script returned early")
}

// verifyLockTime checks that lockTime and txLockTime are the same kind (height
// or time, split at threshold) and that lockTime has been reached.
func verifyLockTime(txLockTime, threshold, lockTime int64) error {
	// Heights and timestamps do not compare.
	if (txLockTime < threshold) != (lockTime < threshold) {
		str := fmt.Sprintf("mismatched locktime types -- tx locktime "+
			"%d, stack locktime %d", txLockTime, lockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	if lockTime > txLockTime {
		str := fmt.Sprintf("locktime requirement not satisfied -- "+
			"locktime is greater than the transaction locktime: "+
			"%d > %d", lockTime, txLockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// opcodeCheckLockTimeVerify fails unless the transaction locktime satisfies
// the top stack item, which is left in place.  Without
// ScriptVerifyCheckLockTimeVerify it behaves as OP_NOP2.
func opcodeCheckLockTimeVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasFlag(ScriptVerifyCheckLockTimeVerify) {
		if vm.hasFlag(ScriptDiscourageUpgradableNops) {
			return scriptError(ErrDiscourageUpgradableNOPs,
				"OP_NOP2 reserved for soft-fork upgrades")
		}
		return nil
	}

	// The current transaction locktime is a uint32 resulting in a maximum
	// locktime of 2^32-1, which needs five bytes to express as a script
	// number.  The operand is left on the stack and is only required to
	// be minimally encoded under the minimal data rule.
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	lockTime, err := MakeScriptNum(so, vm.dstack.verifyMinimalData,
		cltvScriptNumLen)
	if err != nil {
		return err
	}

	if lockTime < 0 {
		str := fmt.Sprintf("negative lock time: %d", lockTime)
		return scriptError(ErrNegativeLockTime, str)
	}

	err = verifyLockTime(int64(vm.tx.LockTime), LockTimeThreshold,
		int64(lockTime))
	if err != nil {
		return err
	}

	// A final input disables the lock time of the whole transaction, so
	// the lock time can not be enforced for it.
	if vm.tx.TxIn[vm.txIdx].Sequence == wire.MaxTxInSequenceNum {
		str := "transaction input is finalized"
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// opcodeToAltStack moves the top item to the alt stack.
func opcodeToAltStack(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.astack.PushByteArray(so)
	return nil
}

// opcodeFromAltStack moves the top alt stack item back to the data stack.
func opcodeFromAltStack(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.astack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(so)
	return nil
}

func opcode2Drop(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DropN(2)
}

func opcode2Dup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(2)
}

func opcode3Dup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(3)
}

// [... x1 x2 x3 x4] -> [... x1 x2 x3 x4 x1 x2]
func opcode2Over(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.OverN(2)
}

// [... x1 x2 x3 x4 x5 x6] -> [... x3 x4 x5 x6 x1 x2]
func opcode2Rot(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.RotN(2)
}

// [... x1 x2 x3 x4] -> [... x3 x4 x1 x2]
func opcode2Swap(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.SwapN(2)
}

// opcodeIfDup duplicates the top item when it is true.
func opcodeIfDup(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}

	if asBool(so) {
		vm.dstack.PushByteArray(so)
	}
	return nil
}

// opcodeDepth pushes the number of items on the data stack.
func opcodeDepth(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushInt(scriptNum(vm.dstack.Depth()))
	return nil
}

func opcodeDrop(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DropN(1)
}

func opcodeDup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(1)
}

// [... x1 x2] -> [... x2]
func opcodeNip(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.NipN(1)
}

// [... x1 x2] -> [... x1 x2 x1]
func opcodeOver(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.OverN(1)
}

// opcodePick pops n and copies the item n deep to the top.
func opcodePick(op *opcode, data []byte, vm *Engine) error {
	val, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	return vm.dstack.PickN(val.Int32())
}

// opcodeRoll pops n and moves the item n deep to the top.
func opcodeRoll(op *opcode, data []byte, vm *Engine) error {
	val, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	return vm.dstack.RollN(val.Int32())
}

// [... x1 x2 x3] -> [... x2 x3 x1]
func opcodeRot(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.RotN(1)
}

func opcodeSwap(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.SwapN(1)
}

// [... x1 x2] -> [... x2 x1 x2]
func opcodeTuck(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.Tuck()
}

// opcodeSize pushes the byte length of the top item without removing it.
func opcodeSize(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}

	vm.dstack.PushInt(scriptNum(len(so)))
	return nil
}

// opcodeEqual pops two items and pushes whether they are byte-for-byte equal.
func opcodeEqual(op *opcode, data []byte, vm *Engine) error {
	a, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	b, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	vm.dstack.PushBool(bytes.Equal(a, b))
	return nil
}

// opcodeEqualVerify is OP_EQUAL followed by OP_VERIFY, failing with
// ErrEqualVerify.
func opcodeEqualVerify(op *opcode, data []byte, vm *Engine) error {
	if err := opcodeEqual(op, data, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrEqualVerify)
}

// unaryNumOp pops a single number from the data stack, applies fn to it and
// pushes the result.
func unaryNumOp(vm *Engine, fn func(scriptNum) scriptNum) error {
	m, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	vm.dstack.PushInt(fn(m))
	return nil
}

// binaryNumOp pops two numbers from the data stack, applies fn to them with
// the deeper item first and pushes the result.
func binaryNumOp(vm *Engine, fn func(a, b scriptNum) scriptNum) error {
	v0, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	vm.dstack.PushInt(fn(v1, v0))
	return nil
}

// boolNum converts a boolean to the script number 0 or 1.
func boolNum(b bool) scriptNum {
	if b {
		return 1
	}
	return 0
}

func opcode1Add(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum { return m + 1 })
}

func opcode1Sub(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum { return m - 1 })
}

func opcodeNegate(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum { return -m })
}

func opcodeAbs(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum {
		if m < 0 {
			return -m
		}
		return m
	})
}

// opcodeNot pushes 1 for a numeric zero and 0 otherwise.  The operand is decoded
// as a number rather than a boolean, so it is limited to four bytes.
func opcodeNot(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum { return boolNum(m == 0) })
}

// opcode0NotEqual pushes 0 for a numeric zero and 1 otherwise.
func opcode0NotEqual(op *opcode, data []byte, vm *Engine) error {
	return unaryNumOp(vm, func(m scriptNum) scriptNum { return boolNum(m != 0) })
}

func opcodeAdd(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return a + b })
}

// opcodeSub pushes the second item minus the top item.
func opcodeSub(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return a - b })
}

// opcodeBoolAnd pushes 1 when both numbers are non-zero.
func opcodeBoolAnd(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum {
		return boolNum(a != 0 && b != 0)
	})
}

// opcodeBoolOr pushes 1 when either number is non-zero.
func opcodeBoolOr(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum {
		return boolNum(a != 0 || b != 0)
	})
}

func opcodeNumEqual(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a == b) })
}

// opcodeNumEqualVerify fails with ErrNumEqualVerify unless the numbers match.
func opcodeNumEqualVerify(op *opcode, data []byte, vm *Engine) error {
	if err := opcodeNumEqual(op, data, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrNumEqualVerify)
}

func opcodeNumNotEqual(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a != b) })
}

// The comparison opcodes compare the second item against the top item.
func opcodeLessThan(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a < b) })
}

func opcodeGreaterThan(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a > b) })
}

func opcodeLessThanOrEqual(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a <= b) })
}

func opcodeGreaterThanOrEqual(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum { return boolNum(a >= b) })
}

func opcodeMin(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum {
		if a < b {
			return a
		}
		return b
	})
}

func opcodeMax(op *opcode, data []byte, vm *Engine) error {
	return binaryNumOp(vm, func(a, b scriptNum) scriptNum {
		if a > b {
			return a
		}
		return b
	})
}

// opcodeWithin pops max, min and x, then pushes whether min <= x < max.
func opcodeWithin(op *opcode, data []byte, vm *Engine) error {
	maxVal, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	minVal, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	vm.dstack.PushBool(x >= minVal && x < maxVal)
	return nil
}

func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// hashTopItem replaces the top item of the data stack with its digest as
// computed by fn.
func hashTopItem(vm *Engine, fn func([]byte) []byte) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	vm.dstack.PushByteArray(fn(buf))
	return nil
}

// The hash opcodes replace the top item with its digest.
func opcodeRipemd160(op *opcode, data []byte, vm *Engine) error {
	return hashTopItem(vm, func(buf []byte) []byte {
		return calcHash(buf, ripemd160.New())
	})
}

func opcodeSha1(op *opcode, data []byte, vm *Engine) error {
	return hashTopItem(vm, func(buf []byte) []byte {
		hash := sha1.Sum(buf)
		return hash[:]
	})
}

func opcodeSha256(op *opcode, data []byte, vm *Engine) error {
	return hashTopItem(vm, func(buf []byte) []byte {
		hash := sha256.Sum256(buf)
		return hash[:]
	})
}

func opcodeHash160(op *opcode, data []byte, vm *Engine) error {
	return hashTopItem(vm, func(buf []byte) []byte {
		hash := sha256.Sum256(buf)
		return calcHash(hash[:], ripemd160.New())
	})
}

func opcodeHash256(op *opcode, data []byte, vm *Engine) error {
	return hashTopItem(vm, chainhash.DoubleHashB)
}

// opcodeCodeSeparator records the offset after itself so later signature checks
// only commit to the script that follows.
func opcodeCodeSeparator(op *opcode, data []byte, vm *Engine) error {
	vm.lastCodeSep = int(vm.tokenizer.ByteIndex())
	return nil
}

// opcodeCheckSig pops a pubkey and a signature and pushes whether the signature
// is valid for the transaction.  The signed script runs from the last executed
// OP_CODESEPARATOR to the end, with the signature itself removed.  Encoding
// errors fail the script under the strict flags; a bad but well formed
// signature only pushes false.
//
// [... sig pubkey] -> [... bool]
func opcodeCheckSig(op *opcode, data []byte, vm *Engine) error {
	pkBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	fullSigBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	// The signature is removed from the script being hashed since a
	// signature can not sign itself.
	subScript := findAndDelete(vm.subScript(), fullSigBytes)

	// Encoding violations are hard failures, even for an empty signature
	// which only skips the signature checks.
	if err := vm.checkSignatureEncoding(fullSigBytes); err != nil {
		return err
	}
	if err := vm.checkPubKeyEncoding(pkBytes); err != nil {
		return err
	}

	valid := vm.verifySignature(fullSigBytes, pkBytes, subScript)
	if !valid {
		log.Tracef("%v", newLogClosure(func() string {
			return fmt.Sprintf("signature %x failed to verify against "+
				"pubkey %x for input %d", fullSigBytes, pkBytes,
				vm.txIdx)
		}))
	}

	vm.dstack.PushBool(valid)
	return nil
}

// opcodeCheckSigVerify is OP_CHECKSIG followed by OP_VERIFY.
func opcodeCheckSigVerify(op *opcode, data []byte, vm *Engine) error {
	if err := opcodeCheckSig(op, data, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrCheckSigVerify)
}

// opcodeCheckMultiSig checks m of n signatures against the pubkeys in order.
// Each signature must match a later pubkey than the previous one, and the
// scan stops early once the remaining keys are too few.  One extra item below
// the signatures is consumed, and must be empty under ScriptStrictMultiSig.
//
// [... dummy sig... m pubkey... n] -> [... bool]
func opcodeCheckMultiSig(op *opcode, data []byte, vm *Engine) error {
	numKeys, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}

	numPubKeys := int(numKeys.Int32())
	if numPubKeys < 0 {
		str := fmt.Sprintf("number of pubkeys %d is negative",
			numPubKeys)
		return scriptError(ErrInvalidPubKeyCount, str)
	}
	if numPubKeys > MaxPubKeysPerMultiSig {
		str := fmt.Sprintf("too many pubkeys: %d > %d",
			numPubKeys, MaxPubKeysPerMultiSig)
		return scriptError(ErrInvalidPubKeyCount, str)
	}
	vm.numOps += numPubKeys
	if vm.numOps > MaxOpsPerScript {
		str := fmt.Sprintf("exceeded max operation limit of %d",
			MaxOpsPerScript)
		return scriptError(ErrTooManyOperations, str)
	}

	pubKeys := make([][]byte, 0, numPubKeys)
	for i := 0; i < numPubKeys; i++ {
		pubKey, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		pubKeys = append(pubKeys, pubKey)
	}

	numSigs, err := vm.dstack.PopInt()
	if err != nil {
		return err
	}
	numSignatures := int(numSigs.Int32())
	if numSignatures < 0 {
		str := fmt.Sprintf("number of signatures %d is negative",
			numSignatures)
		return scriptError(ErrInvalidSignatureCount, str)
	}
	if numSignatures > numPubKeys {
		str := fmt.Sprintf("more signatures than pubkeys: %d > %d",
			numSignatures, numPubKeys)
		return scriptError(ErrInvalidSignatureCount, str)
	}

	signatures := make([][]byte, 0, numSignatures)
	for i := 0; i < numSignatures; i++ {
		signature, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		signatures = append(signatures, signature)
	}

	// Consensus consumes one extra item below the signatures.
	dummy, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	// The extra item is otherwise unchecked and therefore malleable.
	if vm.hasFlag(ScriptStrictMultiSig) && len(dummy) != 0 {
		str := fmt.Sprintf("multisig dummy argument has length %d "+
			"instead of 0", len(dummy))
		return scriptError(ErrSigNullDummy, str)
	}

	// Get script starting from the most recent OP_CODESEPARATOR and remove
	// every signature from it since a signature can not sign itself.
	script := vm.subScript()
	for _, sig := range signatures {
		script = findAndDelete(script, sig)
	}

	// Signatures and keys were popped top first, which is also the order
	// they are matched in.  Each signature must match a key that comes after
	// the key matched by the previous signature.
	success := true
	sigIdx, keyIdx := 0, 0
	for success && numSignatures > 0 {
		sig := signatures[sigIdx]
		pubKey := pubKeys[keyIdx]

		if err := vm.checkSignatureEncoding(sig); err != nil {
			return err
		}
		if err := vm.checkPubKeyEncoding(pubKey); err != nil {
			return err
		}

		if vm.verifySignature(sig, pubKey, script) {
			sigIdx++
			numSignatures--
		}
		keyIdx++
		numPubKeys--

		// Fail early when there are not enough keys left to satisfy the
		// remaining signatures.
		if numSignatures > numPubKeys {
			success = false
		}
	}

	vm.dstack.PushBool(success)
	return nil
}

func opcodeCheckMultiSigVerify(op *opcode, data []byte, vm *Engine) error {
	if err := opcodeCheckMultiSig(op, data, vm); err != nil {
		return err
	}
	return abstractVerify(op, vm, ErrCheckMultiSigVerify)
}

// verifySignature reports whether the full signature, including its trailing
// hash type byte, is a valid signature by the public key over the signature
// hash computed with the passed script.  Any parse failure is reported as an
// invalid signature.  Encoding rules must already have been enforced.
func (vm *Engine) verifySignature(fullSig, pkBytes, script []byte) bool {
	if len(fullSig) == 0 {
		return false
	}

	pubKey, err := parsePubKey(pkBytes)
	if err != nil {
		return false
	}

	hashType := SigHashType(fullSig[len(fullSig)-1])
	sigBytes := fullSig[:len(fullSig)-1]

	var signature *ecdsa.Signature
	if vm.hasFlag(ScriptVerifyStrictEncoding) ||
		vm.hasFlag(ScriptVerifyDERSignatures) ||
		vm.hasFlag(ScriptVerifyLowS) {

		signature, err = ecdsa.ParseDERSignature(sigBytes)
	} else {
		signature, err = ecdsa.ParseSignature(sigBytes)
	}
	if err != nil {
		return false
	}

	var sigHash chainhash.Hash
	copy(sigHash[:], calcSignatureHash(script, hashType, &vm.tx, vm.txIdx))

	if vm.sigCache != nil && vm.sigCache.Exists(sigHash, fullSig, pkBytes) {
		return true
	}

	valid := signature.Verify(sigHash[:], pubKey)
	if valid && vm.sigCache != nil {
		vm.sigCache.Add(sigHash, fullSig, pkBytes)
	}
	return valid
}
