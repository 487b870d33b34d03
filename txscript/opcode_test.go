// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpcodeDisabled tests the opcodeDisabled function manually because all
// disabled opcodes result in a script execution failure before dispatch, so
// the function is not called under normal circumstances.
func TestOpcodeDisabled(t *testing.T) {
	t.Parallel()

	tests := []byte{OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT, OP_INVERT,
		OP_AND, OP_OR, OP_XOR, OP_2MUL, OP_2DIV, OP_MUL, OP_DIV, OP_MOD,
		OP_LSHIFT, OP_RSHIFT,
	}
	for _, opcodeVal := range tests {
		op := &opcodeArray[opcodeVal]
		require.Equal(t, ClassDisabled, op.class, op.name)
		require.True(t, isOpcodeDisabled(opcodeVal), op.name)

		err := opcodeDisabled(op, nil, nil)
		require.Truef(t, IsErrorCode(err, ErrDisabledOpcode), "%s: %v",
			op.name, err)
	}
}

// TestOpcodeNames ensures the opcode table names every value, including the
// generated ranges and the undefined opcodes.
func TestOpcodeNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op   byte
		name string
	}{
		{OP_0, "OP_0"},
		{OP_DATA_1, "OP_DATA_1"},
		{OP_DATA_75, "OP_DATA_75"},
		{OP_PUSHDATA4, "OP_PUSHDATA4"},
		{OP_1NEGATE, "OP_1NEGATE"},
		{OP_1, "OP_1"},
		{OP_16, "OP_16"},
		{OP_NOP, "OP_NOP"},
		{OP_NOP1, "OP_NOP1"},
		{OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY"},
		{OP_NOP3, "OP_NOP3"},
		{OP_NOP10, "OP_NOP10"},
		{0xba, "OP_UNKNOWN186"},
		{0xf9, "OP_UNKNOWN249"},
		{OP_SMALLINTEGER, "OP_SMALLINTEGER"},
		{OP_PUBKEYS, "OP_PUBKEYS"},
		{OP_PUBKEYHASH, "OP_PUBKEYHASH"},
		{OP_PUBKEY, "OP_PUBKEY"},
		{OP_INVALIDOPCODE, "OP_INVALIDOPCODE"},
	}

	for _, test := range tests {
		require.Equal(t, test.name, OpcodeName(test.op))
	}
}

// TestOpcodeByName ensures every opcode name maps back to its value along with
// the aliases.
func TestOpcodeByName(t *testing.T) {
	t.Parallel()

	for i := 0; i < 256; i++ {
		op := byte(i)
		got, ok := OpcodeByName[OpcodeName(op)]
		require.Truef(t, ok, "missing %s", OpcodeName(op))
		require.Equal(t, op, got, OpcodeName(op))
	}

	aliases := map[string]byte{
		"OP_FALSE": OP_0,
		"OP_TRUE":  OP_1,
		"OP_NOP2":  OP_CHECKLOCKTIMEVERIFY,
	}
	for name, want := range aliases {
		require.Equal(t, want, OpcodeByName[name], name)
	}
}

// TestOpcodeClasses ensures opcodes are assigned the expected families.
func TestOpcodeClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op    byte
		class OpcodeClass
	}{
		{OP_0, ClassPush},
		{OP_DATA_20, ClassPush},
		{OP_PUSHDATA2, ClassPush},
		{OP_1NEGATE, ClassPush},
		{OP_16, ClassPush},
		{OP_RESERVED, ClassReserved},
		{OP_VER, ClassReserved},
		{OP_VERIF, ClassReserved},
		{OP_NOP, ClassFlowControl},
		{OP_IF, ClassFlowControl},
		{OP_RETURN, ClassFlowControl},
		{OP_NOP1, ClassNop},
		{OP_NOP10, ClassNop},
		{OP_CHECKLOCKTIMEVERIFY, ClassLockTime},
		{OP_TOALTSTACK, ClassStack},
		{OP_SIZE, ClassSplice},
		{OP_EQUAL, ClassBitwise},
		{OP_WITHIN, ClassArithmetic},
		{OP_CHECKMULTISIG, ClassCrypto},
		{OP_CAT, ClassDisabled},
		{0xba, ClassReserved},
	}

	for _, test := range tests {
		require.Equal(t, test.class, OpcodeClassOf(test.op), OpcodeName(test.op))
	}

	require.Equal(t, "flow-control", ClassFlowControl.String())
	require.Equal(t, "Unknown OpcodeClass (200)", OpcodeClass(200).String())
}

// TestOpcodeDisasm tests the print function for all opcodes in both the oneline
// and full modes to ensure it provides the expected disassembly.
func TestOpcodeDisasm(t *testing.T) {
	t.Parallel()

	// First, test the oneline disassembly.
	//
	// The expected strings for the data push opcodes are replaced in the
	// test loops below since they involve repeating bytes.  Also, the
	// OP_NOP# and OP_UNKNOWN# are replaced below too, since it's easier
	// than manually listing them here.
	oneBytes := []byte{0x01}
	oneStr := "01"
	expectedStrings := [256]string{0x00: "0", 0x4f: "-1",
		0x50: "OP_RESERVED", 0x61: "OP_NOP", 0x62: "OP_VER",
		0x63: "OP_IF", 0x64: "OP_NOTIF", 0x65: "OP_VERIF",
		0x66: "OP_VERNOTIF", 0x67: "OP_ELSE", 0x68: "OP_ENDIF",
		0x69: "OP_VERIFY", 0x6a: "OP_RETURN", 0x6b: "OP_TOALTSTACK",
		0x6c: "OP_FROMALTSTACK", 0x6d: "OP_2DROP", 0x6e: "OP_2DUP",
		0x6f: "OP_3DUP", 0x70: "OP_2OVER", 0x71: "OP_2ROT",
		0x72: "OP_2SWAP", 0x73: "OP_IFDUP", 0x74: "OP_DEPTH",
		0x75: "OP_DROP", 0x76: "OP_DUP", 0x77: "OP_NIP",
		0x78: "OP_OVER", 0x79: "OP_PICK", 0x7a: "OP_ROLL",
		0x7b: "OP_ROT", 0x7c: "OP_SWAP", 0x7d: "OP_TUCK",
		0x7e: "OP_CAT", 0x7f: "OP_SUBSTR", 0x80: "OP_LEFT",
		0x81: "OP_RIGHT", 0x82: "OP_SIZE", 0x83: "OP_INVERT",
		0x84: "OP_AND", 0x85: "OP_OR", 0x86: "OP_XOR",
		0x87: "OP_EQUAL", 0x88: "OP_EQUALVERIFY", 0x89: "OP_RESERVED1",
		0x8a: "OP_RESERVED2", 0x8b: "OP_1ADD", 0x8c: "OP_1SUB",
		0x8d: "OP_2MUL", 0x8e: "OP_2DIV", 0x8f: "OP_NEGATE",
		0x90: "OP_ABS", 0x91: "OP_NOT", 0x92: "OP_0NOTEQUAL",
		0x93: "OP_ADD", 0x94: "OP_SUB", 0x95: "OP_MUL", 0x96: "OP_DIV",
		0x97: "OP_MOD", 0x98: "OP_LSHIFT", 0x99: "OP_RSHIFT",
		0x9a: "OP_BOOLAND", 0x9b: "OP_BOOLOR", 0x9c: "OP_NUMEQUAL",
		0x9d: "OP_NUMEQUALVERIFY", 0x9e: "OP_NUMNOTEQUAL",
		0x9f: "OP_LESSTHAN", 0xa0: "OP_GREATERTHAN",
		0xa1: "OP_LESSTHANOREQUAL", 0xa2: "OP_GREATERTHANOREQUAL",
		0xa3: "OP_MIN", 0xa4: "OP_MAX", 0xa5: "OP_WITHIN",
		0xa6: "OP_RIPEMD160", 0xa7: "OP_SHA1", 0xa8: "OP_SHA256",
		0xa9: "OP_HASH160", 0xaa: "OP_HASH256", 0xab: "OP_CODESEPARATOR",
		0xac: "OP_CHECKSIG", 0xad: "OP_CHECKSIGVERIFY",
		0xae: "OP_CHECKMULTISIG", 0xaf: "OP_CHECKMULTISIGVERIFY",
		0xb1: "OP_CHECKLOCKTIMEVERIFY",
		0xfa: "OP_SMALLINTEGER", 0xfb: "OP_PUBKEYS",
		0xfd: "OP_PUBKEYHASH", 0xfe: "OP_PUBKEY",
		0xff: "OP_INVALIDOPCODE",
	}
	for opcodeVal, expectedStr := range expectedStrings {
		var data []byte
		switch {
		// OP_DATA_1 through OP_DATA_75 display the pushed data.
		case opcodeVal >= 0x01 && opcodeVal < 0x4c:
			data = repeatBytes(oneBytes, opcodeVal)
			expectedStr = strings.Repeat(oneStr, opcodeVal)

		// OP_PUSHDATA1.
		case opcodeVal == 0x4c:
			data = repeatBytes(oneBytes, 1)
			expectedStr = strings.Repeat(oneStr, 1)

		// OP_PUSHDATA2.
		case opcodeVal == 0x4d:
			data = repeatBytes(oneBytes, 2)
			expectedStr = strings.Repeat(oneStr, 2)

		// OP_PUSHDATA4.
		case opcodeVal == 0x4e:
			data = repeatBytes(oneBytes, 3)
			expectedStr = strings.Repeat(oneStr, 3)

		// OP_1 through OP_16 display the numbers themselves.
		case opcodeVal >= 0x51 && opcodeVal <= 0x60:
			val := byte(opcodeVal - (0x51 - 1))
			expectedStr = fmt.Sprintf("%d", val)

		// OP_NOP1 through OP_NOP10.
		case opcodeVal >= 0xb0 && opcodeVal <= 0xb9:
			if opcodeVal == 0xb1 {
				break
			}
			val := byte(opcodeVal - (0xb0 - 1))
			expectedStr = fmt.Sprintf("OP_NOP%d", val)

		// OP_UNKNOWN#.
		case opcodeVal >= 0xba && opcodeVal <= 0xf9 || opcodeVal == 0xfc:
			expectedStr = fmt.Sprintf("OP_UNKNOWN%d", opcodeVal)
		}

		var buf strings.Builder
		disasmOpcode(&buf, &opcodeArray[opcodeVal], data, true)
		require.Equalf(t, expectedStr, buf.String(), "op %#x (oneline)",
			opcodeVal)
	}

	// Now, replace the relevant fields and test the full disassembly.
	expectedStrings[0x00] = "OP_0"
	expectedStrings[0x4f] = "OP_1NEGATE"
	for opcodeVal, expectedStr := range expectedStrings {
		var data []byte
		switch {
		// OP_DATA_1 through OP_DATA_75 display the opcode followed by the
		// data.
		case opcodeVal >= 0x01 && opcodeVal < 0x4c:
			data = repeatBytes(oneBytes, opcodeVal)
			expectedStr = fmt.Sprintf("OP_DATA_%d 0x%s", opcodeVal,
				strings.Repeat(oneStr, opcodeVal))

		// OP_PUSHDATA1.
		case opcodeVal == 0x4c:
			data = repeatBytes(oneBytes, 1)
			expectedStr = fmt.Sprintf("OP_PUSHDATA1 0x%02x 0x%s",
				len(data), strings.Repeat(oneStr, 1))

		// OP_PUSHDATA2.
		case opcodeVal == 0x4d:
			data = repeatBytes(oneBytes, 2)
			expectedStr = fmt.Sprintf("OP_PUSHDATA2 0x%04x 0x%s",
				len(data), strings.Repeat(oneStr, 2))

		// OP_PUSHDATA4.
		case opcodeVal == 0x4e:
			data = repeatBytes(oneBytes, 3)
			expectedStr = fmt.Sprintf("OP_PUSHDATA4 0x%08x 0x%s",
				len(data), strings.Repeat(oneStr, 3))

		// OP_1 through OP_16.
		case opcodeVal >= 0x51 && opcodeVal <= 0x60:
			val := byte(opcodeVal - (0x51 - 1))
			expectedStr = fmt.Sprintf("OP_%d", val)

		// OP_NOP1 through OP_NOP10.
		case opcodeVal >= 0xb0 && opcodeVal <= 0xb9:
			if opcodeVal == 0xb1 {
				break
			}
			val := byte(opcodeVal - (0xb0 - 1))
			expectedStr = fmt.Sprintf("OP_NOP%d", val)

		// OP_UNKNOWN#.
		case opcodeVal >= 0xba && opcodeVal <= 0xf9 || opcodeVal == 0xfc:
			expectedStr = fmt.Sprintf("OP_UNKNOWN%d", opcodeVal)
		}

		var buf strings.Builder
		disasmOpcode(&buf, &opcodeArray[opcodeVal], data, false)
		require.Equalf(t, expectedStr, buf.String(), "op %#x (full)",
			opcodeVal)
	}
}

// repeatBytes returns count copies of the passed bytes.
func repeatBytes(b []byte, count int) []byte {
	out := make([]byte, 0, len(b)*count)
	for i := 0; i < count; i++ {
		out = append(out, b...)
	}
	return out
}
