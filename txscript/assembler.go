// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TokenKind identifies the kind of a token of the script assembly language.
type TokenKind uint8

// These constants define the kinds of assembly tokens.
const (
	// TokenNumber is a decimal integer.  -1, 0 and 1 through 16 assemble
	// to the small integer opcodes and everything else to the push of the
	// minimal script number encoding.
	TokenNumber TokenKind = iota

	// TokenRawHex is a 0x prefixed hex string which is spliced into the
	// script verbatim.  It is not pushed.
	TokenRawHex

	// TokenOpcode is an opcode mnemonic with or without the OP_ prefix.
	TokenOpcode

	// TokenQuotedString is a single quoted string whose bytes are pushed.
	TokenQuotedString
)

var tokenKindStrings = map[TokenKind]string{
	TokenNumber:       "number",
	TokenRawHex:       "raw hex",
	TokenOpcode:       "opcode",
	TokenQuotedString: "quoted string",
}

// String returns the TokenKind as a human-readable name.
func (k TokenKind) String() string {
	if s, ok := tokenKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown TokenKind (%d)", uint8(k))
}

// maxAssemblyNumber is the largest magnitude accepted for a number token.  The
// engine limits numeric operands far below this, but larger pushes are still
// useful for building scripts which must fail.
const maxAssemblyNumber = math.MaxInt64

// Token is a single lexical element of the script assembly language.  Only the
// field matching Kind is meaningful: Number for TokenNumber, Data for
// TokenRawHex and TokenQuotedString, and Opcode for TokenOpcode.
type Token struct {
	Kind   TokenKind
	Text   string
	Number int64
	Data   []byte
	Opcode byte
}

// lookupOpcode returns the opcode for the passed mnemonic, which may omit the
// OP_ prefix.
func lookupOpcode(name string) (byte, bool) {
	if op, ok := OpcodeByName[name]; ok && strings.HasPrefix(name, "OP_") {
		return op, true
	}
	op, ok := OpcodeByName["OP_"+name]
	return op, ok
}

// isDecimal returns whether the word is an optionally negative run of decimal
// digits.
func isDecimal(word string) bool {
	digits := strings.TrimPrefix(word, "-")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// parseToken classifies a single whitespace delimited word.
func parseToken(word string) (Token, error) {
	switch {
	case isDecimal(word):
		n, err := strconv.ParseInt(word, 10, 64)
		if err != nil || n > maxAssemblyNumber || n < -maxAssemblyNumber {
			str := fmt.Sprintf("number %s is out of range", word)
			return Token{}, scriptError(ErrInvalidAssembly, str)
		}
		return Token{Kind: TokenNumber, Text: word, Number: n}, nil

	case strings.HasPrefix(word, "0x") && len(word) > 2:
		data, err := hex.DecodeString(word[2:])
		if err != nil {
			str := fmt.Sprintf("malformed hex token %s: %v", word, err)
			return Token{}, scriptError(ErrInvalidAssembly, str)
		}
		return Token{Kind: TokenRawHex, Text: word, Data: data}, nil

	case len(word) >= 2 && word[0] == '\'' && word[len(word)-1] == '\'':
		data := []byte(word[1 : len(word)-1])
		return Token{Kind: TokenQuotedString, Text: word, Data: data}, nil
	}

	op, ok := lookupOpcode(word)
	if !ok {
		str := fmt.Sprintf("unknown opcode or malformed token %q", word)
		return Token{}, scriptError(ErrInvalidAssembly, str)
	}
	return Token{Kind: TokenOpcode, Text: word, Opcode: op}, nil
}

// Tokenize splits the passed script assembly text into tokens.  Adjacent raw
// hex tokens are merged into a single token since they are spliced into the
// script together, which allows a push opcode and its data to be written as
// separate hex words.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	for _, word := range strings.Fields(text) {
		token, err := parseToken(word)
		if err != nil {
			return nil, err
		}

		if token.Kind == TokenRawHex && len(tokens) > 0 {
			prev := &tokens[len(tokens)-1]
			if prev.Kind == TokenRawHex {
				prev.Text += " " + token.Text
				prev.Data = append(prev.Data, token.Data...)
				continue
			}
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// Assemble converts the passed script assembly text into the raw script it
// describes.  The language is whitespace separated and consists of decimal
// numbers, 0x prefixed raw hex which is inserted verbatim, single quoted
// strings which are pushed, and opcode mnemonics with an optional OP_ prefix.
//
// For example, "DUP HASH160 0x14 0x89abcdefabbaabbaabbaabbaabbaabbaabbaabba
// EQUALVERIFY CHECKSIG" assembles to a standard pay-to-pubkey-hash script.
func Assemble(text string) ([]byte, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	var script []byte
	for _, token := range tokens {
		switch token.Kind {
		case TokenNumber:
			script = appendMinimalDataPush(script,
				scriptNum(token.Number).Bytes())

		case TokenRawHex:
			script = append(script, token.Data...)

		case TokenQuotedString:
			script = appendDataPush(script, token.Data)

		case TokenOpcode:
			script = append(script, token.Opcode)
		}
	}
	return script, nil
}

// AssemblyString returns the script assembly text for the passed script such
// that Assemble returns the exact same bytes for it.  Small integers are
// rendered as numbers, data pushes as the hex of the push opcode followed by
// the hex of the data, and other opcodes as their mnemonic without the OP_
// prefix.  Undefined opcodes and any trailing bytes which do not parse are
// rendered as raw hex.
func AssemblyString(script []byte) string {
	var words []string
	var prevOffset int32
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		raw := script[prevOffset:tokenizer.ByteIndex()]
		prevOffset = tokenizer.ByteIndex()

		switch {
		case op == OP_0:
			words = append(words, "0")

		case op == OP_1NEGATE:
			words = append(words, "-1")

		case op >= OP_1 && op <= OP_16:
			words = append(words, strconv.Itoa(asSmallInt(op)))

		case op <= OP_PUSHDATA4:
			data := tokenizer.Data()
			header := raw[:len(raw)-len(data)]
			words = append(words, "0x"+hex.EncodeToString(header))
			if len(data) > 0 {
				words = append(words, "0x"+hex.EncodeToString(data))
			}

		case strings.HasPrefix(OpcodeName(op), "OP_UNKNOWN"):
			words = append(words, "0x"+hex.EncodeToString(raw))

		default:
			words = append(words, strings.TrimPrefix(OpcodeName(op), "OP_"))
		}
	}
	if prevOffset < int32(len(script)) {
		words = append(words, "0x"+hex.EncodeToString(script[prevOffset:]))
	}
	return strings.Join(words, " ")
}
