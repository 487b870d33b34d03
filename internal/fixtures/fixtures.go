// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures parses transaction verification corpora of the form used
// by the tx_valid.json and tx_invalid.json test vectors.
//
// Each element of the top level array is either a comment:
//
//	["this is a comment"]
//
// or a test vector:
//
//	[[[prevout hash, prevout index, prevout scriptPubKey], ...],
//	 serializedTransaction, verifyFlags]
//
// The prevout index -1 stands for the maximum uint32 value and the public key
// scripts are written in the txscript assembly language.
package fixtures

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/txscript"
)

// Fixture is a single parsed test vector.
type Fixture struct {
	// Row is the index of the vector within the top level array.
	Row int

	// Comment holds the comment rows which immediately preceded the
	// vector, joined with spaces.
	Comment string

	// PrevScripts maps each outpoint listed by the vector to its public
	// key script.
	PrevScripts map[wire.OutPoint][]byte

	Tx    *wire.MsgTx
	Flags txscript.ScriptFlags
}

// FetchPrevOutput returns a zero value output carrying the public key script
// listed for the passed outpoint, or nil when the vector does not list it.
func (f *Fixture) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	pkScript, ok := f.PrevScripts[op]
	if !ok {
		return nil
	}
	return wire.NewTxOut(0, pkScript)
}

// vecF64ToUint32 properly handles conversion of float64s read from the JSON
// test data to unsigned 32-bit integers.  Some of the test data uses -1 as a
// shortcut to mean max uint32 and direct conversion of a negative float to an
// unsigned int is implementation dependent.  Converting to a 32-bit signed
// integer first results in the expected value on all platforms.
func vecF64ToUint32(f float64) uint32 {
	return uint32(int32(f))
}

// parsePrevOut parses a single [hash, index, script] element.
func parsePrevOut(v interface{}) (wire.OutPoint, []byte, error) {
	input, ok := v.([]interface{})
	if !ok || len(input) != 3 {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout is not a " +
			"[hash, index, script] array")
	}

	hashStr, ok := input[0].(string)
	if !ok {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout hash is not " +
			"a string")
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout hash: %w", err)
	}

	idxf, ok := input[1].(float64)
	if !ok {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout index is not " +
			"a number")
	}

	scriptText, ok := input[2].(string)
	if !ok {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout script is " +
			"not a string")
	}
	pkScript, err := txscript.Assemble(scriptText)
	if err != nil {
		return wire.OutPoint{}, nil, fmt.Errorf("prevout script %q: %w",
			scriptText, err)
	}

	return *wire.NewOutPoint(hash, vecF64ToUint32(idxf)), pkScript, nil
}

// ParseTx decodes a hex encoded transaction in the legacy serialization
// format.
func ParseTx(txHex string) (*wire.MsgTx, error) {
	serialized, err := hex.DecodeString(strings.TrimSpace(txHex))
	if err != nil {
		return nil, err
	}

	// The legacy format is forced since a transaction without any inputs
	// would otherwise be mistaken for the segwit marker.
	var msgTx wire.MsgTx
	if err := msgTx.DeserializeNoWitness(bytes.NewReader(serialized)); err != nil {
		return nil, err
	}
	return &msgTx, nil
}

// parseVector parses a single test vector row.
func parseVector(row []interface{}) (*Fixture, error) {
	if len(row) != 3 {
		return nil, fmt.Errorf("bad length %d", len(row))
	}
	inputs, ok := row[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("prevouts are not an array")
	}

	prevScripts := make(map[wire.OutPoint][]byte, len(inputs))
	for j, input := range inputs {
		op, pkScript, err := parsePrevOut(input)
		if err != nil {
			return nil, fmt.Errorf("prevout %d: %w", j, err)
		}
		prevScripts[op] = pkScript
	}

	txHex, ok := row[1].(string)
	if !ok {
		return nil, fmt.Errorf("transaction is not a string")
	}
	tx, err := ParseTx(txHex)
	if err != nil {
		return nil, fmt.Errorf("transaction: %w", err)
	}

	flagsStr, ok := row[2].(string)
	if !ok {
		return nil, fmt.Errorf("flags are not a string")
	}
	flags, err := txscript.ParseScriptFlags(flagsStr)
	if err != nil {
		return nil, err
	}

	return &Fixture{PrevScripts: prevScripts, Tx: tx, Flags: flags}, nil
}

// Parse reads a fixture corpus from r.  Comment rows are attached to the
// vector which follows them.
func Parse(r io.Reader) ([]*Fixture, error) {
	var rows [][]interface{}
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}

	var fixtures []*Fixture
	var comments []string
	for i, row := range rows {
		if len(row) == 1 {
			if comment, ok := row[0].(string); ok {
				comments = append(comments, comment)
				continue
			}
		}

		f, err := parseVector(row)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		f.Row = i
		f.Comment = strings.Join(comments, " ")
		comments = comments[:0]
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// Load reads and parses the fixture corpus stored at path.
func Load(path string) ([]*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}
