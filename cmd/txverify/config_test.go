// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/internal/sampleconfig"
	"github.com/btcsuite/btcverify/txscript"
	"github.com/stretchr/testify/require"
)

// TestParsePrevOut ensures previous outputs given on the command line are
// parsed as expected.
func TestParsePrevOut(t *testing.T) {
	t.Parallel()

	const txid = "0000000000000000000000000000000000000000000000000000000000000100"
	hash, err := chainhash.NewHashFromStr(txid)
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     string
		op     wire.OutPoint
		script []byte
		valid  bool
	}{{
		name:   "simple",
		in:     txid + ":0:1",
		op:     wire.OutPoint{Hash: *hash, Index: 0},
		script: []byte{txscript.OP_TRUE},
		valid:  true,
	}, {
		name:   "index -1",
		in:     txid + ":-1:DUP HASH160",
		op:     wire.OutPoint{Hash: *hash, Index: ^uint32(0)},
		script: []byte{txscript.OP_DUP, txscript.OP_HASH160},
		valid:  true,
	}, {
		name:   "empty script",
		in:     txid + ":3:",
		op:     wire.OutPoint{Hash: *hash, Index: 3},
		script: []byte{},
		valid:  true,
	}, {
		name: "missing script",
		in:   txid + ":0",
	}, {
		name: "bad txid",
		in:   "zz:0:1",
	}, {
		name: "index too small",
		in:   txid + ":-2:1",
	}, {
		name: "index too large",
		in:   txid + ":4294967296:1",
	}, {
		name: "bad script",
		in:   txid + ":0:NOTANOPCODE",
	}}

	for _, test := range tests {
		op, txOut, err := parsePrevOut(test.in)
		if !test.valid {
			require.Error(t, err, test.name)
			continue
		}
		require.NoError(t, err, test.name)
		require.Equal(t, test.op, op, test.name)
		require.Len(t, txOut.PkScript, len(test.script), test.name)
		if len(test.script) > 0 {
			require.Equal(t, test.script, txOut.PkScript, test.name)
		}
	}
}

// TestParsePkScript ensures the templated previous output script forms build
// the same scripts as the txscript helpers.
func TestParsePkScript(t *testing.T) {
	t.Parallel()

	const pubKeyHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	pubKey, err := hex.DecodeString(pubKeyHex)
	require.NoError(t, err)

	p2sh, err := txscript.PayToScriptHashScript([]byte{txscript.OP_TRUE})
	require.NoError(t, err)
	p2pkh, err := txscript.PayToPubKeyHashScript(pubKey)
	require.NoError(t, err)
	multiSig, err := txscript.MultiSigScript([][]byte{pubKey, pubKey}, 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"assembly", "DUP HASH160", []byte{txscript.OP_DUP, txscript.OP_HASH160}},
		{"p2sh", "p2sh:1", p2sh},
		{"p2pkh", "p2pkh:" + pubKeyHex, p2pkh},
		{"multisig", "multisig:1:" + pubKeyHex + "," + pubKeyHex, multiSig},
	}
	for _, test := range tests {
		got, err := parsePkScript(test.in)
		require.NoError(t, err, test.name)
		require.Equal(t, test.want, got, test.name)
	}
	require.Equal(t, txscript.ScriptHashTy, txscript.GetScriptClass(p2sh))
	require.Equal(t, txscript.MultiSigTy, txscript.GetScriptClass(multiSig))

	invalid := []string{
		"p2sh:NOTANOPCODE",
		"p2pkh:zz",
		"multisig:1",
		"multisig:x:" + pubKeyHex,
		"multisig:1:zz",
		"multisig:3:" + pubKeyHex + "," + pubKeyHex,
	}
	for _, in := range invalid {
		_, err := parsePkScript(in)
		require.Error(t, err, in)
	}
}

// TestCleanAndExpandPath ensures environment variables are expanded and paths
// are cleaned.
func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("TXVERIFY_TEST_DIR", "/tmp/txverify")

	require.Equal(t, "/tmp/txverify/db",
		cleanAndExpandPath("$TXVERIFY_TEST_DIR/./db/"))
	require.Equal(t, filepath.Join(filepath.Dir(defaultHomeDir), "data"),
		cleanAndExpandPath("~/data"))
}

// TestLoadConfig ensures command line and config file options are applied
// and invalid combinations are rejected.
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	confFile := filepath.Join(dir, "txverify.conf")
	conf := "[Application Options]\nflags=P2SH,STRICTENC\nexpect=invalid\n"
	require.NoError(t, os.WriteFile(confFile, []byte(conf), 0600))

	const txid = "0000000000000000000000000000000000000000000000000000000000000100"

	cfg, _, err := loadConfig([]string{"-C", confFile, "--nologfile",
		"--tx", "00", "--prevout", txid + ":1:1"})
	require.NoError(t, err)
	require.Equal(t, expectInvalid, cfg.Expect)
	require.Equal(t, txscript.ScriptBip16|txscript.ScriptVerifyStrictEncoding,
		cfg.verifyFlags)
	require.Len(t, cfg.prevOuts, 1)

	// Command line options override the config file.
	cfg, _, err = loadConfig([]string{"-C", confFile, "--nologfile",
		"--fixtures", "a.json", "--flags", "NONE", "--expect", "any"})
	require.NoError(t, err)
	require.Equal(t, expectAny, cfg.Expect)
	require.Equal(t, txscript.ScriptFlags(0), cfg.verifyFlags)
	require.Equal(t, []string{"a.json"}, cfg.Fixtures)

	cfg, _, err = loadConfig([]string{"-C", confFile, "--nologfile",
		"--tx", "00", "--standard"})
	require.NoError(t, err)
	require.Equal(t, txscript.StandardVerifyFlags, cfg.verifyFlags)

	invalid := [][]string{
		{"--nologfile"},
		{"--nologfile", "--tx", "00", "--fixtures", "a.json"},
		{"--nologfile", "--tx", "00", "--expect", "maybe"},
		{"--nologfile", "--tx", "00", "--flags", "P2SH,BOGUS"},
		{"--nologfile", "--tx", "00", "--prevout", "bogus"},
		{"--nologfile", "--tx", "00", "--addoutputs"},
		{"--nologfile", "--tx", "00", "--debuglevel", "loud"},
	}
	for _, args := range invalid {
		args = append([]string{"-C", confFile}, args...)
		_, _, err := loadConfig(args)
		require.Error(t, err, "%v", args)
	}

	// An explicitly specified config file must exist.
	_, _, err = loadConfig([]string{"-C", filepath.Join(dir, "missing.conf"),
		"--tx", "00"})
	require.Error(t, err)
}

// TestSampleConfig ensures the sample config file written on first use parses
// and leaves every option at its default.
func TestSampleConfig(t *testing.T) {
	confFile := filepath.Join(t.TempDir(), "conf", "txverify.conf")
	require.False(t, fileExists(confFile))
	require.NoError(t, createDefaultConfigFile(confFile))
	require.True(t, fileExists(confFile))

	contents, err := os.ReadFile(confFile)
	require.NoError(t, err)
	require.Equal(t, sampleconfig.FileContents, string(contents))

	cfg, _, err := loadConfig([]string{"-C", confFile, "--nologfile",
		"--fixtures", "a.json"})
	require.NoError(t, err)
	require.Equal(t, defaultExpect, cfg.Expect)
	require.Equal(t, txscript.ScriptBip16, cfg.verifyFlags)
	require.Equal(t, uint(defaultSigCacheMaxSize), cfg.SigCacheMaxSize)
}
