// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcverify/blockchain"
	"github.com/btcsuite/btcverify/internal/log"
	"github.com/btcsuite/btcverify/internal/sampleconfig"
	"github.com/btcsuite/btcverify/internal/version"
	"github.com/btcsuite/btcverify/txscript"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename  = "txverify.conf"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "txverify.log"
	defaultLogLevel        = "info"
	defaultScriptFlags     = "P2SH"
	defaultSigCacheMaxSize = 100000
	defaultExpect          = expectValid
)

// Valid values for the expect option.
const (
	expectValid   = "valid"
	expectInvalid = "invalid"
	expectAny     = "any"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("txverify", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for txverify.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion     bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile      string   `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir          string   `long:"logdir" description:"Directory to log output"`
	NoLogFile       bool     `long:"nologfile" description:"Only log to standard output"`
	DebugLevel      string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Fixtures        []string `short:"f" long:"fixtures" description:"JSON fixture file of transactions to verify (may be repeated)"`
	Expect          string   `long:"expect" description:"Expected outcome of every fixture {valid, invalid, any}"`
	Tx              string   `short:"t" long:"tx" description:"Hex encoded transaction to verify"`
	PrevOuts        []string `short:"p" long:"prevout" description:"Output spent by --tx given as txid:index:script where script is in assembly form or one of p2sh:<redeem script>, p2pkh:<pubkey hex>, multisig:<required>:<pubkey hex>,... (may be repeated)"`
	UtxoDB          string   `long:"utxodb" description:"Directory of a previous output database consulted for outputs not given with --prevout"`
	AddOutputs      bool     `long:"addoutputs" description:"Store the outputs of a valid --tx in the --utxodb database"`
	ScriptFlags     string   `long:"flags" description:"Comma separated script verification flags used for --tx (e.g. P2SH,STRICTENC) -- Use NONE for no flags"`
	Standard        bool     `long:"standard" description:"Verify --tx with the standard policy flags instead of --flags"`
	SigCacheMaxSize uint     `long:"sigcachemaxsize" description:"The maximum number of entries in the signature verification cache"`

	verifyFlags txscript.ScriptFlags
	prevOuts    blockchain.PrevOutputMap
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// createDefaultConfigFile writes the sample configuration to destinationPath,
// creating its directory as needed.
func createDefaultConfigFile(destinationPath string) error {
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(destinationPath, []byte(sampleconfig.FileContents),
		0600)
}

// Prefixes of the templated previous output script forms.
const (
	scriptPrefixP2SH     = "p2sh:"
	scriptPrefixP2PKH    = "p2pkh:"
	scriptPrefixMultiSig = "multisig:"
)

// parsePkScript parses a previous output script.  Besides the assembly form
// accepted by txscript.Assemble, the following templates are accepted:
//
//	p2sh:<redeem script assembly>
//	p2pkh:<hex public key>
//	multisig:<required>:<hex public key>,<hex public key>,...
func parsePkScript(text string) ([]byte, error) {
	switch {
	case strings.HasPrefix(text, scriptPrefixP2SH):
		redeem, err := txscript.Assemble(strings.TrimPrefix(text,
			scriptPrefixP2SH))
		if err != nil {
			return nil, err
		}
		return txscript.PayToScriptHashScript(redeem)

	case strings.HasPrefix(text, scriptPrefixP2PKH):
		pubKey, err := hex.DecodeString(strings.TrimPrefix(text,
			scriptPrefixP2PKH))
		if err != nil {
			return nil, err
		}
		return txscript.PayToPubKeyHashScript(pubKey)

	case strings.HasPrefix(text, scriptPrefixMultiSig):
		parts := strings.SplitN(strings.TrimPrefix(text,
			scriptPrefixMultiSig), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("multisig script is not in the " +
				"form required:pubkey,pubkey,...")
		}
		required, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, err
		}
		var pubKeys [][]byte
		for _, keyHex := range strings.Split(parts[1], ",") {
			pubKey, err := hex.DecodeString(keyHex)
			if err != nil {
				return nil, err
			}
			pubKeys = append(pubKeys, pubKey)
		}
		return txscript.MultiSigScript(pubKeys, required)
	}

	return txscript.Assemble(text)
}

// parsePrevOut parses a previous output given as txid:index:script.  The
// script is in one of the forms accepted by parsePkScript and may itself
// contain colons.
func parsePrevOut(s string) (wire.OutPoint, *wire.TxOut, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return wire.OutPoint{}, nil, fmt.Errorf("previous output %q "+
			"is not in the form txid:index:script", s)
	}

	hash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return wire.OutPoint{}, nil, fmt.Errorf("previous output %q "+
			"has an invalid txid: %w", s, err)
	}

	// An index of -1 refers to the maximum index.
	index, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || index < -1 || index > int64(^uint32(0)) {
		return wire.OutPoint{}, nil, fmt.Errorf("previous output %q "+
			"has an invalid index", s)
	}

	pkScript, err := parsePkScript(parts[2])
	if err != nil {
		return wire.OutPoint{}, nil, fmt.Errorf("previous output %q "+
			"has an invalid script: %w", s, err)
	}

	op := wire.NewOutPoint(hash, uint32(index))
	return *op, wire.NewTxOut(0, pkScript), nil
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in txverify functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile:      defaultConfigFile,
		LogDir:          defaultLogDir,
		DebugLevel:      defaultLogLevel,
		Expect:          defaultExpect,
		ScriptFlags:     defaultScriptFlags,
		SigCacheMaxSize: defaultSigCacheMaxSize,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// Create the default config file on first use.
	if preCfg.ConfigFile == defaultConfigFile && !fileExists(defaultConfigFile) {
		err := createDefaultConfigFile(defaultConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a default config "+
				"file: %v\n", err)
		}
	}

	// Load additional config from file.  A missing config file is only an
	// error when it was explicitly specified.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile != defaultConfigFile {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n", err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if cfg.UtxoDB != "" {
		cfg.UtxoDB = cleanAndExpandPath(cfg.UtxoDB)
	}
	for i, path := range cfg.Fixtures {
		cfg.Fixtures[i] = cleanAndExpandPath(path)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := log.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", "loadConfig", err.Error())
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Exactly one of the fixture and single transaction modes must be
	// selected.
	if (len(cfg.Fixtures) == 0) == (cfg.Tx == "") {
		str := "%s: exactly one of --fixtures or --tx must be specified"
		err := fmt.Errorf(str, "loadConfig")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate the expected fixture outcome.
	switch cfg.Expect {
	case expectValid, expectInvalid, expectAny:
	default:
		str := "%s: the specified expectation [%v] is invalid -- " +
			"supported values %v"
		err := fmt.Errorf(str, "loadConfig", cfg.Expect,
			[]string{expectValid, expectInvalid, expectAny})
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Choose the script verification flags.
	if cfg.Standard {
		cfg.verifyFlags = txscript.StandardVerifyFlags
	} else {
		cfg.verifyFlags, err = txscript.ParseScriptFlags(cfg.ScriptFlags)
		if err != nil {
			err := fmt.Errorf("%s: %v", "loadConfig", err)
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
	}

	// Parse the previous outputs given on the command line.
	cfg.prevOuts = make(blockchain.PrevOutputMap, len(cfg.PrevOuts))
	for _, s := range cfg.PrevOuts {
		op, txOut, err := parsePrevOut(s)
		if err != nil {
			err := fmt.Errorf("%s: %v", "loadConfig", err)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
		cfg.prevOuts[op] = txOut
	}

	// Storing outputs requires a database.
	if cfg.AddOutputs && cfg.UtxoDB == "" {
		str := "%s: --addoutputs requires --utxodb"
		err := fmt.Errorf(str, "loadConfig")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
