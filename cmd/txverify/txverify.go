// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcverify/database/ldb"
	"github.com/btcsuite/btcverify/internal/limits"
	"github.com/btcsuite/btcverify/internal/log"
	"github.com/btcsuite/btcverify/internal/version"
	"github.com/btcsuite/btcverify/txscript"
)

var (
	cfg     *config
	txvfLog = log.TxvfLog
)

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	// Load configuration and parse command line.
	tcfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	cfg = tcfg

	// Setup logging.
	if !cfg.NoLogFile {
		logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
		if err := log.InitLogRotator(logFile); err != nil {
			return err
		}
		defer log.LogRotator.Close()
	}
	defer os.Stdout.Sync()

	txvfLog.Infof("Version %s", version.String())

	sigCache := txscript.NewSigCache(cfg.SigCacheMaxSize)

	// Verify the fixture corpora when requested.
	if len(cfg.Fixtures) > 0 {
		return verifyFixtureFiles(cfg.Fixtures, cfg.Expect, sigCache)
	}

	// Otherwise verify the single transaction against the outputs given on
	// the command line and those in the database, if any.
	var store *ldb.Store
	if cfg.UtxoDB != "" {
		store, err = ldb.Open(cfg.UtxoDB, cfg.AddOutputs)
		if err != nil {
			return fmt.Errorf("unable to open previous output "+
				"database %s: %w", cfg.UtxoDB, err)
		}
		defer store.Close()
	}

	return verifySingleTx(cfg.Tx, cfg.prevOuts, store, cfg.verifyFlags,
		sigCache, cfg.AddOutputs)
}

func main() {
	// Up some limits.
	if err := limits.SetLimits(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set limits: %v\n", err)
		os.Exit(1)
	}

	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
