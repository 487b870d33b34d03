// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sampleconfig

// FileContents is a string containing the commented example config for
// txverify.
const FileContents = `[Application Options]

; ------------------------------------------------------------------------------
; Verification settings
; ------------------------------------------------------------------------------

; Comma separated script verification flags used when verifying a single
; transaction given with --tx.  The supported flags are P2SH, STRICTENC, DERSIG,
; LOW_S, NULLDUMMY, SIGPUSHONLY, MINIMALDATA, DISCOURAGE_UPGRADABLE_NOPS,
; CLEANSTACK and CHECKLOCKTIMEVERIFY.  Use NONE for consensus rules prior to
; pay-to-script-hash.  Fixture files carry their own flags.
; flags=P2SH

; Verify --tx with all of the standard policy flags instead of the flags above.
; standard=1

; Expected outcome of every transaction in the fixture files given with
; --fixtures.  One of valid, invalid or any.
; expect=valid

; The maximum number of entries in the signature verification cache.
; sigcachemaxsize=100000


; ------------------------------------------------------------------------------
; Previous output database
; ------------------------------------------------------------------------------

; Directory of a previous output database consulted for outputs not given with
; --prevout.  Environment variables are expanded so they may be used.
; utxodb=~/.txverify/utxo

; Store the outputs of every valid transaction given with --tx in the database
; above so later transactions may spend them.  The database is created when it
; does not exist yet.
; addoutputs=1


; ------------------------------------------------------------------------------
; Debug
; ------------------------------------------------------------------------------

; Debug logging level.
; Valid levels are {trace, debug, info, warn, error, critical}
; You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set
; log level for individual subsystems.  Use txverify --debuglevel=show to list
; available subsystems.
; debuglevel=info

; The directory to store log files.
; logdir=~/.txverify/logs

; Only log to standard output.
; nologfile=1
`
