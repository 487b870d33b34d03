// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"
)

// ScriptFlags is a bitmask defining additional operations or tests that will
// be done when executing a script pair.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 threshold has passed and thus
	// pay-to-script hash transactions will be fully validated.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyStrictEncoding defines that signature scripts and
	// public keys must follow the strict encoding requirements.
	ScriptVerifyStrictEncoding

	// ScriptVerifyDERSignatures defines that signatures are required
	// to comply with the DER format.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS defines that signatures are required to comply with
	// the DER format and whose S value is <= order / 2.  This is rule 5
	// of BIP0062.
	ScriptVerifyLowS

	// ScriptStrictMultiSig defines whether to verify the stack item
	// used by CHECKMULTISIG is zero length.
	ScriptStrictMultiSig

	// ScriptVerifySigPushOnly defines that signature scripts must contain
	// only pushed data.  This is rule 2 of BIP0062.
	ScriptVerifySigPushOnly

	// ScriptVerifyMinimalData defines that signatures must use the smallest
	// push operator.  This is both rules 3 and 4 of BIP0062.
	ScriptVerifyMinimalData

	// ScriptDiscourageUpgradableNops defines whether to verify that
	// NOP1 through NOP10 are reserved for future soft-fork upgrades.  This
	// flag must not be used for consensus critical code nor applied to
	// blocks as this flag is only for stricter standard transaction
	// checks.  This flag is only applied when the above opcodes are
	// executed.
	ScriptDiscourageUpgradableNops

	// ScriptVerifyCleanStack defines that the stack must contain only
	// one stack element after evaluation and that the element must be
	// true if interpreted as a boolean.  This is rule 6 of BIP0062.
	// This flag should never be used without the ScriptBip16 flag.
	ScriptVerifyCleanStack

	// ScriptVerifyCheckLockTimeVerify defines whether to verify that
	// a transaction output is spendable based on the locktime.
	// This is BIP0065.
	ScriptVerifyCheckLockTimeVerify
)

// ScriptFlagsNone is the empty flag set.
const ScriptFlagsNone ScriptFlags = 0

// StandardVerifyFlags are the script flags which are used when executing
// transaction scripts to enforce additional checks which are required for the
// script to be considered standard.  These checks help reduce issues related
// to transaction malleability as well as allow pay-to-script hash
// transactions.  Note these flags are different than what is required for the
// consensus rules in that they are more strict.
const StandardVerifyFlags = ScriptBip16 |
	ScriptVerifyStrictEncoding |
	ScriptVerifyDERSignatures |
	ScriptVerifyLowS |
	ScriptStrictMultiSig |
	ScriptVerifySigPushOnly |
	ScriptVerifyMinimalData |
	ScriptDiscourageUpgradableNops |
	ScriptVerifyCleanStack |
	ScriptVerifyCheckLockTimeVerify

// scriptFlagNames maps every defined flag bit to its name in the order the
// bits are defined.
var scriptFlagNames = []struct {
	flag ScriptFlags
	name string
}{
	{ScriptBip16, "P2SH"},
	{ScriptVerifyStrictEncoding, "STRICTENC"},
	{ScriptVerifyDERSignatures, "DERSIG"},
	{ScriptVerifyLowS, "LOW_S"},
	{ScriptStrictMultiSig, "NULLDUMMY"},
	{ScriptVerifySigPushOnly, "SIGPUSHONLY"},
	{ScriptVerifyMinimalData, "MINIMALDATA"},
	{ScriptDiscourageUpgradableNops, "DISCOURAGE_UPGRADABLE_NOPS"},
	{ScriptVerifyCleanStack, "CLEANSTACK"},
	{ScriptVerifyCheckLockTimeVerify, "CHECKLOCKTIMEVERIFY"},
}

// scriptFlagsByName is the reverse lookup of scriptFlagNames.
var scriptFlagsByName = func() map[string]ScriptFlags {
	m := map[string]ScriptFlags{"NONE": ScriptFlagsNone}
	for _, f := range scriptFlagNames {
		m[f.name] = f.flag
	}
	return m
}()

// ParseScriptFlags parses a comma separated list of flag names such as
// "P2SH,STRICTENC" into the flag set they name.  An empty string or "NONE"
// is the empty set.  An unknown name results in an error with the
// ErrUnknownFlag code.
func ParseScriptFlags(s string) (ScriptFlags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ScriptFlagsNone, nil
	}

	var flags ScriptFlags
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		flag, ok := scriptFlagsByName[name]
		if !ok {
			str := fmt.Sprintf("unknown script verification flag %q",
				name)
			return 0, scriptError(ErrUnknownFlag, str)
		}
		flags |= flag
	}
	return flags, nil
}

// String returns the flag set as the comma separated list of names accepted by
// ParseScriptFlags.  Undefined bits are rendered in hex.
func (f ScriptFlags) String() string {
	if f == ScriptFlagsNone {
		return "NONE"
	}

	var names []string
	remaining := f
	for _, sf := range scriptFlagNames {
		if f&sf.flag == sf.flag {
			names = append(names, sf.name)
			remaining &^= sf.flag
		}
	}
	if remaining != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(remaining)))
	}
	return strings.Join(names, ",")
}
