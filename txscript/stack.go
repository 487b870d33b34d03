// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"fmt"
)

// asBool gets the boolean value of the byte array.  Any non-zero byte makes
// the value true, except for a final 0x80 which is the sign bit of a negative
// zero.
func asBool(t []byte) bool {
	for i := range t {
		if t[i] != 0 {
			if i == len(t)-1 && t[i] == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// fromBool encodes true as 0x01 and false as the empty item.
func fromBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return nil
}

// stack is a script data stack.  Items may be shared between slots, so they
// must be copied before being modified.
type stack struct {
	stk               [][]byte
	verifyMinimalData bool
}

func (s *stack) Depth() int32 {
	return int32(len(s.stk))
}

// PushByteArray pushes so onto the stack.
func (s *stack) PushByteArray(so []byte) {
	s.stk = append(s.stk, so)
}

// PushInt pushes the minimal encoding of val.
func (s *stack) PushInt(val scriptNum) {
	s.PushByteArray(val.Bytes())
}

func (s *stack) PushBool(val bool) {
	s.PushByteArray(fromBool(val))
}

// PopByteArray removes and returns the top item.
func (s *stack) PopByteArray() ([]byte, error) {
	return s.nipN(0)
}

// PopInt removes the top item and decodes it as a number of at most four
// bytes, minimally encoded when the stack requires it.
func (s *stack) PopInt() (scriptNum, error) {
	so, err := s.PopByteArray()
	if err != nil {
		return 0, err
	}

	return MakeScriptNum(so, s.verifyMinimalData, defaultScriptNumLen)
}

// PopBool removes the top item and returns its truth value.
func (s *stack) PopBool() (bool, error) {
	so, err := s.PopByteArray()
	if err != nil {
		return false, err
	}

	return asBool(so), nil
}

// PeekByteArray returns the Nth item on the stack without removing it.
func (s *stack) PeekByteArray(idx int32) ([]byte, error) {
	sz := int32(len(s.stk))
	if idx < 0 || idx >= sz {
		str := fmt.Sprintf("index %d is invalid for stack size %d", idx,
			sz)
		return nil, scriptError(ErrInvalidStackOperation, str)
	}

	return s.stk[sz-idx-1], nil
}

func (s *stack) PeekBool(idx int32) (bool, error) {
	so, err := s.PeekByteArray(idx)
	if err != nil {
		return false, err
	}

	return asBool(so), nil
}

// nipN removes and returns the item idx deep, where 0 is the top.
func (s *stack) nipN(idx int32) ([]byte, error) {
	sz := int32(len(s.stk))
	if idx < 0 || idx > sz-1 {
		str := fmt.Sprintf("index %d is invalid for stack size %d", idx,
			sz)
		return nil, scriptError(ErrInvalidStackOperation, str)
	}

	pos := sz - idx - 1
	so := s.stk[pos]
	s.stk = append(s.stk[:pos], s.stk[pos+1:]...)
	return so, nil
}

// NipN drops the item idx deep.
func (s *stack) NipN(idx int32) error {
	_, err := s.nipN(idx)
	return err
}

// Tuck copies the top item below the second item: [x1 x2] -> [x2 x1 x2].
func (s *stack) Tuck() error {
	so2, err := s.PopByteArray()
	if err != nil {
		return err
	}
	so1, err := s.PopByteArray()
	if err != nil {
		return err
	}
	s.PushByteArray(so2)
	s.PushByteArray(so1)
	s.PushByteArray(so2)
	return nil
}

// checkDepth returns an error when the stack holds fewer than n items.
func (s *stack) checkDepth(n int32) error {
	if s.Depth() < n {
		str := fmt.Sprintf("attempt to use %d items on a stack of size %d",
			n, s.Depth())
		return scriptError(ErrInvalidStackOperation, str)
	}
	return nil
}

// DropN removes the top n items.
func (s *stack) DropN(n int32) error {
	if n < 1 {
		str := fmt.Sprintf("attempt to drop %d items from stack", n)
		return scriptError(ErrInvalidStackOperation, str)
	}
	if err := s.checkDepth(n); err != nil {
		return err
	}

	s.stk = s.stk[:len(s.stk)-int(n)]
	return nil
}

// DupN pushes a copy of the top n items: DupN(2) on [x1 x2] gives
// [x1 x2 x1 x2].
func (s *stack) DupN(n int32) error {
	if n < 1 {
		str := fmt.Sprintf("attempt to dup %d stack items", n)
		return scriptError(ErrInvalidStackOperation, str)
	}
	if err := s.checkDepth(n); err != nil {
		return err
	}

	s.stk = append(s.stk, s.stk[len(s.stk)-int(n):]...)
	return nil
}

// RotN moves the n items below the top 2n to the top, so RotN(1) turns
// [x1 x2 x3] into [x2 x3 x1].
func (s *stack) RotN(n int32) error {
	if n < 1 {
		str := fmt.Sprintf("attempt to rotate %d stack items", n)
		return scriptError(ErrInvalidStackOperation, str)
	}
	if err := s.checkDepth(3 * n); err != nil {
		return err
	}

	// Pull the deepest N of the top 3N items out and push them back on top.
	entry := 3*n - 1
	for i := n; i > 0; i-- {
		so, err := s.nipN(entry)
		if err != nil {
			return err
		}
		s.PushByteArray(so)
	}
	return nil
}

// SwapN exchanges the top n items with the n items below them.
func (s *stack) SwapN(n int32) error {
	if n < 1 {
		str := fmt.Sprintf("attempt to swap %d stack items", n)
		return scriptError(ErrInvalidStackOperation, str)
	}
	if err := s.checkDepth(2 * n); err != nil {
		return err
	}

	entry := 2*n - 1
	for i := n; i > 0; i-- {
		so, err := s.nipN(entry)
		if err != nil {
			return err
		}
		s.PushByteArray(so)
	}
	return nil
}

// OverN copies the n items below the top n to the top.
func (s *stack) OverN(n int32) error {
	if n < 1 {
		str := fmt.Sprintf("attempt to perform over on %d stack items",
			n)
		return scriptError(ErrInvalidStackOperation, str)
	}
	if err := s.checkDepth(2 * n); err != nil {
		return err
	}

	// Copy 2N-1th entry to top of the stack.
	entry := 2*n - 1
	for ; n > 0; n-- {
		so, err := s.PeekByteArray(entry)
		if err != nil {
			return err
		}
		s.PushByteArray(so)
	}
	return nil
}

// PickN copies the item n deep to the top.
func (s *stack) PickN(n int32) error {
	so, err := s.PeekByteArray(n)
	if err != nil {
		return err
	}
	s.PushByteArray(so)
	return nil
}

// RollN moves the item n deep to the top.
func (s *stack) RollN(n int32) error {
	so, err := s.nipN(n)
	if err != nil {
		return err
	}
	s.PushByteArray(so)
	return nil
}

// String renders one hex dumped item per entry, top last.
func (s *stack) String() string {
	var result string
	for _, stack := range s.stk {
		if len(stack) == 0 {
			result += "00000000  <empty>\n"
		}
		result += hex.Dump(stack)
	}

	return result
}
