// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// TestStack tests that all of the stack operations work as expected.
func TestStack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		before    [][]byte
		operation func(*stack) error
		err       *ErrorCode
		after     [][]byte
	}{
		{
			name:   "noop",
			before: [][]byte{{1}, {2}, {3}, {4}, {5}},
			operation: func(s *stack) error {
				return nil
			},
			after: [][]byte{{1}, {2}, {3}, {4}, {5}},
		},
		{
			name:   "peek underflow (byte)",
			before: [][]byte{{1}, {2}, {3}, {4}, {5}},
			operation: func(s *stack) error {
				_, err := s.PeekByteArray(5)
				return err
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "pop",
			before: [][]byte{{1}, {2}, {3}, {4}, {5}},
			operation: func(s *stack) error {
				val, err := s.PopByteArray()
				if err != nil {
					return err
				}
				require.Equal(t, []byte{5}, val)
				return nil
			},
			after: [][]byte{{1}, {2}, {3}, {4}},
		},
		{
			name:   "pop everything then underflow",
			before: [][]byte{{1}, {2}},
			operation: func(s *stack) error {
				for i := 0; i < 3; i++ {
					if _, err := s.PopByteArray(); err != nil {
						return err
					}
				}
				return nil
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "pop bool negative zero",
			before: [][]byte{{0x00, 0x80}},
			operation: func(s *stack) error {
				v, err := s.PopBool()
				if err != nil {
					return err
				}
				require.False(t, v)
				return nil
			},
			after: [][]byte{},
		},
		{
			name:   "pop bool interior zero",
			before: [][]byte{{0x80, 0x00}},
			operation: func(s *stack) error {
				v, err := s.PopBool()
				if err != nil {
					return err
				}
				require.True(t, v)
				return nil
			},
			after: [][]byte{},
		},
		{
			name:   "pop int too big",
			before: [][]byte{{1, 2, 3, 4, 5}},
			operation: func(s *stack) error {
				_, err := s.PopInt()
				return err
			},
			err: errCode(ErrNumberTooBig),
		},
		{
			name:   "pop int non-minimal",
			before: [][]byte{{1, 0}},
			operation: func(s *stack) error {
				s.verifyMinimalData = true
				_, err := s.PopInt()
				return err
			},
			err: errCode(ErrMinimalData),
		},
		{
			name:   "push int then pop",
			before: nil,
			operation: func(s *stack) error {
				s.PushInt(scriptNum(-129))
				v, err := s.PopInt()
				if err != nil {
					return err
				}
				require.Equal(t, scriptNum(-129), v)
				return nil
			},
			after: [][]byte{},
		},
		{
			name:   "push bool",
			before: nil,
			operation: func(s *stack) error {
				s.PushBool(true)
				s.PushBool(false)
				return nil
			},
			after: [][]byte{{1}, nil},
		},
		{
			name:   "nip top",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.NipN(0)
			},
			after: [][]byte{{1}, {2}},
		},
		{
			name:   "nip middle",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.NipN(1)
			},
			after: [][]byte{{1}, {3}},
		},
		{
			name:   "nip too far",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.NipN(3)
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "tuck",
			before: [][]byte{{1}, {2}},
			operation: func(s *stack) error {
				return s.Tuck()
			},
			after: [][]byte{{2}, {1}, {2}},
		},
		{
			name:   "drop 2",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.DropN(2)
			},
			after: [][]byte{{1}},
		},
		{
			name:   "drop too many",
			before: [][]byte{{1}},
			operation: func(s *stack) error {
				return s.DropN(2)
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "dup 2",
			before: [][]byte{{1}, {2}},
			operation: func(s *stack) error {
				return s.DupN(2)
			},
			after: [][]byte{{1}, {2}, {1}, {2}},
		},
		{
			name:   "dup 0",
			before: [][]byte{{1}},
			operation: func(s *stack) error {
				return s.DupN(0)
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "rot 1",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.RotN(1)
			},
			after: [][]byte{{2}, {3}, {1}},
		},
		{
			name:   "rot 2",
			before: [][]byte{{1}, {2}, {3}, {4}, {5}, {6}},
			operation: func(s *stack) error {
				return s.RotN(2)
			},
			after: [][]byte{{3}, {4}, {5}, {6}, {1}, {2}},
		},
		{
			name:   "rot too little",
			before: [][]byte{{1}, {2}},
			operation: func(s *stack) error {
				return s.RotN(1)
			},
			err: errCode(ErrInvalidStackOperation),
		},
		{
			name:   "swap 1",
			before: [][]byte{{1}, {2}},
			operation: func(s *stack) error {
				return s.SwapN(1)
			},
			after: [][]byte{{2}, {1}},
		},
		{
			name:   "swap 2",
			before: [][]byte{{1}, {2}, {3}, {4}},
			operation: func(s *stack) error {
				return s.SwapN(2)
			},
			after: [][]byte{{3}, {4}, {1}, {2}},
		},
		{
			name:   "over 1",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.OverN(1)
			},
			after: [][]byte{{1}, {2}, {3}, {2}},
		},
		{
			name:   "over 2",
			before: [][]byte{{1}, {2}, {3}, {4}},
			operation: func(s *stack) error {
				return s.OverN(2)
			},
			after: [][]byte{{1}, {2}, {3}, {4}, {1}, {2}},
		},
		{
			name:   "pick 2",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.PickN(2)
			},
			after: [][]byte{{1}, {2}, {3}, {1}},
		},
		{
			name:   "roll 2",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.RollN(2)
			},
			after: [][]byte{{2}, {3}, {1}},
		},
		{
			name:   "roll 0",
			before: [][]byte{{1}, {2}, {3}},
			operation: func(s *stack) error {
				return s.RollN(0)
			},
			after: [][]byte{{1}, {2}, {3}},
		},
	}

	for _, test := range tests {
		// Setup the initial stack state and perform the test operation.
		s := stack{}
		for i := range test.before {
			s.PushByteArray(test.before[i])
		}
		err := test.operation(&s)

		if test.err != nil {
			require.Truef(t, IsErrorCode(err, *test.err),
				"%s: want %v, got %v", test.name, *test.err, err)
			continue
		}
		require.NoError(t, err, test.name)

		require.Equalf(t, len(test.after), int(s.Depth()),
			"%s: stack depth mismatch: %s", test.name, spew.Sdump(s.stk))
		for i := range test.after {
			val, err := s.PeekByteArray(s.Depth() - int32(i) - 1)
			require.NoError(t, err, test.name)
			require.Equalf(t, test.after[i], val, "%s: item %d", test.name, i)
		}
	}
}

// errCode returns a pointer to the passed error code for use in test tables.
func errCode(c ErrorCode) *ErrorCode {
	return &c
}
