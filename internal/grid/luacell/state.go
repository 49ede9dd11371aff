package luacell

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds a single script call.
const DefaultCallTimeout = 50 * time.Millisecond

// state wraps a sandboxed gopher-lua state.
type state struct {
	L       *lua.LState
	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

func newState(timeout time.Duration) *state {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)
	return &state{L: L, timeout: timeout}
}

// openSafeLibraries opens the libraries scripts may use and removes the
// loaders that reach the filesystem or compile code at runtime.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// run executes chunk and returns its first result.
func (s *state) run(name, chunk string) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil, ErrStateClosed
	}
	fn, err := s.L.Load(strings.NewReader(chunk), name)
	if err != nil {
		return lua.LNil, err
	}
	rets, err := s.pcall(fn, nil)
	if err != nil {
		return lua.LNil, err
	}
	if len(rets) == 0 {
		return lua.LNil, nil
	}
	return rets[0], nil
}

// call invokes fn under the call timeout. args builds the arguments while
// the state is locked.
func (s *state) call(fn *lua.LFunction, args func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	return s.pcall(fn, args)
}

// pcall does the protected call. Caller holds mu.
func (s *state) pcall(fn *lua.LFunction, build func(L *lua.LState) []lua.LValue) (rets []lua.LValue, err error) {
	var args []lua.LValue
	if build != nil {
		args = build(s.L)
	}
	if s.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, a := range args {
		s.L.Push(a)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("lua panic: %v", r)
			}
		}()
		err = s.L.PCall(len(args), lua.MultRet, nil)
	}()
	if err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	n := s.L.GetTop() - top
	rets = make([]lua.LValue, n)
	for i := range n {
		rets[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return rets, nil
}

func (s *state) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.Close()
	s.closed = true
}
