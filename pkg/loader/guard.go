package loader

import "github.com/aretw0/vanity/pkg/domain"

// Guard tracks the files of one load pass.
// Not safe for concurrent use; a pass runs on a single goroutine.
type Guard struct {
	stack []string
	done  map[string]bool
}

// NewGuard creates an empty guard for a new pass.
func NewGuard() *Guard {
	return &Guard{done: make(map[string]bool)}
}

// Enter pushes file onto the load stack, failing if it is already there.
func (g *Guard) Enter(file string) error {
	for _, f := range g.stack {
		if f == file {
			stack := make([]string, len(g.stack), len(g.stack)+1)
			copy(stack, g.stack)
			return &domain.CircularLoadError{Stack: append(stack, file)}
		}
	}
	g.stack = append(g.stack, file)
	return nil
}

// Leave pops file from the load stack.
func (g *Guard) Leave(file string) {
	for i := len(g.stack) - 1; i >= 0; i-- {
		if g.stack[i] == file {
			g.stack = append(g.stack[:i], g.stack[i+1:]...)
			return
		}
	}
}

// Loading reports whether file is on the load stack.
func (g *Guard) Loading(file string) bool {
	for _, f := range g.stack {
		if f == file {
			return true
		}
	}
	return false
}

// Len returns the depth of the load stack. It is zero between files.
func (g *Guard) Len() int {
	return len(g.stack)
}

func (g *Guard) markDone(file string) { g.done[file] = true }

// Done reports whether file finished loading during this pass.
func (g *Guard) Done(file string) bool { return g.done[file] }
