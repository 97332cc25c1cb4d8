package checkout

import (
	"fmt"
	"io"
	"sync"
)

// TerminalUI prints checkout progress as plain lines.
type TerminalUI struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalUI(out io.Writer) *TerminalUI {
	return &TerminalUI{out: out}
}

func (t *TerminalUI) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *TerminalUI) ShowLoading(message string) func() {
	t.printf("… %s", message)
	return func() {}
}

func (t *TerminalUI) SetPaymentLoading(loading bool) {
	if loading {
		t.printf("payment processing")
	}
}

func (t *TerminalUI) Success(message string) { t.printf("✔ %s", message) }

func (t *TerminalUI) Error(message string) { t.printf("✘ %s", message) }

func (t *TerminalUI) ResetCart() { t.printf("cart cleared") }

func (t *TerminalUI) Navigate(path string) { t.printf("→ %s", path) }
