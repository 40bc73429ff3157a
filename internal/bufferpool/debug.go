package bufferpool

import (
	"bytes"
	"fmt"
	"io"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

func fileName(f PageFile) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%p", f)
}

// Debug writes the current buffer contents to w, used list first (head =
// most recently used), then the free-slot count.
func (p *Pool) Debug(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ew := &errWriter{w: w}
	ew.Fprintf("=== Buffer Pool (capacity=%d policy=%s) ===\n", p.capacity, p.policy)
	if p.used.Len() == 0 {
		ew.Fprintf("(empty)\n")
	} else {
		ew.Fprintf("file\tpage\tfixed\tdirty\n")
		for el := p.used.Front(); el != nil; el = el.Next() {
			s := el.Value.(*slot)
			ew.Fprintf("%s\t%d\t%v\t%v\n", fileName(s.tag.File), s.tag.PageNum, s.fixed, s.dirty)
		}
	}
	ew.Fprintf("free slots: %d\n", len(p.free))
	ew.Fprintf("=== End Buffer Pool ===\n")
	return ew.err
}

// DebugString renders Debug to a string.
func (p *Pool) DebugString() string {
	var b bytes.Buffer
	if err := p.Debug(&b); err != nil {
		_, _ = b.WriteString("\n<debug write error: " + err.Error() + ">\n")
	}
	return b.String()
}
