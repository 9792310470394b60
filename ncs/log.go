package ncs

import (
	"fmt"
	"strings"
)

// Log accumulates diagnostics that do not stop processing, such as poorly
// related copies or residue numbering that cannot be represented exactly.
// The zero value is ready to use.
type Log struct {
	msgs []string
}

// Addf appends a message. Repeats of the most recent message are dropped.
func (l *Log) Addf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if n := len(l.msgs); n > 0 && l.msgs[n-1] == msg {
		return
	}
	l.msgs = append(l.msgs, msg)
}

// Messages returns the accumulated messages in order.
func (l *Log) Messages() []string {
	return l.msgs
}

func (l *Log) String() string {
	return strings.Join(l.msgs, "\n")
}
