package lines

import (
	"fmt"
	"strings"
)

// Lines collects formatted text lines, each prefixed the same way
type Lines struct {
	l      []string
	prefix string
}

func New(prefix ...string) *Lines {
	ret := &Lines{l: make([]string, 0)}
	if len(prefix) > 0 {
		ret.prefix = prefix[0]
	}
	return ret
}

func (l *Lines) Add(format string, args ...any) *Lines {
	l.l = append(l.l, l.prefix+fmt.Sprintf(format, args...))
	return l
}

func (l *Lines) Append(ln *Lines) *Lines {
	for _, s := range ln.l {
		l.l = append(l.l, l.prefix+s)
	}
	return l
}

func (l *Lines) Len() int {
	return len(l.l)
}

func (l *Lines) Join(sep string) string {
	return strings.Join(l.l, sep)
}

func (l *Lines) String() string {
	return l.Join("\n")
}
