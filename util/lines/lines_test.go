package lines

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	ln := New("  ").Add("a=%d", 1).Add("b")
	require.EqualValues(t, 2, ln.Len())
	require.EqualValues(t, "  a=1\n  b", ln.String())

	outer := New().Add("root").Append(ln)
	require.EqualValues(t, "root,  a=1,  b", outer.Join(","))
}
