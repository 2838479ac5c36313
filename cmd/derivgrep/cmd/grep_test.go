package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/derivre/syntax"
)

const poem = `The fog comes
on little cat feet.
It sits looking
over harbor and city
on silent haunches
and then moves on.
`

func TestGrep(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opt     grepOptions
		want    string
	}{
		{"plain", `on\b`, grepOptions{},
			"on little cat feet.\non silent haunches\nand then moves on.\n"},
		{"ignore case", `^the`, grepOptions{flags: syntax.IgnoreCase},
			"The fog comes\n"},
		{"invert", `o`, grepOptions{invert: true},
			""},
		{"count", `\bon\b`, grepOptions{count: true},
			"3\n"},
		{"only matching", `\b[a-z]*it[a-z]*\b`, grepOptions{onlyMatch: true},
			"little\nsits\ncity\n"},
		{"line numbers", `cat|city`, grepOptions{lineNumbers: true},
			"2:on little cat feet.\n4:over harbor and city\n"},
		{"complement", `\b\w+\b&~(?:.*[aeiou].*)`, grepOptions{flags: syntax.BooleanOps, onlyMatch: true},
			"It\n"},
		{"intersection", `\b\w+ \w+\b&~(?:.*o.*)`, grepOptions{flags: syntax.BooleanOps, onlyMatch: true},
			"little cat\nIt sits\nand city\nsilent haunches\nand then\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runGrep(strings.NewReader(poem), &out, []string{tt.pattern}, tt.opt)
			if tt.want == "" {
				require.ErrorIs(t, err, errNoMatch)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, out.String())
		})
	}
}

func TestGrepFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("alpha\nbeta\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("gamma\nalphabet\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runGrep(nil, &out, []string{`alpha`, a, b}, grepOptions{}))
	require.Equal(t, a+":alpha\n"+b+":alphabet\n", out.String())

	out.Reset()
	require.NoError(t, runGrep(nil, &out, []string{`a$`, a, b}, grepOptions{count: true}))
	require.Equal(t, a+":2\n"+b+":1\n", out.String())

	out.Reset()
	err := runGrep(nil, &out, []string{`x`, filepath.Join(dir, "missing.txt")}, grepOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "while opening")
}

func TestGrepBadPattern(t *testing.T) {
	var out bytes.Buffer
	err := runGrep(strings.NewReader(""), &out, []string{`a(b`}, grepOptions{})
	require.ErrorIs(t, err, syntax.ErrMissingParen)
	require.Contains(t, err.Error(), "while compiling pattern")
}

func TestRootCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["grep"])
	require.True(t, names["bench"])

	require.NotNil(t, Grep.Conf)
	require.NotNil(t, Grep.Cmd.Flags().ShorthandLookup("i"))
	require.NotNil(t, Grep.Cmd.Flags().ShorthandLookup("v"))
	require.NotNil(t, Grep.Cmd.Flags().ShorthandLookup("c"))
	require.NotNil(t, Grep.Cmd.Flags().ShorthandLookup("o"))
	require.NotNil(t, Grep.Cmd.Flags().ShorthandLookup("n"))
}

func TestGrepOptionsFromEnv(t *testing.T) {
	t.Setenv("DERIVGREP_IGNORE_CASE", "true")
	t.Setenv("DERIVGREP_LINE_NUMBER", "true")

	opt := grepOptionsFrom()
	require.Equal(t, syntax.IgnoreCase, opt.flags)
	require.True(t, opt.lineNumbers)
	require.False(t, opt.count)
}
