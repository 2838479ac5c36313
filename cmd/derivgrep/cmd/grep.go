package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/coregx/derivre"
	"github.com/coregx/derivre/syntax"
)

// Grep is the sub-command invoked when running "derivgrep grep".
var Grep SubCommand

// errNoMatch reports that no line was selected. The command exits with
// status 1 in that case, like grep.
var errNoMatch = errors.New("no lines selected")

type grepOptions struct {
	flags       syntax.Flags
	invert      bool
	count       bool
	onlyMatch   bool
	lineNumbers bool
	withName    bool
}

func initGrep() {
	Grep.Cmd = &cobra.Command{
		Use:   "grep PATTERN [FILE...]",
		Short: "Print lines matching a pattern",
		Long: `
Grep prints each line of the input files (standard input when no file is
given) that contains a match of PATTERN.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runGrep(cmd.InOrStdin(), cmd.OutOrStdout(), args, grepOptionsFrom())
			if errors.Is(err, errNoMatch) {
				glog.Flush()
				os.Exit(1)
			}
			return err
		},
	}
	Grep.EnvPrefix = "DERIVGREP"

	flags := Grep.Cmd.Flags()
	patternFlags(Grep.Cmd)
	flags.BoolP("invert-match", "v", false, "Select non-matching lines.")
	flags.BoolP("count", "c", false, "Print only a count of selected lines per file.")
	flags.BoolP("only-matching", "o", false, "Print only the matched parts of lines.")
	flags.BoolP("line-number", "n", false, "Prefix each output line with its line number.")
}

func grepOptionsFrom() grepOptions {
	conf := Grep.Conf
	return grepOptions{
		flags:       patternOptions(conf),
		invert:      conf.GetBool("invert-match"),
		count:       conf.GetBool("count"),
		onlyMatch:   conf.GetBool("only-matching"),
		lineNumbers: conf.GetBool("line-number"),
	}
}

// runGrep searches the files named by args[1:], or stdin, for args[0].
func runGrep(stdin io.Reader, out io.Writer, args []string, opt grepOptions) error {
	re, err := derivre.CompileWithFlags(args[0], opt.flags)
	if err != nil {
		return errors.Wrapf(err, "while compiling pattern")
	}
	glog.V(1).Infof("Pattern %q uses strategy %s", re.String(), re.Strategy())

	w := bufio.NewWriter(out)
	defer w.Flush()

	files := args[1:]
	opt.withName = len(files) > 1
	selected := 0
	if len(files) == 0 {
		n, err := grepReader(w, re, stdin, "(standard input)", opt)
		if err != nil {
			return err
		}
		selected += n
	}
	for _, name := range files {
		n, err := grepFile(w, re, name, opt)
		if err != nil {
			return err
		}
		selected += n
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "while writing output")
	}
	if selected == 0 {
		return errNoMatch
	}
	return nil
}

func grepFile(w *bufio.Writer, re *derivre.Regex, name string, opt grepOptions) (int, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, errors.Wrapf(err, "while opening %s", name)
	}
	defer f.Close()
	return grepReader(w, re, f, name, opt)
}

// grepReader writes the selected lines of r and returns how many there
// were.
func grepReader(w *bufio.Writer, re *derivre.Regex, r io.Reader, name string, opt grepOptions) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 64<<20)

	selected := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if re.MatchString(line) == opt.invert {
			continue
		}
		selected++
		if opt.count {
			continue
		}

		prefix := ""
		if opt.withName {
			prefix = name + ":"
		}
		if opt.lineNumbers {
			prefix += fmt.Sprintf("%d:", lineNo)
		}
		if opt.onlyMatch && !opt.invert {
			for _, m := range re.FindAllString(line, -1) {
				if m != "" {
					fmt.Fprintf(w, "%s%s\n", prefix, m)
				}
			}
			continue
		}
		fmt.Fprintf(w, "%s%s\n", prefix, line)
	}
	if err := scanner.Err(); err != nil {
		return selected, errors.Wrapf(err, "while reading %s", name)
	}

	if opt.count {
		if opt.withName {
			fmt.Fprintf(w, "%s:%d\n", name, selected)
		} else {
			fmt.Fprintf(w, "%d\n", selected)
		}
	}
	return selected, nil
}
