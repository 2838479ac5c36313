package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/coregx/derivre"
	"github.com/coregx/derivre/syntax"
)

// Bench is the sub-command invoked when running "derivgrep bench".
var Bench SubCommand

const defaultFiller = "the quick brown fox jumps over the lazy dog; "

type benchOptions struct {
	flags      syntax.Flags
	size       uint64
	iterations int
	plant      string
	filler     string
	prefix     bool
}

// benchResult holds the latency distribution of one engine configuration.
type benchResult struct {
	name  string
	index []int
	hist  *hdrhistogram.Histogram
}

func initBench() {
	Bench.Cmd = &cobra.Command{
		Use:   "bench PATTERN",
		Short: "Measure search latency on a generated haystack",
		Long: `
Bench builds a haystack of the requested size from a filler phrase, plants
one occurrence of --plant in its middle, and searches it repeatedly. With
--prefix (the default) it runs the search both with and without literal
prefix acceleration and fails if the two disagree on the match boundaries.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := benchOptionsFrom()
			if err != nil {
				return err
			}
			return runBench(cmd.OutOrStdout(), args[0], opt)
		},
	}
	Bench.EnvPrefix = "DERIVGREP"

	flags := Bench.Cmd.Flags()
	patternFlags(Bench.Cmd)
	flags.String("size", "1MiB", "Haystack size, e.g. 64KiB or 10MB.")
	flags.Int("iterations", 20, "Number of timed searches per configuration.")
	flags.String("plant", "hello2024", "Text planted once in the middle of the haystack.")
	flags.String("filler", defaultFiller, "Phrase repeated to build the haystack.")
	flags.Bool("prefix", true, "Compare prefix-accelerated and plain searches.")
}

func benchOptionsFrom() (benchOptions, error) {
	conf := Bench.Conf
	size, err := humanize.ParseBytes(conf.GetString("size"))
	if err != nil {
		return benchOptions{}, errors.Wrapf(err, "while parsing --size")
	}
	return benchOptions{
		flags:      patternOptions(conf),
		size:       size,
		iterations: conf.GetInt("iterations"),
		plant:      conf.GetString("plant"),
		filler:     conf.GetString("filler"),
		prefix:     conf.GetBool("prefix"),
	}, nil
}

// haystack repeats filler up to size bytes and inserts plant at a filler
// boundary near the middle. It returns the text and the plant offset.
func haystack(filler, plant string, size uint64) (string, int) {
	if filler == "" {
		filler = " "
	}
	repeats := int(size)/len(filler) + 1
	body := strings.Repeat(filler, repeats)[:max(int(size)-len(plant), 0)]
	at := len(body) / 2 / len(filler) * len(filler)
	return body[:at] + plant + body[at:], at
}

func runBench(out io.Writer, pattern string, opt benchOptions) error {
	if opt.iterations < 1 {
		return errors.Errorf("--iterations must be positive, got %d", opt.iterations)
	}
	text, at := haystack(opt.filler, opt.plant, opt.size)

	modes := []bool{true}
	if opt.prefix {
		modes = append(modes, false)
	}

	fmt.Fprintf(out, "haystack: %s, plant %q at offset %s\n",
		humanize.IBytes(uint64(len(text))), opt.plant, humanize.Comma(int64(at)))

	var results []benchResult
	for _, accelerated := range modes {
		name := "plain"
		if accelerated {
			name = "accelerated"
		}
		config := derivre.DefaultConfig()
		config.EnablePrefilter = accelerated
		re, err := derivre.CompileWithConfig(pattern, opt.flags, config)
		if err != nil {
			return errors.Wrapf(err, "while compiling %q", pattern)
		}
		res, err := measure(re, text, name, opt.iterations)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-12s strategy %s\n", name, re.Strategy())
		results = append(results, res)
	}

	for _, res := range results {
		report(out, res, len(text))
	}

	if len(results) == 2 && !slices.Equal(results[0].index, results[1].index) {
		return errors.Errorf("accelerated search found %v, plain search found %v",
			results[0].index, results[1].index)
	}
	return nil
}

// measure times iterations searches of text.
func measure(re *derivre.Regex, text, name string, iterations int) (benchResult, error) {
	hist := hdrhistogram.New(1, int64(time.Minute), 3)
	var index []int
	for i := 0; i < iterations; i++ {
		start := time.Now()
		index = re.FindStringIndex(text)
		elapsed := time.Since(start)
		if err := hist.RecordValue(int64(elapsed)); err != nil {
			return benchResult{}, errors.Wrapf(err, "while recording %s latency", name)
		}
	}
	glog.V(2).Infof("%s: %d searches, match %v", name, iterations, index)
	return benchResult{name: name, index: index, hist: hist}, nil
}

func report(out io.Writer, res benchResult, size int) {
	h := res.hist
	p50 := time.Duration(h.ValueAtQuantile(50))
	throughput := "n/a"
	if p50 > 0 {
		throughput = humanize.IBytes(uint64(float64(size)/p50.Seconds())) + "/s"
	}
	match := "no match"
	if res.index != nil {
		match = fmt.Sprintf("match [%d:%d]", res.index[0], res.index[1])
	}
	fmt.Fprintf(out, "%-12s %s  p50 %v  p90 %v  p99 %v  max %v  %s\n",
		res.name, match,
		p50,
		time.Duration(h.ValueAtQuantile(90)),
		time.Duration(h.ValueAtQuantile(99)),
		time.Duration(h.Max()),
		throughput)
}
