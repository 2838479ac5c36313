// Package cmd holds the derivgrep commands.
package cmd

import (
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coregx/derivre/syntax"
)

// SubCommand couples a cobra command with the viper instance its flags are
// bound to.
type SubCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper

	EnvPrefix string
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "derivgrep",
	Short: "derivgrep: search text with derivative-based regular expressions",
	Long: `
derivgrep matches lines against a derivre pattern. Patterns support
captures, backreferences, atomic groups and, with --boolean, intersection
(a&b) and complement (~x).
`,
	SilenceUsage: true,
}

var rootConf = viper.New()

var subcommands = []*SubCommand{&Grep, &Bench}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := goflag.CommandLine.Parse([]string{}); err != nil {
		glog.Fatalf("Unable to initialize glog flags: %v", err)
	}
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(2)
	}
}

func init() {
	RootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	if err := rootConf.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		glog.Fatalf("Unable to bind root flags: %v", err)
	}

	// glog's -v would take the shorthand grep uses for --invert-match.
	goflag.CommandLine.VisitAll(func(f *goflag.Flag) {
		pf := flag.PFlagFromGoFlag(f)
		pf.Shorthand = ""
		flag.CommandLine.AddFlag(pf)
	})

	initGrep()
	initBench()
	for _, sc := range subcommands {
		RootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		if err := sc.Conf.BindPFlags(sc.Cmd.Flags()); err != nil {
			glog.Fatalf("Unable to bind flags of %s: %v", sc.Cmd.Name(), err)
		}
		if err := sc.Conf.BindPFlags(RootCmd.PersistentFlags()); err != nil {
			glog.Fatalf("Unable to bind root flags of %s: %v", sc.Cmd.Name(), err)
		}
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
		sc.Conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		sc.Conf.AutomaticEnv()
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			if err := sc.Conf.ReadInConfig(); err != nil {
				glog.Fatalf("%v", errors.Wrapf(err, "while reading config %s", cfg))
			}
		}
	})
}

// patternFlags registers the pattern option flags on cmd.
func patternFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolP("ignore-case", "i", false, "Match letters case-insensitively.")
	flags.Bool("multiline", false, "Let ^ and $ match at line boundaries.")
	flags.Bool("dotall", false, "Let . match newlines.")
	flags.Bool("boolean", false, "Enable the & (intersection) and ~ (complement) operators.")
}

// patternOptions reads the flags registered by patternFlags.
func patternOptions(conf *viper.Viper) syntax.Flags {
	var flags syntax.Flags
	if conf.GetBool("ignore-case") {
		flags |= syntax.IgnoreCase
	}
	if conf.GetBool("multiline") {
		flags |= syntax.Multiline
	}
	if conf.GetBool("dotall") {
		flags |= syntax.DotAll
	}
	if conf.GetBool("boolean") {
		flags |= syntax.BooleanOps
	}
	return flags
}
