package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"

	"github.com/samber/lo"
)

type command struct {
	run   func(args []string, out io.Writer) error
	usage string
}

var commands = map[string]command{
	"convert":   {runConvert, "[-config cfg.yaml] [-from java:1.12.2 -to bedrock:1.20.0] <regiondir> [filterstrings]"},
	"translate": {runTranslate, "-from java:1.12.2 -to bedrock:1.20.0 [-items] <identifier>..."},
	"dump":      {runDump, "-platform java -version 1.20.0 [-direction decode] [-items]"},
	"diff":      {runDiff, "-platform bedrock -a 1.16.100 -b 1.20.50 [-items]"},
	"check":     {runCheck, "-jar client.jar -version 1.20.0 [-coverage coverage.db]"},
	"serve":     {runServe, "[-addr 127.0.0.1:9999] [-coverage coverage.db]"},
}

func usage() {
	fmt.Println("usage: blockbridge [-v] <command> [flags]")
	names := lo.Keys(commands)
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s %s\n", name, commands[name].usage)
	}
}

func main() {
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		os.Exit(2)
	}
	if err := cmd.run(args[1:], os.Stdout); err != nil {
		if err == flag.ErrHelp {
			os.Exit(2)
		}
		log.Fatalf("%s: %+v", args[0], err)
	}
}
