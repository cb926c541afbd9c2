package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nsf/jsondiff"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/rmmh/blockbridge/go/blockstates"
	"github.com/rmmh/blockbridge/go/canonical"
	"github.com/rmmh/blockbridge/go/convert"
	"github.com/rmmh/blockbridge/go/coverage"
	"github.com/rmmh/blockbridge/go/identifier"
	"github.com/rmmh/blockbridge/go/mappingfile"
	"github.com/rmmh/blockbridge/go/mappings"
	"github.com/rmmh/blockbridge/go/resolver"
	"github.com/rmmh/blockbridge/go/version"
)

func runConvert(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var set convert.Config
	configPath := fs.String("config", "", "YAML config file")
	fs.TextVar(&set.From, "from", mappings.Target{}, "source platform:version")
	fs.TextVar(&set.To, "to", mappings.Target{}, "target platform:version")
	fs.IntVar(&set.Workers, "workers", 0, "parallel region workers (default: number of CPUs)")
	fs.BoolVar(&set.AllowCustom, "custom", false, "pass non-vanilla identifiers through")
	fs.StringVar(&set.MappingFile, "mapping", "", "user mapping file applied before translation")
	fs.StringVar(&set.CoverageDB, "coverage", "", "SQLite database recording unresolved identifiers")
	fs.StringVar(&set.Report, "report", "", "zstd JSONL report of translated palettes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := convert.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "from":
			cfg.From = set.From
		case "to":
			cfg.To = set.To
		case "workers":
			cfg.Workers = set.Workers
		case "custom":
			cfg.AllowCustom = set.AllowCustom
		case "mapping":
			cfg.MappingFile = set.MappingFile
		case "coverage":
			cfg.CoverageDB = set.CoverageDB
		case "report":
			cfg.Report = set.Report
		}
	})
	if fs.NArg() > 0 {
		cfg.RegionDir = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.Filters = fs.Args()[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, err := convert.Run(ctx, cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(sum))
}

func runTranslate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	var from, to mappings.Target
	fs.TextVar(&from, "from", mappings.MustParseTarget("java:1.12.2"), "source platform:version")
	fs.TextVar(&to, "to", mappings.MustParseTarget("bedrock:1.20.0"), "target platform:version")
	items := fs.Bool("items", false, "translate item identifiers instead of blocks")
	custom := fs.Bool("custom", false, "pass non-vanilla identifiers through")
	mappingPath := fs.String("mapping", "", "user mapping file applied before translation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no identifiers given")
	}
	var mapping *mappingfile.File
	if *mappingPath != "" {
		var err error
		if mapping, err = mappingfile.Load(*mappingPath); err != nil {
			return err
		}
	}

	var translate func(identifier.Identifier) (identifier.Identifier, error)
	if *items {
		reader, err := mappings.Items(from, resolver.WithDirection(resolver.Decode), resolver.AllowCustom(*custom))
		if err != nil {
			return err
		}
		writer, err := mappings.Items(to, resolver.WithDirection(resolver.Encode), resolver.AllowCustom(*custom))
		if err != nil {
			return err
		}
		translate = func(id identifier.Identifier) (identifier.Identifier, error) {
			if mapped, ok := mapping.ConvertItem(id); ok {
				id = mapped
			}
			return through(reader, writer, id)
		}
	} else {
		conv, err := convert.New(from, to, *custom)
		if err != nil {
			return err
		}
		conv.Mapping = mapping
		translate = conv.Translate
	}

	failed := 0
	for _, arg := range fs.Args() {
		id, err := identifier.ParseString(arg)
		if err != nil {
			return err
		}
		res, err := translate(id)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s\t%s\t# %v\n", id, res, err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", id, res)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d identifiers unresolved", failed, fs.NArg())
	}
	return nil
}

func through[T canonical.Kind](reader, writer *resolver.Resolver[T], id identifier.Identifier) (identifier.Identifier, error) {
	res, err := reader.Decode(id)
	if err != nil {
		return identifier.Identifier{}, err
	}
	return writer.Encode(res)
}

type dump struct {
	Target  string           `json:"target"`
	Kind    string           `json:"kind"`
	Stats   resolver.Stats   `json:"stats"`
	Entries []resolver.Entry `json:"entries"`
}

func dumpOf(t mappings.Target, dir resolver.Direction, items bool) (dump, error) {
	if items {
		r, err := mappings.Items(t, resolver.WithDirection(dir))
		if err != nil {
			return dump{}, err
		}
		return dump{t.String(), "items", r.Stats(), r.Entries()}, nil
	}
	r, err := mappings.Blocks(t, resolver.WithDirection(dir))
	if err != nil {
		return dump{}, err
	}
	return dump{t.String(), "blocks", r.Stats(), r.Entries()}, nil
}

func targetFlags(fs *flag.FlagSet) (*string, *bool) {
	platform := fs.String("platform", "java", "java or bedrock")
	items := fs.Bool("items", false, "item tables instead of block tables")
	return platform, items
}

func target(platform, v string) (mappings.Target, error) {
	p, err := mappings.ParsePlatform(platform)
	if err != nil {
		return mappings.Target{}, err
	}
	ver, err := version.Parse(v)
	if err != nil {
		return mappings.Target{}, err
	}
	return mappings.Target{Platform: p, Version: ver}, nil
}

func runDump(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	platform, items := targetFlags(fs)
	ver := fs.String("version", "1.20.0", "platform version")
	direction := fs.String("direction", "both", "decode, encode or both")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := target(*platform, *ver)
	if err != nil {
		return err
	}
	dir, err := resolver.ParseDirection(*direction)
	if err != nil {
		return err
	}
	d, err := dumpOf(t, dir, *items)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(d))
}

// entryKey identifies an entry across versions: decode entries by their
// native identifier, encode entries by their canonical type and properties.
func entryKey(e resolver.Entry) string {
	if e.Direction == "decode" {
		return "decode " + e.Native
	}
	return "encode " + e.Type + e.Canonical
}

func runDiff(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	platform, items := targetFlags(fs)
	a := fs.String("a", "", "first version")
	b := fs.String("b", "", "second version")
	all := fs.Bool("all", false, "also print unchanged entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var docs [2][]byte
	for i, v := range []string{*a, *b} {
		t, err := target(*platform, v)
		if err != nil {
			return err
		}
		d, err := dumpOf(t, resolver.Both, *items)
		if err != nil {
			return err
		}
		if docs[i], err = json.Marshal(lo.KeyBy(d.Entries, entryKey)); err != nil {
			return errors.WithStack(err)
		}
	}

	opts := jsondiff.DefaultConsoleOptions()
	opts.SkipMatches = !*all
	diff, text := jsondiff.Compare(docs[0], docs[1], &opts)
	if diff == jsondiff.FullMatch {
		fmt.Fprintf(out, "%s %s and %s have identical tables\n", *platform, *a, *b)
		return nil
	}
	fmt.Fprintln(out, text)
	return nil
}

func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	jarPath := fs.String("jar", "", "client jar or resource pack zip")
	ver := fs.String("version", "1.20.0", "java version the jar belongs to")
	limit := fs.Int("limit", blockstates.DefaultLimit, "most states to try per block")
	coveragePath := fs.String("coverage", "", "SQLite database recording unresolved states")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := target(string(mappings.Java), *ver)
	if err != nil {
		return err
	}
	if t.Version.Less(version.New(1, 13, 0)) {
		return errors.Errorf("%s predates named block states; jars before 1.13 cannot be checked", t)
	}
	jar, err := blockstates.Open(*jarPath)
	if err != nil {
		return err
	}
	r, err := mappings.Blocks(t, resolver.WithDirection(resolver.Decode))
	if err != nil {
		return err
	}
	res, err := jar.Check(r, *limit)
	if err != nil {
		return err
	}

	if *coveragePath != "" {
		ctx := context.Background()
		store, err := coverage.Open(*coveragePath)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err := store.Begin(ctx, "jar:"+*jarPath, t.String())
		if err != nil {
			return err
		}
		for _, m := range res.Unresolved {
			run.Report(coverage.Gap{Op: "decode", Native: m.ID.String(), Reason: m.Err.Error(), Where: *jarPath})
		}
		if err := run.Finish(ctx, coverage.Totals{Entries: int64(res.States)}); err != nil {
			return err
		}
		fmt.Fprintln(out, "run", run.ID)
	}

	for _, m := range res.Unresolved {
		fmt.Fprintf(out, "%s\t# %v\n", m.ID, m.Err)
	}
	fmt.Fprintf(out, "%d blocks, %d states, %d unresolved, %d truncated\n",
		res.Blocks, res.States, len(res.Unresolved), len(res.Truncated))
	return nil
}
