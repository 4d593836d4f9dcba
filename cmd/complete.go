package cmd

import (
	"flag"

	"github.com/etnz/bookkeeper"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors suggest values for the flags that take a known set.
var flagPredictors = map[string]complete.Predictor{
	"kind":     kindPredictor(),
	"role":     predict.Set{string(bookkeeper.Customer), string(bookkeeper.Supplier)},
	"db":       predict.Files("*.db"),
	"i":        predict.Files("*.jsonl"),
	"o":        predict.Files("*.jsonl"),
	"currency": predict.Set{"USD", "EUR", "GBP", "GHS", "NGN", "KES", "XOF"},
	"d":        predict.Set{"today", "yesterday"},
	"s":        predict.Set{"today", "yesterday"},
}

func kindPredictor() predict.Set {
	set := make(predict.Set, len(bookkeeper.Kinds))
	for i, k := range bookkeeper.Kinds {
		set[i] = string(k)
	}
	return set
}

// Completion describes the commands registered on c and their flags for
// shell completion.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(global),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		root.Sub[cmd.Name()] = &complete.Command{Flags: flags(fs)}
	})
	return root
}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			m[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}
