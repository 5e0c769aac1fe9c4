package cli

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"fintrack/internal/core"
)

// flagPredictors completes flag values that come from a fixed set.
var flagPredictors = map[string]complete.Predictor{
	"reason":      predict.Set{string(core.ReasonCancelled), string(core.ReasonExpired), string(core.ReasonLostOrStolen), string(core.ReasonOther)},
	"cycle":       predict.Set{string(core.CycleMonthly), string(core.CycleBiMonthly), string(core.CycleYearly), string(core.CycleCustom)},
	"custom-unit": predict.Set{string(core.UnitMonth), string(core.UnitYear)},
	"importance":  predict.Set{string(core.ImportanceHigh), string(core.ImportanceMedium), string(core.ImportanceLow)},
	"style":       predict.Set{"dark", "light", "notty"},
	"o":           predict.Files("*.json"),
	"i":           predict.Files("*.json"),
}

// Completion describes every command and its flags for shell completion.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{"v": predict.Nothing},
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}

	types := make(predict.Set, 0, len(core.AccountTypes))
	for _, t := range core.AccountTypes {
		types = append(types, t.ID)
	}

	for _, cmds := range Commands(nil) {
		for _, cmd := range cmds {
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			sub := &complete.Command{Flags: map[string]complete.Predictor{}}
			fs.VisitAll(func(f *flag.Flag) {
				switch {
				case isBoolFlag(f):
					sub.Flags[f.Name] = predict.Nothing
				case f.Name == "type":
					sub.Flags[f.Name] = types
				case flagPredictors[f.Name] != nil:
					sub.Flags[f.Name] = flagPredictors[f.Name]
				default:
					sub.Flags[f.Name] = predict.Something
				}
			})
			root.Sub[cmd.Name()] = sub
		}
	}
	return root
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
