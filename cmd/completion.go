package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/palanca/docs"
	"github.com/etnz/palanca/tradingview"
)

var (
	predictSchemes   = predict.Set{"ISIN", "CUSIP", "MSSI", "TICKER", "FX", "ID"}
	predictKinds     = predict.Set{"price", "open", "high", "low", "close", "volume", "quantity"}
	predictIntervals predict.Set
)

func init() {
	for _, i := range tradingview.Intervals {
		predictIntervals = append(predictIntervals, string(i))
	}
}

func predictTopics() predict.Set {
	topics, _ := docs.GetAllTopics()
	return append(predict.Set{"*"}, topics...)
}

// Completion returns the shell completion tree of the commands registered by
// Register. Install it with COMP_INSTALL=1 palanca.
func Completion() *complete.Command {
	ranged := map[string]complete.Predictor{
		"from": predict.Something,
		"to":   predict.Something,
	}
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"store":  predict.Files("*.jsonl"),
		},
		Sub: map[string]*complete.Command{
			"resolve": {
				Flags: map[string]complete.Predictor{"scheme": predictSchemes},
				Args:  predict.Something,
			},
			"append": {
				Flags: map[string]complete.Predictor{
					"kind": predictKinds,
					"on":   predict.Something,
					"at":   predict.Something,
				},
				Args: predict.Something,
			},
			"query": {Flags: ranged, Args: predict.Something},
			"fetch": {
				Flags: map[string]complete.Predictor{
					"from":   predict.Something,
					"to":     predict.Something,
					"scheme": predictSchemes,
				},
				Args: predict.Something,
			},
			"quote": {
				Flags: map[string]complete.Predictor{
					"interval": predictIntervals,
					"future":   predict.Nothing,
					"extended": predict.Nothing,
					"retries":  predict.Something,
					"append":   predict.Nothing,
				},
				Args: predict.Something,
			},
			"topic":    {Args: predictTopics()},
			"help":     {Args: predict.Set{"resolve", "append", "query", "fetch", "quote", "topic"}},
			"flags":    {},
			"commands": {},
		},
	}
}
