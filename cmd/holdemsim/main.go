// Command holdemsim lets rule bots play a series of hands and prints the
// result.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
)

func main() {
	opts := simOptions{}
	flag.IntVar(&opts.Hands, "hands", 100, "number of hands to play")
	flag.IntVar(&opts.Players, "players", 6, "bots at the table (2-9)")
	flag.Int64Var(&opts.Chips, "chips", 1000, "starting stack")
	flag.Int64Var(&opts.SmallBlind, "sb", 5, "small blind")
	flag.Int64Var(&opts.BigBlind, "bb", 10, "big blind")
	flag.Int64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	verbose := flag.Bool("v", false, "print every hand")
	flag.Parse()

	if *verbose {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	}
	opts.Log = slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	if opts.Players < 2 || opts.Players > 9 {
		pterm.Error.Printfln("players must be 2-9, got %d", opts.Players)
		os.Exit(2)
	}

	pterm.DefaultHeader.WithFullWidth().Println("Hold'em bot simulation")
	pterm.Info.Printfln("%d bots, %d hands, blinds %d/%d, stack %d", opts.Players, opts.Hands, opts.SmallBlind, opts.BigBlind, opts.Chips)

	played := 0
	bots, err := simulate(opts, func(h handSummary) {
		played++
		printHand(h, *verbose)
	})
	if err != nil {
		opts.Log.Error("simulation failed", "err", err)
		os.Exit(1)
	}
	pterm.Success.Printfln("played %d hands", played)
	printStandings(bots, opts.Chips)
}
