package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

func printHand(h handSummary, verbose bool) {
	if !verbose {
		return
	}
	res := h.Result
	how := "showdown"
	if res.ByFold {
		how = "fold"
	}
	winners := make([]string, len(res.Winners))
	for i, id := range res.Winners {
		winners[i] = pterm.LightCyan(id)
		if hand, ok := res.RevealedHands[id]; ok {
			winners[i] += " (" + hand.Category.String() + ")"
		}
	}
	board := h.Board
	if board == "" {
		board = "-"
	}
	pterm.Info.Printfln("#%d dealer=%s board=[%s] pot=%d by %s -> %s",
		h.Number, h.Dealer, board, res.Pot, how, strings.Join(winners, ", "))
}

func printStandings(bots []botSeat, start int64) {
	sorted := append([]botSeat(nil), bots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].chips > sorted[j].chips })

	data := pterm.TableData{{"Bot", "Persona", "Chips", "Net"}}
	bars := make(pterm.Bars, 0, len(sorted))
	for _, b := range sorted {
		net := b.chips - start
		netStr := pterm.LightGreen(fmt.Sprintf("%+d", net))
		if net < 0 {
			netStr = pterm.LightRed(fmt.Sprintf("%+d", net))
		}
		data = append(data, []string{b.id, b.persona, fmt.Sprint(b.chips), netStr})
		bars = append(bars, pterm.Bar{Label: b.id, Value: int(b.chips)})
	}

	pterm.DefaultSection.Println("Standings")
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
	_ = pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render()
}
