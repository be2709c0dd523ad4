package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"iccrelay-go/internal/config"
	"iccrelay-go/internal/model"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		timeframe    string
		market       string
		profilesFile string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "verify_plan SYMBOL DIRECTION ENTRY",
		Short: "Print the stop and targets the risk engine computes for a trade",
		Example: `  verify_plan EURUSD BUY 1.1000 --timeframe 15
  verify_plan BTCUSDT short 60000 -t H1 --json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			direction, err := model.ParseDirection(args[1])
			if err != nil {
				return err
			}

			entry, err := strconv.ParseFloat(args[2], 64)
			if err != nil || entry <= 0 {
				return fmt.Errorf("entry must be a positive number, got %q", args[2])
			}

			class, err := model.ParseMarketClass(market, symbol)
			if err != nil {
				return err
			}

			tf, known := model.ParseTimeframe(timeframe)
			if !known {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  unknown timeframe %q, using %s\n", timeframe, tf)
			}

			profiles, err := config.LoadProfiles(profilesFile)
			if err != nil {
				return err
			}

			plan := profiles.ComputePlan(symbol, entry, direction, tf, class)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			printPlan(cmd, plan)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", string(model.DefaultTimeframe), "chart timeframe (M1..D1, 15, 1h, ...)")
	cmd.Flags().StringVarP(&market, "market", "m", "", "market class (FOREX, CRYPTO, COMMODITY, INDEX); inferred when empty")
	cmd.Flags().StringVar(&profilesFile, "profiles", os.Getenv("PROFILES_FILE"), "YAML file overriding the stop/reward profiles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")

	return cmd
}

func printPlan(cmd *cobra.Command, plan model.TradePlan) {
	unit := "pts"
	if plan.MarketClass == model.MarketForex {
		unit = "pips"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s (%s)\n", plan.Symbol, plan.Direction, plan.Timeframe, plan.MarketClass)
	fmt.Fprintf(out, "Entry: %v\n", plan.EntryPrice)
	fmt.Fprintf(out, "SL:    %v (%.1f %s)\n", plan.StopLoss, plan.StopDistance, unit)
	for _, tp := range plan.TakeProfits {
		fmt.Fprintf(out, "TP%d:   %v (%.1f %s, %.1fR)\n", tp.Level, tp.Price, tp.Distance, unit, tp.Ratio)
	}
	fmt.Fprintf(out, "Break-even win rate: %.1f%%\n", plan.BreakEvenWinRate)
}
