package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cashcast/internal/core"
)

var (
	flagMonths       int
	flagScenario     string
	flagType         string
	flagAmount       string
	flagInstallments int
	flagStart        string
	flagEnd          string
	flagInflation    float64
	flagSalary       float64
)

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Project monthly cash flow",
	RunE:  runCashFlow,
}

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Simulate a what-if event against the projected balance",
	Example: "  cashcast-cli scenario --type BIG_PURCHASE --amount 1200 --installments 6 --start 2026-11-01\n" +
		"  cashcast-cli scenario --type INCOME_LOSS --amount 2500 --start 2026-12-01 --end 2027-02-28",
	RunE: runScenario,
}

var affordCmd = &cobra.Command{
	Use:   "afford",
	Short: "Score whether a purchase is affordable",
	RunE:  runAfford,
}

var inflationCmd = &cobra.Command{
	Use:   "inflation",
	Short: "Simulate the effect of inflation on goals and budgets",
	RunE:  runInflation,
}

func init() {
	cashflowCmd.Flags().IntVar(&flagMonths, "months", 12, "Months to project")
	cashflowCmd.Flags().StringVar(&flagScenario, "scenario", string(core.Realistic), "REALISTIC, OPTIMISTIC or PESSIMISTIC")

	scenarioCmd.Flags().StringVar(&flagType, "type", "", "BIG_PURCHASE, INCOME_LOSS, EMERGENCY_EXPENSE, NEW_RECURRING or DEBT_PAYMENT")
	scenarioCmd.Flags().StringVar(&flagAmount, "amount", "", "Event amount, dot or comma decimals")
	scenarioCmd.Flags().IntVar(&flagInstallments, "installments", 0, "Number of monthly installments")
	scenarioCmd.Flags().StringVar(&flagStart, "start", "", "Start date YYYY-MM-DD")
	scenarioCmd.Flags().StringVar(&flagEnd, "end", "", "End date YYYY-MM-DD for recurring events")
	_ = scenarioCmd.MarkFlagRequired("type")
	_ = scenarioCmd.MarkFlagRequired("amount")
	_ = scenarioCmd.MarkFlagRequired("start")

	affordCmd.Flags().StringVar(&flagAmount, "amount", "", "Purchase amount, dot or comma decimals")
	affordCmd.Flags().Int64VarP(&flagCategoryID, "category", "c", 0, "Category the purchase is booked to")
	affordCmd.Flags().IntVar(&flagInstallments, "installments", 0, "Number of monthly installments")
	_ = affordCmd.MarkFlagRequired("amount")

	inflationCmd.Flags().Float64Var(&flagInflation, "rate", 0, "Annual inflation rate in percent")
	inflationCmd.Flags().Float64Var(&flagSalary, "salary", 0, "Annual salary adjustment in percent")
	inflationCmd.Flags().IntVar(&flagMonths, "months", 12, "Months to project")
	_ = inflationCmd.MarkFlagRequired("rate")

	rootCmd.AddCommand(cashflowCmd, scenarioCmd, affordCmd, inflationCmd)
}

func runCashFlow(cmd *cobra.Command, _ []string) error {
	if flagMonths < 1 {
		return core.ErrInvalidMonths
	}
	scenario, err := core.ParseScenario(flagScenario)
	if err != nil {
		return fmt.Errorf("invalid scenario %q: %w", flagScenario, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	res, err := a.engine.ProjectCashFlow(cmd.Context(), userID, flagMonths, scenario)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// parseAmount reads a positive currency amount rounded to cents.
func parseAmount(s string) (float64, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return core.Money{Cents: cents}.Units(), nil
}

func runScenario(cmd *cobra.Command, _ []string) error {
	amount, err := parseAmount(flagAmount)
	if err != nil {
		return err
	}
	in := core.ScenarioInput{
		Type:         core.ScenarioType(flagType),
		Amount:       amount,
		Installments: flagInstallments,
	}
	if in.StartDate, err = core.ParseDate(flagStart); err != nil {
		return fmt.Errorf("invalid start date %q: %w", flagStart, err)
	}
	if flagEnd != "" {
		if in.EndDate, err = core.ParseDate(flagEnd); err != nil {
			return fmt.Errorf("invalid end date %q: %w", flagEnd, err)
		}
	}
	if err := in.Validate(); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	res, err := a.engine.SimulateScenario(cmd.Context(), userID, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runAfford(cmd *cobra.Command, _ []string) error {
	amount, err := parseAmount(flagAmount)
	if err != nil {
		return err
	}
	in := core.AffordabilityInput{
		Amount:       amount,
		CategoryID:   flagCategoryID,
		Installments: flagInstallments,
	}
	if err := in.Validate(); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	res, err := a.engine.CheckAffordability(cmd.Context(), userID, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runInflation(cmd *cobra.Command, _ []string) error {
	in := core.InflationInput{
		InflationRate:    flagInflation,
		SalaryAdjustment: flagSalary,
		PeriodMonths:     flagMonths,
	}
	if err := in.Validate(); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	res, err := a.engine.SimulateInflation(cmd.Context(), userID, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
