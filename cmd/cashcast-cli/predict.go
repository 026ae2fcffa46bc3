package main

import (
	"errors"

	"github.com/spf13/cobra"

	"cashcast/internal/core"
	"cashcast/internal/services"
)

var (
	flagCategoryID int64
	flagMonth      string
	flagStore      bool
	flagAllUsers   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a category's spending for a month",
	Long:  "Predict one category, or every variable category when --category is omitted.",
	RunE:  runPredict,
}

var variabilityCmd = &cobra.Command{
	Use:   "variability",
	Short: "Classify expense categories as variable or fixed",
	RunE:  runVariability,
}

var seasonalityCmd = &cobra.Command{
	Use:   "seasonality",
	Short: "Show a category's seasonal factor for a calendar month",
	RunE:  runSeasonality,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute and store predictions for variable categories",
	RunE:  runRefresh,
}

func init() {
	predictCmd.Flags().Int64VarP(&flagCategoryID, "category", "c", 0, "Category id")
	predictCmd.Flags().StringVar(&flagMonth, "month", "", "Target month YYYY-MM (defaults to next month)")
	predictCmd.Flags().BoolVar(&flagStore, "store", false, "Store the prediction in the prediction cache")

	seasonalityCmd.Flags().Int64VarP(&flagCategoryID, "category", "c", 0, "Category id")
	seasonalityCmd.Flags().StringVar(&flagMonth, "month", "", "Month YYYY-MM whose calendar month is compared (defaults to next month)")
	_ = seasonalityCmd.MarkFlagRequired("category")

	refreshCmd.Flags().StringVar(&flagMonth, "month", "", "Target month YYYY-MM (defaults to next month)")
	refreshCmd.Flags().BoolVar(&flagAllUsers, "all", false, "Refresh every user with transactions")

	rootCmd.AddCommand(predictCmd, variabilityCmd, seasonalityCmd, refreshCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	month, err := a.month(flagMonth)
	if err != nil {
		return err
	}

	if flagCategoryID == 0 {
		preds, err := a.engine.PredictVariable(cmd.Context(), userID, month)
		if err != nil {
			return err
		}
		if preds == nil {
			preds = []core.Prediction{}
		}
		return printJSON(cmd.OutOrStdout(), preds)
	}
	if flagCategoryID < 0 {
		return errors.New("category id must be positive")
	}

	var pred *core.Prediction
	if flagStore {
		pred, err = a.predictions.Predict(cmd.Context(), userID, flagCategoryID, month)
	} else {
		pred, err = a.engine.Predict(cmd.Context(), userID, flagCategoryID, month)
	}
	if err != nil {
		return err
	}
	if pred == nil {
		a.logger.Warn("Not enough history to predict", "category_id", flagCategoryID, "month", month.String())
	}
	return printJSON(cmd.OutOrStdout(), pred)
}

func runVariability(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, err := a.userID()
	if err != nil {
		return err
	}
	verdicts, err := a.engine.DetectVariableCategories(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if verdicts == nil {
		verdicts = []core.VariabilityVerdict{}
	}
	return printJSON(cmd.OutOrStdout(), verdicts)
}

func runSeasonality(cmd *cobra.Command, _ []string) error {
	if flagCategoryID <= 0 {
		return errors.New("category id must be positive")
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
	month, err := a.month(flagMonth)
	if err != nil {
		return err
	}
	factor, err := a.engine.Seasonality(cmd.Context(), userID, flagCategoryID, month.MonthIndex())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), factor)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	month, err := a.month(flagMonth)
	if err != nil {
		return err
	}

	if flagAllUsers {
		reports, err := a.predictions.RefreshAll(cmd.Context(), month)
		if err != nil {
			return err
		}
		if reports == nil {
			reports = []services.RefreshReport{}
		}
		return printJSON(cmd.OutOrStdout(), reports)
	}

	userID, err := a.userID()
	if err != nil {
		return err
	}
	report, err := a.predictions.Refresh(cmd.Context(), userID, month)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
