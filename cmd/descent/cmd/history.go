package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/descent/internal/render"
	"github.com/msto63/descent/internal/store"
)

var (
	historyLimit  int
	historyOffset int
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `Lists recorded front-end runs, newest first. Recording requires
store.enabled = true in the configuration.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyStatsCmd, historyClearCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of runs to skip")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "print JSON")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	records, err := service.History(context.Background(), historyLimit, historyOffset)
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(cmd, records)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-19s  %-18s  %s\n", "ID", "CREATED", "STATUS", "SOURCE")
	for _, rec := range records {
		fmt.Fprintf(out, "%-36s  %-19s  %-18s  %s\n",
			rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), recordStatus(rec), excerpt(rec.Source, 40))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	rec, err := service.Lookup(context.Background(), args[0])
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(cmd, rec)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", rec.ID)
	fmt.Fprintf(out, "Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Status:   %s\n", recordStatus(rec))
	fmt.Fprintf(out, "Tokens:   %d\n", rec.TokenCount)
	fmt.Fprintf(out, "Nodes:    %d\n", rec.NodeCount)
	fmt.Fprintf(out, "Duration: %s\n", rec.Duration)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rec.Source)
	fmt.Fprintln(out)

	if !rec.Success {
		position := -1
		if rec.Position != nil {
			position = *rec.Position
		}
		fmt.Fprintln(out, newRenderer(false, false).Error(rec.Source, rec.ErrorCode, rec.Error, position))
		return nil
	}

	var doc interface{}
	if err := json.Unmarshal(rec.AST, &doc); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	stats, err := service.Statistics(context.Background())
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(cmd, stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total:     %d\n", stats.Total)
	fmt.Fprintf(out, "Succeeded: %d\n", stats.Succeeded)
	fmt.Fprintf(out, "Failed:    %d\n", stats.Failed)

	codes := make([]string, 0, len(stats.ByCode))
	for code := range stats.ByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  %-18s %d\n", code, stats.ByCode[code])
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	_, _, service, err := setup(true)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.ClearHistory(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styled(render.OKStyle, "history cleared"))
	return nil
}

func recordStatus(rec *store.Record) string {
	if rec.Success {
		return "ok"
	}
	return rec.ErrorCode
}

// excerpt shortens source to one line of at most n runes
func excerpt(source string, n int) string {
	line := strings.Join(strings.Fields(source), " ")
	runes := []rune(line)
	if len(runes) <= n {
		return line
	}
	return string(runes[:n-3]) + "..."
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
