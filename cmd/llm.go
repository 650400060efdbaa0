package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/abhisek/vidtutor/internal/llm"
	"github.com/abhisek/vidtutor/internal/store"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts store.QueryOpts
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.SessionID, _ = cmd.Flags().GetString("session")

		return withStore(cmd, func(ctx context.Context, _ *env, s *store.Store) error {
			events, err := s.EventRepo().QueryLLMEvents(ctx, opts)
			if err != nil {
				return fmt.Errorf("query llm events: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM calls recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tPURPOSE\tMODEL\tTOKENS\tMS\tSESSION\t")
			for _, ev := range events {
				status := ""
				if !ev.Success {
					status = " ✗"
				}
				fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\t\n",
					ev.ID, status,
					ev.Timestamp.Local().Format("01-02 15:04:05"),
					ev.Purpose,
					truncate(ev.Model, 28),
					ev.InputTokens, ev.OutputTokens,
					ev.LatencyMs,
					truncate(ev.SessionID, 8),
				)
			}
			return tw.Flush()
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		return withStore(cmd, func(ctx context.Context, _ *env, s *store.Store) error {
			ev, err := s.EventRepo().GetLLMEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get llm event: %w", err)
			}
			if ev == nil {
				return fmt.Errorf("llm event %d not found", id)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
			field := func(k string, v any) { fmt.Fprintf(tw, "%s:\t%v\n", k, v) }
			field("Time", ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
			field("Provider", ev.Provider+" / "+ev.Model)
			field("Purpose", ev.Purpose)
			if ev.SessionID != "" {
				field("Session", ev.SessionID)
			}
			field("Tokens", fmt.Sprintf("%d in, %d out", ev.InputTokens, ev.OutputTokens))
			if usd, ok := llm.EstimateCost(ev.Model, ev.InputTokens, ev.OutputTokens); ok {
				field("Cost", formatCost(usd))
			}
			field("Latency", fmt.Sprintf("%dms", ev.LatencyMs))
			if ev.ErrorMessage != "" {
				field("Error", ev.ErrorMessage)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			section(out, "PROMPT", ev.RequestBody)
			section(out, "REPLY", ev.ResponseBody)
			return nil
		})
	},
}

func section(w io.Writer, title, body string) {
	if body == "" {
		body = "(empty)"
	}
	fmt.Fprintf(w, "\n── %s %s\n%s\n", title, strings.Repeat("─", max(56-len(title), 4)), strings.TrimRight(body, "\n"))
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, _ *env, s *store.Store) error {
			byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("usage by purpose: %w", err)
			}
			byModel, err := s.EventRepo().LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("usage by model: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(byPurpose) == 0 {
				fmt.Fprintln(out, "No LLM calls recorded.")
				return nil
			}
			if err := writePurposeUsage(out, byPurpose); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return writeModelCost(out, byModel)
		})
	},
}

func writePurposeUsage(w io.Writer, stats []store.LLMUsageStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PURPOSE\tCALLS\tINPUT\tOUTPUT\tAVG MS\t")
	var calls, in, outTok int
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		outTok += st.OutputTokens
	}
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t\t\n", calls, in, outTok)
	return tw.Flush()
}

// writeModelCost prices usage per model. Models missing from the price
// table are listed with "?" and make the total a lower bound.
func writeModelCost(w io.Writer, usage []store.LLMModelUsage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MODEL\tCALLS\tCOST\t")
	var total float64
	partial := false
	for _, mu := range usage {
		cost := "?"
		if usd, ok := llm.EstimateCost(mu.Model, mu.InputTokens, mu.OutputTokens); ok {
			total += usd
			cost = formatCost(usd)
		} else {
			partial = true
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", truncate(mu.Model, 32), mu.Calls, cost)
	}
	label := "total"
	if partial {
		label = "total (at least)"
	}
	fmt.Fprintf(tw, "%s\t\t%s\t\n", label, formatCost(total))
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls with this purpose (e.g. answer-evaluation, hint)")
	llmListCmd.Flags().StringP("session", "s", "", "Only calls made for this session")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
