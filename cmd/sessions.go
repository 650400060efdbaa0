package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/store"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored tutoring sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withStore(cmd, func(ctx context.Context, _ *env, s *store.Store) error {
			recs, err := s.SessionRepo().List(ctx, limit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(recs) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			fmt.Printf("%-36s  %-28s  %-11s  %-7s  %-5s  %s\n",
				"ID", "Video", "Phase", "Chapter", "Score", "Updated")
			fmt.Println(strings.Repeat("─", 110))
			for _, r := range recs {
				fmt.Printf("%-36s  %-28s  %-11s  %-7s  %-5d  %s\n",
					r.ID,
					truncate(r.VideoTitle, 28),
					r.Phase,
					chapterLabel(r),
					r.Comprehension,
					r.UpdatedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			return nil
		})
	},
}

func chapterLabel(r store.SessionRecord) string {
	if r.Phase == string(tutor.PhaseComplete) {
		return "done"
	}
	return fmt.Sprintf("%d/%d", r.ChapterIndex+1, r.ChapterCount)
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's progress and turn history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, e *env, s *store.Store) error {
			recorder := session.NewRecorder(s.SessionRepo(), s.EventRepo(), e.log)
			state, doc, err := recorder.Load(ctx, args[0])
			if err != nil {
				return err
			}
			hints, err := s.EventRepo().CountHintEvents(ctx, state.SessionID)
			if err != nil {
				return fmt.Errorf("count hints: %w", err)
			}
			turns, err := s.EventRepo().QueryTurnEvents(ctx, store.QueryOpts{SessionID: state.SessionID})
			if err != nil {
				return fmt.Errorf("query turns: %w", err)
			}

			sep := strings.Repeat("─", 60)
			fmt.Printf("Session:        %s\n", state.SessionID)
			fmt.Printf("Video:          %s (%s)\n", state.VideoTitle, state.VideoID)
			fmt.Printf("Phase:          %s\n", state.Phase)
			fmt.Printf("Comprehension:  %d/100 (%s)\n", state.UserProfile.OverallComprehension, state.UserProfile.ResponseQuality)
			fmt.Printf("Failures:       %d in a row, %d total\n", state.ConsecutiveFailures, state.TotalFailures)
			fmt.Printf("Hints:          %d\n", hints)

			if doc != nil {
				fmt.Println()
				fmt.Println(sep)
				fmt.Println("CHAPTERS")
				fmt.Println(sep)
				for i, ch := range doc.Chapters {
					mark := "  "
					switch {
					case state.Phase != tutor.PhaseComplete && i == state.CurrentChapterIndex:
						mark = "▶ "
					case state.IsUnlocked(i):
						mark = "○ "
					}
					score := "-"
					if sc, ok := state.ChapterScores[i]; ok {
						score = fmt.Sprintf("%d", sc)
					}
					fmt.Printf("%s%-32s  %s-%s  %s\n", mark, truncate(ch.Title, 32),
						tutor.FormatTime(ch.StartTime), tutor.FormatTime(ch.EndTime), score)
				}
			}

			if len(state.UserProfile.Misconceptions) > 0 {
				fmt.Println()
				fmt.Println("Misconceptions: " + strings.Join(state.UserProfile.Misconceptions, "; "))
			}

			fmt.Println()
			fmt.Println(sep)
			fmt.Println("TURNS")
			fmt.Println(sep)
			if len(turns) == 0 {
				fmt.Println("(none recorded)")
			}
			for _, t := range turns {
				score := "  -"
				if t.Score != nil {
					score = fmt.Sprintf("%3d", *t.Score)
				}
				fmt.Printf("%s  %-11s → %-11s  %s  %s\n",
					t.Timestamp.Local().Format("15:04:05"), t.PhaseBefore, t.PhaseAfter, score,
					truncate(t.UserAnswer, 40))
			}
			return nil
		})
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}
