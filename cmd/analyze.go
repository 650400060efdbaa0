package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/abhisek/vidtutor/internal/analysis"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Split a caption file into chapters for tutoring",
	Long: "Read a WebVTT or SRT caption file and write the chapter analysis JSON\n" +
		"that `vidtutor chat --analysis` and the HTTP API consume.",
	RunE: func(cmd *cobra.Command, args []string) error {
		captionsPath, _ := cmd.Flags().GetString("captions")
		title, _ := cmd.Flags().GetString("title")
		outPath, _ := cmd.Flags().GetString("output")
		if captionsPath == "" || title == "" {
			return errors.New("--captions and --title are required")
		}

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.log.Sync()

		f, err := os.Open(captionsPath)
		if err != nil {
			return fmt.Errorf("open captions: %w", err)
		}
		segments, err := analysis.ParseCaptions(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse captions: %w", err)
		}

		ctx := cmd.Context()
		st, err := e.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := e.provider(ctx, st)
		if err != nil {
			return err
		}

		res, err := analysis.NewAnalyzer(provider, e.log).Analyze(ctx, title, segments)
		if err != nil {
			return err
		}
		if res.Warning != "" {
			fmt.Fprintln(os.Stderr, "warning:", res.Warning)
		}

		out, err := json.MarshalIndent(res.Analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		out = append(out, '\n')
		if outPath == "" || outPath == "-" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("write analysis: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d chapters to %s\n", len(res.Analysis.Chapters), outPath)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringP("captions", "c", "", "Caption file (.vtt or .srt)")
	analyzeCmd.Flags().StringP("title", "t", "", "Video title")
	analyzeCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
