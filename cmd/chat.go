package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/abhisek/vidtutor/internal/console"
	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a tutoring session in the terminal",
	Long: "Start a tutoring session for a video from an analysis file (as written\n" +
		"by `vidtutor analyze`), or continue a stored one with --resume.",
	RunE: func(cmd *cobra.Command, args []string) error {
		analysisPath, _ := cmd.Flags().GetString("analysis")
		resumeID, _ := cmd.Flags().GetString("resume")
		if analysisPath == "" && resumeID == "" {
			return errors.New("one of --analysis or --resume is required")
		}

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.log.Sync()

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
		recorder := session.NewRecorder(st.SessionRepo(), st.EventRepo(), e.log)

		opts := console.Options{
			Tutor:    tutor.NewService(provider, tutor.WithConfig(e.cfg.Tutor), tutor.WithLogger(e.log)),
			Recorder: recorder,
		}

		if resumeID != "" {
			state, doc, err := recorder.Load(ctx, resumeID)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("session %s has no stored analysis", resumeID)
			}
			opts.Resume = state
			opts.Analysis = doc
			opts.VideoID = state.VideoID
			opts.VideoTitle = state.VideoTitle
		} else {
			doc, err := readAnalysis(analysisPath)
			if err != nil {
				return err
			}
			opts.Analysis = doc
			opts.VideoID, _ = cmd.Flags().GetString("video-id")
			opts.VideoTitle, _ = cmd.Flags().GetString("title")
			if opts.VideoTitle == "" && len(doc.Topics) > 0 {
				opts.VideoTitle = doc.Topics[0]
			}
			if opts.VideoID == "" {
				opts.VideoID = opts.VideoTitle
			}
		}

		return console.Run(ctx, opts)
	},
}

func readAnalysis(path string) (*tutor.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	var doc tutor.Analysis
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse analysis %s: %w", path, err)
	}
	if len(doc.Chapters) == 0 {
		return nil, fmt.Errorf("analysis %s has no chapters", path)
	}
	return &doc, nil
}

func init() {
	chatCmd.Flags().StringP("analysis", "a", "", "Analysis JSON file")
	chatCmd.Flags().String("video-id", "", "Video ID (defaults to the title)")
	chatCmd.Flags().StringP("title", "t", "", "Video title (defaults to the first analysis topic)")
	chatCmd.Flags().String("resume", "", "Resume a stored session by ID")
}
