package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
)

var interviewFileExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".avi": {},
	".mov": {},
}

func newAddFileCommand(ctx *commandContext) *cobra.Command {
	var study string
	var interviewType string

	cmd := &cobra.Command{
		Use:   "add-file <path>...",
		Short: "Register interview recordings with the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				if err := store.AddStudy(cmd.Context(), study); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args {
					absPath, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve path: %w", err)
					}

					info, err := os.Stat(absPath)
					if err != nil {
						if errors.Is(err, os.ErrNotExist) {
							return fmt.Errorf("file does not exist: %s", absPath)
						}
						return fmt.Errorf("inspect file: %w", err)
					}
					if info.IsDir() {
						return fmt.Errorf("%s is a directory", absPath)
					}

					ext := strings.ToLower(filepath.Ext(info.Name()))
					if _, ok := interviewFileExtensions[ext]; !ok {
						return fmt.Errorf("unsupported file extension %q", ext)
					}

					interview := strings.TrimSuffix(filepath.Base(absPath), ext)
					if err := store.AddInterviewFile(cmd.Context(), ledger.InterviewFile{
						FilePath:      absPath,
						InterviewName: interview,
						StudyID:       study,
						InterviewType: interviewType,
					}); err != nil {
						return err
					}
					fmt.Fprintf(out, "Registered %s (%s) for study %s\n", interview, filepath.Base(absPath), study)

					gated, err := store.IsExcluded(cmd.Context(), ledger.StageMetadata, absPath)
					if err != nil {
						return err
					}
					if gated {
						fmt.Fprintf(out, "Note: this file is gated for the metadata stage; re-admit it with 'shuttle gate remove %s %s'\n", ledger.StageMetadata, absPath)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&study, "study", "s", "", "Study partition the recordings belong to")
	cmd.Flags().StringVar(&interviewType, "type", "", "Interview type (defaults to onsite)")
	_ = cmd.MarkFlagRequired("study")
	return cmd
}
