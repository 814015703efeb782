package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"testseries-service/internal/app"
	"testseries-service/internal/domain"
)

type importFlags struct {
	file      string
	id        string
	title     string
	grade     string
	examType  string
	subject   string
	audience  string
	timeLimit int
	start     string
	end       string
}

// NewImportCmd loads a question JSON file into a live quiz.
func NewImportCmd(configPath *string) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create or replace a live quiz from a question JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, f, cmd)
		},
	}
	cmd.Flags().StringVar(&f.file, "file", "", "path to the question JSON array")
	cmd.Flags().StringVar(&f.id, "id", "", "existing live quiz id to replace")
	cmd.Flags().StringVar(&f.title, "title", "", "quiz title")
	cmd.Flags().StringVar(&f.grade, "grade", "", "grade tag, e.g. IOE")
	cmd.Flags().StringVar(&f.examType, "exam-type", "", "exam type (IOE or CEE)")
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject label")
	cmd.Flags().StringVar(&f.audience, "audience", "", "target audience")
	cmd.Flags().IntVar(&f.timeLimit, "time-limit", 60, "time limit in minutes")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, e.g. 2025-06-01T10:00")
	cmd.Flags().StringVar(&f.end, "end", "", "end time, e.g. 2025-06-01T11:00")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, configPath string, f importFlags, cmd *cobra.Command) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == "memory" {
		return fmt.Errorf("import needs a persistent store; configure postgres or firestore")
	}
	data, err := os.ReadFile(f.file)
	if err != nil {
		return err
	}

	b, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	admin := app.NewAdminService(b.store, b.quizzes, b.store, b.store, appOptions(cfg)...)
	quiz, err := admin.SaveLiveQuiz(ctx, domain.User{ID: "cli", Role: domain.RoleAdmin}, f.id, app.LiveQuizInput{
		Title:          f.title,
		Grade:          f.grade,
		TimeLimit:      f.timeLimit,
		TargetAudience: f.audience,
		StartTime:      f.start,
		EndTime:        f.end,
		ExamType:       f.examType,
		Subject:        f.subject,
		ImportJSON:     json.RawMessage(data),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved live quiz %s with %d questions\n", quiz.ID, len(quiz.Questions))
	return nil
}
