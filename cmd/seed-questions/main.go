// Command seed-questions loads interview questions and retrieval passages
// from a JSON file into the database.
//
// Usage:
//
//	seed-questions -file seed.json -interview iv-123 [-global]
//
// The file holds {"questions": [...], "corpus": [{"text": ..., "metadata": {...}}]}.
// Questions land in the interview's own list, or with -global in the shared
// collection tagged with the interview id. Corpus passages are scoped the same
// way; an empty -interview sends them to the global corpus.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vango-go/vai-interview/internal/dotenv"
	"github.com/vango-go/vai-interview/pkg/interview/retrieval"
	"github.com/vango-go/vai-interview/pkg/store/postgres"
)

type seedFile struct {
	Questions []string `json:"questions"`
	Corpus    []struct {
		Text     string         `json:"text"`
		Metadata map[string]any `json:"metadata"`
	} `json:"corpus"`
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed-questions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	filePath := fs.String("file", "", "path to the seed JSON file")
	interviewID := fs.String("interview", "", "interview id; required to seed questions")
	global := fs.Bool("global", false, "seed the shared question collection instead of the interview's own list")
	migrate := fs.Bool("migrate", true, "apply schema migrations before seeding")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *filePath == "" {
		return fmt.Errorf("-file is required")
	}

	dsn := os.Getenv("VAI_INTERVIEW_DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("VAI_INTERVIEW_DATABASE_URL must be set")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	if len(seed.Questions) == 0 && len(seed.Corpus) == 0 {
		return fmt.Errorf("seed file has no questions and no corpus")
	}
	if len(seed.Questions) > 0 && *interviewID == "" {
		return fmt.Errorf("-interview is required to seed questions")
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	store, err := postgres.New(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if *migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	if len(seed.Questions) > 0 {
		seedFn := store.SeedQuestions
		if *global {
			seedFn = store.SeedGlobalQuestions
		}
		if err := seedFn(ctx, *interviewID, seed.Questions); err != nil {
			return err
		}
		logger.Info("seeded questions", "count", len(seed.Questions), "interview_id", *interviewID, "global", *global)
	}

	if len(seed.Corpus) > 0 {
		docs := make([]retrieval.Document, 0, len(seed.Corpus))
		for _, c := range seed.Corpus {
			docs = append(docs, retrieval.Document{Text: c.Text, Metadata: c.Metadata})
		}
		if err := store.SeedCorpus(ctx, *interviewID, docs); err != nil {
			return err
		}
		logger.Info("seeded corpus", "count", len(docs))
	}

	return nil
}

func main() {
	if err := dotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "seed-questions: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "seed-questions: %v\n", err)
		os.Exit(1)
	}
}
