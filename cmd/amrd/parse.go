package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
)

var (
	parseInPath  string
	parseOutPath string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parses a tokenized corpus into an AMR corpus file",
	Long: "Reads whitespace-tokenized sentences, one per line, decodes them " +
		"through the model server and writes the resulting AMR corpus. The " +
		"output is the candidate artifact `amrd evaluate` scores.",
	Run: func(cmd *cobra.Command, args []string) { runParse() },
}

func runParse() {
	cfg := loadConfig()
	appState := NewAppState(cfg)

	sentences, err := readTokenizedFile(parseInPath)
	if err != nil {
		log.Fatalf("Error reading tokenized input: %s", err)
	}
	log.Infof("parsing %d sentences from %s", len(sentences), parseInPath)

	entries, err := parseAll(context.Background(), appState, sentences)
	if err != nil {
		log.Fatalf("Error parsing corpus: %s", err)
	}

	if err := writeCorpusFile(parseOutPath, entries); err != nil {
		log.Fatalf("Error writing corpus: %s", err)
	}
	log.Infof("wrote %d graphs to %s", len(entries), parseOutPath)
}

// parseAll runs the corpus through the batch parsing service in batch-size
// chunks, keeping sentence order across chunks.
func parseAll(ctx context.Context, appState *models.AppState, sentences []models.Sentence) ([]*amr.Entry, error) {
	batchSize := appState.Config.Model.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	corpusID := strings.TrimSuffix(filepath.Base(parseInPath), filepath.Ext(parseInPath))
	entries := make([]*amr.Entry, 0, len(sentences))
	for begin := 0; begin < len(sentences); begin += batchSize {
		end := begin + batchSize
		if end > len(sentences) {
			end = len(sentences)
		}

		batch := &models.AMRBatchInput{Sentences: sentences[begin:end]}
		response, err := appState.Parser.Process(ctx, batch)
		if err != nil {
			return nil, err
		}

		for i, graph := range response.AMRParse {
			entry, err := amr.ParseEntry(graph)
			if err != nil {
				return nil, fmt.Errorf("sentence %d produced an unusable graph: %w", begin+i, err)
			}
			entry.ID = fmt.Sprintf("%s.%d", corpusID, begin+i+1)
			if len(entry.Tokens) == 0 {
				entry.Tokens = batch.Sentences[i].TokenTexts()
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// readTokenizedFile reads one whitespace-tokenized sentence per line,
// assigning document offsets as if the lines were joined by single spaces.
func readTokenizedFile(path string) ([]models.Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sentences []models.Sentence
	begin := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		sentence := models.SentenceFromTokens(begin, tokens)
		sentences = append(sentences, sentence)
		begin = sentence.End + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences in %s", path)
	}
	return sentences, nil
}

func writeCorpusFile(path string, entries []*amr.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := amr.WriteCorpus(f, entries); err != nil {
		return err
	}
	return f.Close()
}
