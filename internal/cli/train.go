package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AI2HU/askdb/internal/models"
)

var (
	trainReq    models.TrainingRequest
	trainSchema bool
	trainFile   string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Add training data",
	Long: `Add training data the engine writes SQL from. Pass a question with the SQL
that answers it, a DDL statement, documentation, --schema to learn every table
of the configured database, or --file with a YAML list of items:

  - question: How many customers are there?
    sql: SELECT COUNT(*) FROM customers
  - ddl: CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)
  - documentation: Revenue is always reported in euros`,
	RunE: runTrain,
}

var trainingCmd = &cobra.Command{
	Use:   "training",
	Short: "Manage training data",
}

var trainingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List training data",
	RunE:  runTrainingList,
}

var trainingRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove one training item",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrainingRemove,
}

func init() {
	trainCmd.Flags().StringVar(&trainReq.Question, "question", "", "question answered by --sql")
	trainCmd.Flags().StringVar(&trainReq.SQL, "sql", "", "SQL statement")
	trainCmd.Flags().StringVar(&trainReq.DDL, "ddl", "", "DDL statement")
	trainCmd.Flags().StringVar(&trainReq.Documentation, "documentation", "", "documentation text")
	trainCmd.Flags().BoolVar(&trainSchema, "schema", false, "train on the DDL of every table in the database")
	trainCmd.Flags().StringVarP(&trainFile, "file", "f", "", "YAML file with a list of training items")

	trainingCmd.AddCommand(trainingListCmd)
	trainingCmd.AddCommand(trainingRemoveCmd)
}

// readTrainingFile parses a YAML list of training items
func readTrainingFile(path string) ([]models.TrainingRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training file: %w", err)
	}

	var reqs []models.TrainingRequest
	if err := yaml.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("failed to parse training file: %w", err)
	}
	for i, req := range reqs {
		if req.IsEmpty() {
			return nil, fmt.Errorf("training item %d is empty", i+1)
		}
	}
	return reqs, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	var reqs []models.TrainingRequest
	if trainFile != "" {
		fileReqs, err := readTrainingFile(trainFile)
		if err != nil {
			return err
		}
		reqs = append(reqs, fileReqs...)
	}
	if !trainReq.IsEmpty() {
		reqs = append(reqs, trainReq)
	}
	if len(reqs) == 0 && !trainSchema {
		return fmt.Errorf("nothing to train on: pass --question/--sql, --ddl, --documentation, --schema or --file")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	var ids []string
	if trainSchema {
		schemaIDs, err := a.training.TrainSchema(ctx, a.runner)
		ids = append(ids, schemaIDs...)
		if err != nil {
			return err
		}
	}

	trained, err := a.training.TrainAll(ctx, reqs)
	ids = append(ids, trained...)
	for _, id := range ids {
		fmt.Println(FormatSuccess("✓ ") + id)
	}
	if err != nil {
		return err
	}

	fmt.Println(FormatCountLabel("Trained items:", len(ids)))
	return nil
}

func runTrainingList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	items, err := a.training.ListTrainingData(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(FormatWarning("No training data yet. Add some with 'askdb train'."))
		return nil
	}

	for _, item := range items {
		fmt.Printf("%s %s\n", FormatLabel(item.ID), FormatMeta("["+item.Type+"]"))
		if item.Question != "" {
			fmt.Printf("  %s\n", FormatValue(item.Question))
		}
		fmt.Printf("  %s\n\n", strings.ReplaceAll(strings.TrimSpace(item.Content), "\n", "\n  "))
	}
	fmt.Println(FormatCountLabel("Total:", len(items)))
	return nil
}

func runTrainingRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	removed, err := a.training.RemoveTrainingData(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("couldn't remove training data %s", args[0])
	}
	fmt.Println(FormatSuccess("Removed " + args[0]))
	return nil
}
