package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askRows int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the SQL and its result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askRows, "rows", "n", 10, "number of rows to print")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	question := strings.Join(args, " ")
	sql, df, err := a.questions.Ask(ctx, question)
	if sql != "" {
		fmt.Println(FormatTitle("SQL"))
		fmt.Println(sql)
		fmt.Println()
	}
	if err != nil {
		return err
	}

	fmt.Println(FormatTitle("Result"))
	fmt.Print(df.Head(askRows).Markdown())
	if df.Len() > askRows {
		fmt.Println(FormatMeta(fmt.Sprintf("... %d more rows", df.Len()-askRows)))
	}
	return nil
}
