package vanna

import (
	"fmt"
	"strings"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

const responseGuidelines = "===Response Guidelines \n" +
	"1. If the provided context is sufficient, please generate a valid SQL query without any explanations for the question. \n" +
	"2. If the provided context is almost sufficient but requires knowledge of a specific string in a particular column, please generate an intermediate SQL query to find the distinct strings in that column. Prepend the query with a comment saying intermediate_sql \n" +
	"3. If the provided context is insufficient, please explain why it can't be generated. \n" +
	"4. Please use the most relevant table(s). \n" +
	"5. If the question has been asked and answered before, please repeat the answer exactly as it was given before. \n"

// estimateTokens approximates the token count of text at four characters
// per token
func estimateTokens(text string) int {
	return len(text) / 4
}

// SQLPrompt builds the chat asking for a statement that answers question.
// DDL and documentation are added while they fit in MaxPromptTokens; earlier
// question/SQL pairs become few-shot examples.
func (a *Assistant) SQLPrompt(question string, related *Related) []llm.Message {
	system := fmt.Sprintf("You are a %s expert. ", a.dialect) +
		"Please help to generate a SQL query to answer the question. Your response should ONLY be based on the given context and follow the response guidelines and format instructions. "

	if related != nil {
		system = appendSection(system, "\n===Tables \n", related.DDL, a.MaxPromptTokens)
		system = appendSection(system, "\n===Additional Context \n\n", related.Documentation, a.MaxPromptTokens)
	}
	system += responseGuidelines

	messages := []llm.Message{llm.SystemMessage(system)}
	if related != nil {
		for _, pair := range related.QuestionSQL {
			if pair.Question == "" || pair.SQL == "" {
				continue
			}
			messages = append(messages, llm.UserMessage(pair.Question), llm.AssistantMessage(pair.SQL))
		}
	}
	return append(messages, llm.UserMessage(question))
}

func appendSection(prompt, header string, items []string, maxTokens int) string {
	if len(items) == 0 {
		return prompt
	}
	prompt += header
	for _, item := range items {
		if estimateTokens(prompt)+estimateTokens(item) < maxTokens {
			prompt += item + "\n\n"
		}
	}
	return prompt
}

// QuestionPrompt asks for the business question behind a statement
func QuestionPrompt(sql string) []llm.Message {
	return []llm.Message{
		llm.SystemMessage("The user will give you SQL and you will try to guess what the business question this query is answering. " +
			"Return just the question without any additional explanation. Do not reference the table name in the question."),
		llm.UserMessage(sql),
	}
}

// followupPreviewRows caps the result rows shown to the model
const followupPreviewRows = 25

// FollowupPrompt asks for n questions building on a query result
func FollowupPrompt(question, sql string, df *models.DataFrame, n int) []llm.Message {
	system := fmt.Sprintf("You are a helpful data assistant. The user asked the question: '%s'\n\n", question) +
		fmt.Sprintf("The SQL query for this question was: %s\n\n", sql)
	if df != nil {
		system += fmt.Sprintf("The following is a table with the results of the query: \n%s\n\n", df.Head(followupPreviewRows).Markdown())
	}

	user := fmt.Sprintf("Generate a list of %d followup questions that the user might ask about this data. ", n) +
		"Respond with a list of questions, one per line. Do not answer with any explanations -- just the questions. " +
		"Remember that there should be an unambiguous SQL query that can be generated from the question. " +
		"Prefer questions that are answerable outside of the context of this conversation. " +
		"Prefer questions that are slight modifications of the SQL query that generated the table. " +
		"Prefer questions that are answerable using the data in the table."

	return []llm.Message{llm.SystemMessage(system), llm.UserMessage(user)}
}

// ChartPrompt asks for a JSON chart spec for a query result
func ChartPrompt(question, sql string, df *models.DataFrame) []llm.Message {
	var meta strings.Builder
	if df != nil {
		meta.WriteString("Column types:\n")
		meta.WriteString(df.DtypesString())
		fmt.Fprintf(&meta, "Row count: %d\n", df.Len())
	}

	system := fmt.Sprintf("The following is a table that contains the results of the query that answers the question the user asked: '%s'\n\n", question) +
		fmt.Sprintf("The table was produced using this query: %s\n\n", sql) +
		fmt.Sprintf("The following is information about the resulting table: \n%s", meta.String())

	user := "Choose a chart for the results. Respond with a single JSON object and nothing else, in the form " +
		`{"type": "bar|line|scatter|pie|histogram|indicator", "x": "<column>", "y": ["<column>", ...], "title": "<title>"}. ` +
		"Only use column names listed above. If there is only one value, use an indicator."

	return []llm.Message{llm.SystemMessage(system), llm.UserMessage(user)}
}
