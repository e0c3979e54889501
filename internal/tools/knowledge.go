package tools

import (
	"context"
	"fmt"

	"github.com/stridelab/stridecoach/pkg/contracts"
)

// NewKnowledgeTool answers training questions from the indexed coaching
// corpus. topK <= 0 lets the retriever apply its default.
func NewKnowledgeTool(retriever contracts.Retriever, topK int) Tool {
	return Tool{
		Name: "get_training_knowledge",
		Description: "Search the coaching knowledge base for training principles, " +
			"workout structure and physiology background relevant to a question.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural-language question to search the knowledge base with.",
				},
			},
			"required": []string{"query"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("argument %q is empty", "query")
			}
			return retriever.Retrieve(ctx, query, topK)
		},
	}
}
