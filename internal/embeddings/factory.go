package embeddings

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/contracts"
)

// ForProvider builds the embedding driver named by configuration.
func ForProvider(provider, model, apiKey, ollamaEndpoint string) (contracts.EmbeddingDriver, error) {
	var d contracts.EmbeddingDriver
	switch provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("embeddings: OPENAI_API_KEY not set")
		}
		d = NewOpenAIDriver(apiKey, model, "")
	case "ollama":
		d = NewOllamaDriver(ollamaEndpoint, model)
	default:
		return nil, fmt.Errorf("embeddings: unknown provider %q", provider)
	}
	log.Info().Str("provider", d.Kind()).Str("model", model).Int("dims", d.Dimensions()).Msg("Embedding driver ready")
	return d, nil
}
