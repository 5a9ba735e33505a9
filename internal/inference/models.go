package inference

// DefaultModel is used when a request names no model.
const DefaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"

// AvailableModels lists the models offered for selection, default first.
var AvailableModels = []string{
	DefaultModel,
	"llama-3.1-8b-instant",
	"qwen/qwen3-32b",
	"openai/gpt-oss-120b",
}

// IsAvailable reports whether model is one of AvailableModels.
func IsAvailable(model string) bool {
	for _, m := range AvailableModels {
		if m == model {
			return true
		}
	}
	return false
}
