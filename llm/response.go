package llm

import (
	"strings"

	"github.com/voxellab/greenlight/types"
)

// ExtractJSONObject pulls the outermost JSON object out of model output.
// Models occasionally wrap JSON in markdown fences or add prose around
// it; this takes the substring from the first '{' to the last '}'.
func ExtractJSONObject(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", types.NewError(types.ErrValidation, "no JSON object in model output")
	}
	return s[start : end+1], nil
}
