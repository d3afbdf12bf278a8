// AngelaMos | 2026
// dto.go

package analyze

// Recipe is one suggestion in an analysis result. TimeMins is a pointer so
// that a model response omitting the estimate serializes as null rather
// than zero.
type Recipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	TimeMins    *int     `json:"timeMins"`
}

type AnalyzeResponse struct {
	Ingredients []string `json:"ingredients"`
	Recipes     []Recipe `json:"recipes"`
}

func emptyResult() *AnalyzeResponse {
	return &AnalyzeResponse{
		Ingredients: []string{},
		Recipes:     []Recipe{},
	}
}
