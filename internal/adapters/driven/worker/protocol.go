package worker

// Worker commands. An empty command means the worker's main operation:
// embed for the embedding worker, extract for the NER worker.
const (
	commandPing        = "ping"
	commandCountTokens = "count_tokens"
)

// request is the union of every request shape.
type request struct {
	Command  string   `json:"command,omitempty"`
	Texts    []string `json:"texts"`
	TaskType string   `json:"task_type,omitempty"`
	Title    string   `json:"title,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

type embedResponse struct {
	Vectors     [][]float32 `json:"vectors"`
	TokenCounts []int       `json:"token_counts"`
}

type nerEntity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

type nerResponse struct {
	Results [][]nerEntity `json:"results"`
}
