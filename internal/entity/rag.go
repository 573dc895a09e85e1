package entity

import "encoding/json"

type RAGQueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type RAGQueryResponse struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources,omitempty"`
	NumContexts *int     `json:"num_contexts,omitempty"`
}

// ToAnswer converts the wire response into the domain result
func (r *RAGQueryResponse) ToAnswer() *AnswerResult {
	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}

	return &AnswerResult{
		AnswerText:  r.Answer,
		Sources:     sources,
		NumContexts: r.NumContexts,
	}
}

// RAGErrorResponse is the failure body of the backend. Detail is kept raw
// because validation failures carry a list instead of a string.
type RAGErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// DetailString returns the detail only when it is a non-empty JSON string
func (r *RAGErrorResponse) DetailString() string {
	if len(r.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(r.Detail, &detail); err != nil {
		return ""
	}

	return detail
}

type RAGHealthResponse struct {
	Message string `json:"message"`
}

// RAGUploadResponse is the optional success body of an upload
type RAGUploadResponse struct {
	Message        string `json:"message"`
	Filename       string `json:"filename"`
	EventID        string `json:"event_id"`
	ChunksIngested int    `json:"chunks_ingested,omitempty"`
}
