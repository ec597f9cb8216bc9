package search

import "fmt"

type serperResponse struct {
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// digest orders sections by trust: the answer box, the knowledge graph, then
// organic results in rank order.
func (r *serperResponse) digest() []string {
	var out []string

	if r.AnswerBox != nil {
		answer := r.AnswerBox.Answer
		if answer == "" {
			answer = r.AnswerBox.Snippet
		}
		if answer != "" {
			out = append(out, "DIRECT ANSWER: "+answer)
		}
	}

	if kg := r.KnowledgeGraph; kg != nil && (kg.Title != "" || kg.Description != "") {
		out = append(out, fmt.Sprintf("KNOWLEDGE GRAPH: %s - %s", kg.Title, kg.Description))
	}

	for _, o := range r.Organic {
		out = append(out, fmt.Sprintf("🔍 REAL-TIME TRUTH from %s\nLINK: %s\nCONTENT: %s",
			orDefault(o.Title, "No Title"),
			orDefault(o.Link, "No Link"),
			orDefault(o.Snippet, "No Snippet"),
		))
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
