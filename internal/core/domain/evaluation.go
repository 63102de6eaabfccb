package domain

// EvalQuestion is one item of an evaluation dataset.
type EvalQuestion struct {
	ID               string   `yaml:"id" json:"id"`
	Question         string   `yaml:"question" json:"question"`
	ExpectedKeywords []string `yaml:"expected_keywords" json:"expected_keywords"`
}

// EvalOptions selects the evaluation stages to run.
type EvalOptions struct {
	// Answers runs each question through the grounding gate too.
	Answers bool

	// Judge scores generated answers with the generation provider.
	// Implies Answers.
	Judge bool
}

// EvalItemResult is the outcome for one question.
type EvalItemResult struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	FirstHit  int        `json:"first_hit"`
	State     GateState  `json:"state,omitempty"`
	Answer    string     `json:"answer,omitempty"`
	Judgement *Judgement `json:"judgement,omitempty"`
}

// Judgement holds LLM-judge scores in [0, 1].
type Judgement struct {
	ContextRelevance float64 `json:"context_relevance"`
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevance  float64 `json:"answer_relevance"`
}

// EvalReport aggregates an evaluation run.
type EvalReport struct {
	Questions int               `json:"questions"`
	HitRate   float64           `json:"hit_rate"`
	MRR       float64           `json:"mrr"`
	Outcomes  map[GateState]int `json:"outcomes,omitempty"`
	Judgement *Judgement        `json:"judgement,omitempty"`
	Items     []EvalItemResult  `json:"items"`
}
