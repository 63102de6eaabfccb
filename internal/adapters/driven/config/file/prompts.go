package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from a directory of .txt files and
// falls back to built-in defaults. Files are created on first Load so they
// can be edited.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // prompt text is not wrapped
var defaultPrompts = map[string]string{
	driven.PromptGrounded: `You are a precise, factual assistant specialised in Porsche 911 technical documentation.

STRICT RULES:
- Answer using ONLY information explicitly present in the context below.
- Do NOT add external knowledge, speculate, or summarise beyond what is written.
- If the exact answer is not in the context, respond exactly with:
  "{refusal}"

Context:
{context}

Question: {question}

Answer (strictly follow rules):`,

	driven.PromptJudgeContext: `Rate how relevant the retrieved context is to the question on a scale of 1-10.
Question: {question}
Context: {context}
Score only:`,

	driven.PromptJudgeFaithfulness: `Rate how faithfully the answer uses ONLY information from the context (no hallucination) on a scale of 1-10.
Context: {context}
Answer: {answer}
Score only:`,

	driven.PromptJudgeAnswer: `Rate how well the answer directly and completely answers the question on a scale of 1-10.
Question: {question}
Answer: {answer}
Score only:`,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a prompt store rooted at promptDir, or
// ~/.kurator/prompts when empty. No I/O happens until the first Load.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".kurator", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name: the file's content when present,
// otherwise the default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		def, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Render substitutes {key} placeholders in a template. Unknown placeholders
// are left as they are.
func Render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
