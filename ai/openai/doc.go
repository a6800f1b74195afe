// Package openai implements the ai service interfaces against
// OpenAI-compatible inference endpoints (Ollama, LocalAI, vLLM, ...).
package openai
