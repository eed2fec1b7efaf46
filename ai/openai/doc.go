// Package openai implements the ai interfaces against OpenAI-compatible
// APIs (OpenAI itself, Ollama, LocalAI, vLLM) via langchaingo.
package openai
