// Package ai defines the interfaces for the external model services the
// pipeline consumes: text embedding and text generation. Both models are
// black boxes; implementations live in subpackages (openai for real
// OpenAI-compatible endpoints, mock for tests).
package ai
