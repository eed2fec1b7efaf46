// Package rag provides retrieval and generation over ingested datasets:
// the Retriever fetches snippets for a token either ranked by vector
// similarity or in insertion order, and the Gateway turns prompts into
// model output through a classified retry policy, degrading to fixed
// fallback text when the model stays unavailable.
package rag
