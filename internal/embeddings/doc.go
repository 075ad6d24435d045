// Package embeddings turns course text and student questions into vectors.
//
// Two providers are supported: OpenAI through langchaingo (the index's
// production model, text-embedding-ada-002) and FastEmbed running a local
// ONNX model for offline development against the embedded chromem index.
// Vectors from different providers are not interchangeable; the index must
// be built with the same provider that serves queries.
package embeddings
