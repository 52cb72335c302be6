// Package llm provides language model clients that return JSON payloads for
// the classification stages. It supports Gemini, OpenAI, and Anthropic, with
// retry logic, rate limiting, and response caching layered on top by Generator.
package llm
