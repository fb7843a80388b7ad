// Package jobplace finds where a job is performed. A chat model is given a
// job posting and a single Google Places search tool, and answers with the
// place ID of the workplace on its first line as {"place_id": "..."}.
//
// The package supports:
//   - A bounded tool calling loop over OpenAI chat completions (Runner)
//   - Streaming and non-streaming completions
//   - The google_places tool backed by the places package
//   - Strict first-line extraction of the place ID (ExtractPlaceID)
//   - Sequential batches of postings with per-posting timeouts (RunPostings)
//   - Configuration from YAML, the environment, .env files and the OS keyring
//
// Key Components:
//   - Locator: prompt, agent and extractor for one posting
//   - Runner: drives completions and tool calls until a final answer
//   - Config: settings and credentials
//   - Batch: YAML list of postings
package jobplace
