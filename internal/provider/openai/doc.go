// Package openai implements generate-content requests against
// OpenAI-compatible chat completions endpoints.
//
// Provider-neutral contents are flattened into chat messages, the reply's
// first choice becomes the normalized text and candidate, and every other
// top-level response field is preserved in Response.Raw. Credentials and the
// base URL are read from the credential source on every call, and each call
// is dispatched through the credential-rotating retry loop.
package openai
