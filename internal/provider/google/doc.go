// Package google implements generate-content requests against the Gemini
// API through google.golang.org/genai.
//
// Requests already use the Gemini shape, so contents and config pass through
// with minimal mapping. One SDK client is cached per credential and base URL;
// each call is dispatched through the credential-rotating retry loop.
package google
