// Package relay provides a resilient, provider-agnostic client for
// generate-content requests.
//
// A caller builds a provider-neutral [Request] and receives a normalized
// [Response] regardless of whether a Gemini-style or an OpenAI-style backend
// answered. Credentials are rotated round-robin, rate limits are backed off
// per credential cycle, and failures are classified into a small [Error]
// taxonomy.
//
// # Basic Usage
//
//	store := credential.Load(ctx, os.Getenv("API_KEY"), settings.NewMemory(), logger)
//	c := client.New(client.Config{Store: store, Logger: logger})
//
//	resp, err := c.GenerateContent(ctx, &relay.Request{
//	    Model:    "gemini-2.5-flash",
//	    Contents: relay.Prompt("What is the capital of France?"),
//	})
//	if err != nil {
//	    log.Fatal(relay.CleanMessage(err))
//	}
//	fmt.Println(resp.Text)
//
// # Contents
//
// [Contents] is a closed set of shapes:
//
//   - [Prompt]: a bare string, sent as one user turn
//   - [Turn]: a single turn with a role and parts
//   - [Conversation]: an ordered list of turns
//   - [Opaque]: anything else, sent as its string form
//
// [ParseContents] detects the shape of a JSON payload.
//
// # Errors
//
// Errors returned by a client are either a configuration error (no
// credentials, see [ErrNoCredentials]) or an [AllCredentialsFailedError]
// carrying the last observed failure. Use [CleanMessage] to render any error
// for users.
package relay
