// Package client provides the unified generate-content client.
//
// The Client wraps the provider adapters and provides:
//
//   - Provider routing: the active provider is read from the credential store on every call
//   - Credential rotation: round-robin across every configured key
//   - Automatic retries: keys × 3 attempts, rate limits back off per key cycle
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
// Load a credential store and create a client:
//
//	store := credential.Load(ctx, os.Getenv("API_KEY"), settings.NewMemory(), logger)
//	c := client.New(client.Config{Store: store, Logger: logger})
//
//	resp, err := c.GenerateContent(ctx, &relay.Request{
//	    Model:    "gemini-2.5-flash",
//	    Contents: relay.Prompt("Hello!"),
//	})
//
// # Switching Providers
//
// The provider is part of the store, not the client:
//
//	_ = store.SetProvider(ctx, relay.ProviderOpenAI)
//	resp, _ = c.GenerateContent(ctx, &relay.Request{Model: "gpt-4o-mini", Contents: relay.Prompt("Hi")})
//
// # Retry Configuration
//
// Each key gets three attempts per call. A 429 waits 2s × cycle before the
// next attempt; other failures move straight on to the next key:
//
//	cfg := client.DefaultRetryConfig()
//	cfg.BaseDelay = 500 * time.Millisecond
//	c := client.New(client.Config{Store: store, RetryConfig: &cfg})
//
// # Events
//
// Observe operations via an event channel:
//
//	events := make(chan client.Event, 100)
//	c := client.New(client.Config{Store: store, Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.OpID, e.Duration)
//	    }
//	}()
package client
