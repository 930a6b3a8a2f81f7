// Package orchestrator drives one API operation through serialization,
// auth selection, endpoint resolution, signing, transmission,
// deserialization and retries.
//
// # Lifecycle
//
// Invoke runs the interceptor hooks in a fixed order around each step:
//
//	read_before_execution
//	modify/read_before_serialization, serialize, read_after_serialization
//	modify_before_retry_loop, select auth scheme, initial-request admission
//	per attempt:
//	    read_before_attempt, resolve endpoint
//	    modify/read_before_signing, resolve identity, sign, read_after_signing
//	    modify/read_before_transmit, transmit, read_after_transmit
//	    modify/read_before_deserialization, deserialize, read_after_deserialization
//	    modify_before_attempt_completion, read_after_attempt
//	    retry decision
//	modify_before_completion, read_after_execution
//
// A failing hook skips to the next completion hooks. Completion hooks always
// run and a later failure replaces an earlier one.
//
// Auth selection happens once, before the first attempt, and performs no
// I/O: a client that cannot sign the operation fails without sending
// anything and with zero attempts recorded.
//
// # Components
//
// Components bundles the client-wide collaborators. Build it once per
// client and share it across goroutines:
//
//	components, err := orchestrator.NewComponents(
//	    orchestrator.WithService("queue"),
//	    orchestrator.WithEndpointResolver(resolver),
//	    orchestrator.WithAuthOptions(auth.StaticOptions(auth.NewOption(auth.SchemeBearer))),
//	    orchestrator.WithIdentityResolver(auth.SchemeBearer, identity.NewCache(tokens, identity.CacheConfig{})),
//	)
package orchestrator
