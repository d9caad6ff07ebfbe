// Package tunnel provides the tunnel registry and the wg-quick
// configuration model it stores.
//
// # Registry
//
// A Registry keeps tunnel records in order, newest first. Each record is
// identified by a name derived from its configuration and reports its
// position as its current offset in the registry:
//
//	reg := tunnel.New(nil)
//	reg.Add(cfg, func(rec *tunnel.Record, err error) {
//	    fmt.Println(rec.Name(), rec.Position()) // wg0 0
//	})
//
// Every mutating call reports its outcome through exactly one completion
// callback. Effects are applied before the callback runs.
//
// # Observers
//
// An Observer attached with SetObserver hears about insertions only. The
// registry keeps a weak reference, so an observer that is no longer used
// elsewhere is collected and simply stops receiving notifications.
//
// # Deferred creation
//
// Create loads the initial tunnels on another goroutine. A Handle lets
// callers ask for the registry before it exists: Registry reports
// ErrTunnelsUninitialized, and WhenReady queues a single callback.
//
// # Thread Safety
//
// Registry is not safe for concurrent use. Handle is.
//
// # Configuration Files
//
// ParseConfig and Configuration.Marshal read and write the wg-quick format.
// Keys are Curve25519 keys; PublicKey derives the public half for display.
package tunnel
