// Package config loads runtime settings from SDK_* environment variables
// and assembles orchestrator components from them.
//
//	cfg, err := config.Load(ctx)
//	rt, err := cfg.Build(ctx, resolver,
//	    orchestrator.WithService("queue"),
//	    orchestrator.WithIdentityResolver(auth.SchemeSigV4, cfg.Identity.IdentityCache(creds)),
//	)
//	defer rt.Shutdown(ctx)
package config
