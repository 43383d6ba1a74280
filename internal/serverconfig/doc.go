// Package serverconfig loads the recipeauth-server configuration.
//
// Values are resolved in three layers: engine defaults, the YAML file, then
// RECIPEAUTH_* environment variables. Secrets should come from the
// environment rather than the file:
//
//	RECIPEAUTH_ACCESS_SECRET   access token HMAC secret (>= 32 bytes)
//	RECIPEAUTH_REFRESH_SECRET  refresh token HMAC secret (optional)
//	RECIPEAUTH_DATABASE_DSN    Postgres DSN; empty keeps users in memory
//	RECIPEAUTH_REDIS_ADDR      redis address for one-time flows and revocation
//
// Usage:
//
//	cfg, err := serverconfig.Load("configs/recipeauth.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engineCfg := cfg.EngineConfig()
package serverconfig
