// Package config loads engine configuration from environment variables with
// sensible defaults.
//
// Settings:
//
//	VISOR_FALLBACK_ADMIN_ROLE_ID=""       # role id confirming admin when role listing is forbidden
//	VISOR_BADGE_BATCH_SIZE="5"            # concurrent per-form count fetches
//	VISOR_LEDGER_WRITE_MODE="optimistic"  # optimistic, strict
//	VISOR_PANEL_CACHE_SIZE="512"
//	VISOR_PANEL_CACHE_TTL="0s"            # 0 = never expire within a session
//	VISOR_REDIS_URL=""                    # enables the redis-backed viewed store
//	VISOR_POSTGRES_URL=""                 # enables the SQL-backed viewed store
//	VISOR_LOG_LEVEL="info"                # debug, info, warn, error
package config
