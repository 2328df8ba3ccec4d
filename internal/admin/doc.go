// Package admin implements the operator command line of authkeeper.
//
// Usage:
//
//	admin <command> [flags] [config flags]
//
// Commands:
//
//	create     -role R -email E [-name N]   register a principal (password prompted)
//	verify     -role R -email E             check a password (prompted)
//	ban        -id ID                       suspend a principal and revoke its sessions
//	unban      -id ID                       reactivate a suspended principal
//	delete     -id ID                       soft-delete a principal
//	revoke-all -id ID                       end every session of a principal
//
// Config flags (-d, -s, ...) and the JSON/env sources are the server's.
package admin
