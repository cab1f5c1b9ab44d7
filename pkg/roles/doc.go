// Package roles caches the project's role definitions and resolves whether a
// user holds an administrator role.
//
// Role directory availability must never block sign-in: fetch failures
// degrade admin-tooling visibility only. Authorization failures (401/403)
// fall back to a configured known-admin role id with an advisory warning;
// everything else degrades to an empty directory.
package roles
