// Package devserver is a small in-memory implementation of the tasting API,
// used for local development and client integration tests.
//
// # Endpoints
//
//	GET    /users                  list users
//	DELETE /users/{id}             delete a user and drop its sessions
//	POST   /users/{id}/login       open a session (409 if unique and busy)
//	POST   /users/{id}/logout      close one session, or all with empty sessionId
//	POST   /users/{id}/heartbeat   extend a session (401 unknown, 404 no user)
//	GET    /events                 list events
//	GET    /events/{id}/wines      wines of an event
//	GET    /events/{id}/pagella    read the shared note
//	PUT    /events/{id}/pagella    write the shared note
//
// # Sessions
//
// Session ids are HS256 JWTs carrying sub, jti and iat. The Registry tracks
// which jtis are live: a session expires after three missed heartbeats.
// MemoryRegistry is the default; RedisRegistry keeps one key per session
// with a TTL so several server processes can share state.
//
// # Configuration
//
// LoadConfig reads an optional .env file, then the environment:
//
//	SOMMELIER_ADDR               listen address (127.0.0.1:8787)
//	SOMMELIER_JWT_SECRET         token signing key
//	SOMMELIER_HEARTBEAT_SECONDS  client heartbeat interval (60)
//	SOMMELIER_LOG_LEVEL          debug, info, warn or error
//	REDIS_URL                    enables the Redis registry
package devserver
