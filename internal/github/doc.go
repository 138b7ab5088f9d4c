// Package github implements the paginated, rate-limited fetcher for the
// GitHub REST API that every metadata backup step runs through.
//
// # Architecture
//
// The package comprises the following components:
//
//   - Client: issues GET requests and accumulates paged collections
//   - RateLimiter: proactive token-bucket throttle plus header-driven state
//   - Record: loosely-keyed JSON record preserved verbatim for backup fidelity
//   - Repository: the typed descriptor consumed by filtering and orchestration
//
// # Records
//
// Backed-up entities are written back to disk exactly as the server returned
// them, including fields this tool knows nothing about. Responses are
// therefore decoded into Record maps rather than typed structs; the only keys
// the fetcher itself interprets are "number" (the per-repository identity of
// issues, pull requests and milestones) and the synthetic nested-collection
// keys the orchestrator attaches.
//
// # Pagination
//
// Paged endpoints are walked with page/per_page query parameters at a fixed
// page size of 100. A response carrying fewer elements than the page size is
// the last page. Endpoints that return a single object are fetched with
// FetchOne.
//
// # Rate limiting
//
// Two strategies are combined:
//
//  1. Proactive: a token bucket keeps the request rate under the account
//     limit so the reactive path is rarely exercised.
//
//  2. Reactive: a 403 response whose x-ratelimit-remaining header reads zero
//     is not an error. The client waits until the server's stated
//     x-ratelimit-reset time, with a 10 second floor against missing or
//     broken headers, then retries the same page without losing pages
//     already accumulated.
//
// Any other non-200 response aborts the fetch with an *APIError; no partial
// collection is returned.
//
// # Authentication
//
// Requests optionally carry a Basic authorization header. A personal access
// token is encoded as the basic-auth username with the fixed literal
// "x-oauth-basic" as the password; a username/password pair is encoded as
// usual. Exactly one of token, pair, or nothing is configured, enforced
// before any request is made.
package github
