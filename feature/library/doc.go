// Package library implements the provider aggregator, traditionally
// called the librarian: the one component that talks to external
// metadata providers and feeds their results into the canonical store.
//
// # Flow
//
// Every non-empty provider result is routed through the equivalence
// matcher and merge engine before anything is returned, so callers only
// ever see canonical, locally-merged entities. Provider failures are
// absorbed: the librarian logs them and degrades to whatever the local
// store can answer, because a flaky catalog must never fail a library
// query.
//
// # Network modes
//
//   - Online:  providers are consulted, cached responses accepted.
//   - Offline: only the local store is consulted; partial data is
//     returned rather than an error.
//   - Force:   providers are consulted bypassing response caches.
//
// # Providers
//
// A provider implements Get, List and Search over one external catalog
// and defaults to returning empty results, not errors, for capabilities
// it does not support. Implementations live under feature/providers.
package library
