// Package menugate is the resilient data gateway between the browser-resident
// admin client and its backend: every network call, credential refresh,
// offline fallback, and authorization change flows through it.
//
// The package is the only public surface. It exposes [Gateway], [Builder],
// [Config], and value types (Envelope, Mutation, ReadResult, etc.).
// Supporting concerns live in cohesive subpackages (session, token,
// permission) or under internal/ and are wired together by [Builder.Build].
//
// # Architecture boundaries
//
// Consumers of the gateway are thin: product editors, voucher forms, chart
// renderers, and modal dialogs call in and trust the returned [Envelope] or
// subscribe to authorization-change notifications. None of them contain
// failure-handling or consistency logic of their own.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or wire-decoding details in its
//     public API.
//   - Force a logout or raise an unhandled failure to the presentation
//     layer; every failure resolves to a normalized envelope, a cached
//     snapshot, or a queued mutation.
//   - Auto-retry an unauthorized call (the caller decides whether to refresh
//     and retry, at most once).
package menugate
