// Package token mints and inspects the bearer credential the request gateway
// attaches to every backend call. The credential is a self-issued HS256 token
// so its expiry is encoded and locally verifiable; callers outside this
// package treat the string as opaque.
package token
