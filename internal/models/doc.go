// Package models defines the domain entities shared by the watchwave stores, services, and views.
//
// The package contains three groups of types:
//
// 1. Catalog entries: the normalized shape of a catalog title
//   - [MediaKind] : tag for movies vs. series
//   - [Title] : a catalog snapshot, resolved once at ingestion
//   - [Page] : one page of catalog results
//
// 2. Personal state
//   - [Stats] : aggregate figures over the watched library
//
// 3. Identity
//   - [User] : the authenticated user as reported by the auth service
//
// Catalog JSON is never passed around raw: services convert it to [Title] so downstream code never branches on movie vs. series field names.
package models
