// Package services implements the HTTP clients for the catalog, the auth service, and the remote watchlist.
//
// # Catalog
//
// [CatalogService] implements [Catalog] against the TMDB v3 API. Every request carries the api_key and
// language parameters, waits on a [rate.Limiter], and is retried with exponential backoff (retry-go) on
// transport errors, 429 and 5xx responses. Other 4xx responses fail immediately.
//
// Raw results are decoded as [CatalogItem] and converted with [CatalogItem.ToTitle]:
//   - media_type "movie" → [models.KindMovie], "tv" → [models.KindSeries]
//   - media_type "person" is dropped
//   - a missing media_type falls back to the endpoint's kind, then to the name/first_air_date shape
//
// When a [PageCache] is configured, list pages are stored on success and served (with Page.FromCache set)
// when the catalog cannot be reached.
//
// # Auth
//
// [AuthService] posts credentials to the auth service and validates stored tokens with GET /auth/me.
// Bearer credentials travel through an [oauth2] transport built by [BearerClient].
//
// # Remote Watchlist
//
// [WatchlistService] posts a title to /watchlist/create with the session's bearer credential.
//
// # Error Handling
//
// Non-2xx responses become [*RemoteError], whose message is the service's own text when one was sent:
//   - [shared.ErrNotAuthenticated] : 401 or no credential
//   - [shared.ErrAlreadyExists] : duplicate remote watchlist entry
//   - [shared.ErrTitleNotFound] : catalog 404 on details
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
