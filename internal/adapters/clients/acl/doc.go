// Package acl is the anti-corruption layer between the remote quote source
// and the domain. Remote payloads are decoded into unexported DTOs, translated
// into domain.Quote values here, and never leave the package.
//
// Transport failures and non-2xx responses are mapped onto the domain error
// classes by [MapHTTPError], so the rest of the service only ever sees
// domain errors:
//
//	circuit open, retries exhausted, 5xx, 429 -> domain.ErrUnavailable
//	404                                       -> domain.ErrNotFound
//	400, 422, other 4xx                       -> domain.ErrValidation
//	401, 403                                  -> domain.ErrForbidden
//	409                                       -> domain.ErrConflict
//
// [RemoteQuoteClient] is the only adapter. It implements ports.RemoteQuotes
// and ports.HealthChecker.
package acl
