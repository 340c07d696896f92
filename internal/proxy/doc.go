// Package proxy implements the two fetch-forwarding routes used by the M+ helper page.
//
// # Routes
//
// [Gateway.Authenticated] serves /api/blizzard?url=... It checks the target against an [AllowList],
// attaches a bearer token from a [TokenSource] and streams the JSON body back.
//
// [Gateway.Legacy] serves /proxy?url=... It skips the allow-list and credentials, sends a browser
// User-Agent, and turns HTML bodies into a 403 since those are block pages rather than API errors.
//
// # Errors
//
// Every failure is written by [SendError] as {"error": "..."} with Access-Control-Allow-Origin: *.
//
//	missing url                  400
//	host not allow-listed        403
//	HTML body (legacy only)      403
//	credentials / token endpoint 502
//	network, DNS, timeout        502
//	upstream error status        passed through
//
// Nothing is retried.
package proxy
