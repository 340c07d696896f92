// Package server provides HTTP routing, middleware, static files and the listener for the gateway.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Unlike per-route wrapping, the [BasicRouter] applies its stack around the whole mux, so middleware such as
// [CORS] also sees requests no route matches (preflights for arbitrary paths).
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Route Table
//
// [NewRouter] mounts the proxy [proxy.Gateway] routes, the Prometheus handler and the [StaticHandler].
// Each entry is a plain handler; there is no base type to extend.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Static Files
//
// [StaticHandler] serves the page directory. "/" maps to the configured index file,
// and dotfiles are hidden so the env file holding client secrets is never served.
package server
