// Package web provides the browser UI for sqlpeek.
//
// Routes:
//
//	GET  /login    login form (public)
//	POST /login    login submit (public)
//	GET  /logout   destroy session (public)
//	GET  /         users table for the bound database (auth)
//	POST /set-db   bind a database path (auth)
//
// Authentication is cookie-session based; requireAuth redirects anonymous
// or expired sessions to /login. Templates are embedded with go:embed.
package web
