// Package templates renders the sweeper's HTML pages as templ components.
//
// The *_templ.go files are generated from the .templ sources beside them.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate -path .
