// Package main provides the entry point for the webmap CLI.
//
// Webmap recursively discovers and lists the hyperlinks reachable from a
// starting web page, producing a link graph of pages and the references
// between them.
//
// Usage:
//
//	webmap map <url>
//	webmap history --host example.com
//
// See --help for all available options.
package main

// main is the entry point for webmap.
func main() {
	Execute()
}
