// Package model defines the data structures shared across webmap.
// It contains the page node, link edge, and graph types that represent
// the result of mapping a site, independent of how the crawl was
// performed or how the result is presented.
package model
