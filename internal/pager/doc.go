// Package pager drives infinite-scroll lists.
//
// A [Controller] pulls pages from a [Source] one at a time. Page 1 replaces the list, later pages append,
// and an empty page ends it. [Sentinel] turns a cursor position into the proximity signal that asks for
// the next page.
package pager
