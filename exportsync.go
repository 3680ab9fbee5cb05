// Package exportsync mirrors newly published dataset export files from a
// public index page into cloud object storage. A run fetches the index,
// picks links matching a keyword, downloads files not already present in a
// local directory, and uploads each of them.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, s3/).
package exportsync
