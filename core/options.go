package core

// DevMode puts application in to dev mode
var DevMode = false

// IndexKind is the table implementation a fresh server starts with.
// Either "kdtree" or "brute".
var IndexKind = "kdtree"

// MetricsAddr is the HTTP address for the prometheus endpoint. Empty
// disables it.
var MetricsAddr = ""
