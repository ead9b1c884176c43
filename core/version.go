package core

// Build variables, set with -ldflags at link time.
var (
	Version   = "0.0.0"
	GitSHA    = "0000000"
	BuildTime = ""
)
