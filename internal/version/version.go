package version

// Value is overridden at build time with -ldflags "-X sheet-dash/internal/version.Value=...".
var Value = "dev"
