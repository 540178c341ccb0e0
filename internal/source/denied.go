package source

import "log/slog"

const (
	googleConsoleURL = "https://console.cloud.google.com/apis/library"
	graphExplorerURL = "https://developers.facebook.com/tools/explorer"
)

// reportDenied is the operator-facing message for a rejected credential. It is
// logged at error level with the capabilities that must be enabled.
func reportDenied(logger *slog.Logger, upstream, console string, enable []string, err error) {
	logger.Error("Upstream denied the request: enable the listed APIs for this credential and retry",
		"upstream", upstream,
		"enable", enable,
		"console", console,
		"err", err)
}
