package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner unless logging is console-free
func PrintBanner(config *Config) {
	for _, output := range config.Logging.Output {
		if output == "stdout" || output == "console" {
			banner.PrintSimple("QuizPilot", GetVersion())
			return
		}
	}
}
