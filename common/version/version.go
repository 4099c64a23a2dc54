package version

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

var GitCommit string
var Version string

const productName = "nzbkit"

func SetDefaults() {
	build, infoOk := debug.ReadBuildInfo()

	if GitCommit == "" {
		GitCommit = ".dev"
		if infoOk {
			for _, setting := range build.Settings {
				if setting.Key == "vcs.revision" {
					GitCommit = setting.Value
					break
				}
			}
		}
	}

	if Version == "" {
		Version = "unknown"
		if infoOk && build.Main.Version != "" && build.Main.Version != "(devel)" {
			Version = build.Main.Version
		}
	}
}

// UserAgent is sent as the Server header and the User-Agent of posted articles.
func UserAgent() string {
	SetDefaults()
	return productName + "/" + Version
}

func Print(w io.Writer, usingLogger bool) {
	SetDefaults()

	if usingLogger {
		logrus.Info("Version: " + Version)
		logrus.Info("Commit: " + GitCommit)
	} else {
		_, _ = fmt.Fprintln(w, productName+" "+Version)
		_, _ = fmt.Fprintln(w, "Commit: "+GitCommit)
	}
}
