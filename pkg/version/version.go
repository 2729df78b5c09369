package version

import "fmt"

// Current is overwritten at build time with -ldflags "-X .../version.Current=v1.2.3".
var Current = "dev"

const AppName = "kinship"

// UserAgent identifies this build to remote services.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, Current)
}
