// Package environ classifies the execution environment. On-premises
// installations sit behind a restricted network and must route package
// installs through an internal proxy index.
package environ

import "strings"

// onpremMarker is the substring in the runtime image identifier that
// identifies an on-premises Jupyter environment.
const onpremMarker = "onprem"

// RunningOnPrem reports whether the given image spec identifies an
// on-premises environment. An empty or unset spec is treated as
// not-on-prem: the common case is an open network, and failing open keeps
// local development working without a proxy.
func RunningOnPrem(imageSpec string) bool {
	return strings.Contains(imageSpec, onpremMarker)
}
