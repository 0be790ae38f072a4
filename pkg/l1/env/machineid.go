package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// FallbackBoardID is used when the machine ID is not available.
const FallbackBoardID = "board0"

// MachineBoardID derives a stable board ID from the machine ID.
func MachineBoardID() string {
	id, err := machineid.ProtectedID("serial.go")
	if err != nil {
		glog.Warningf("machine id unavailable, using %q: %v", FallbackBoardID, err)
		return FallbackBoardID
	}
	return "fw-" + id[:12]
}
