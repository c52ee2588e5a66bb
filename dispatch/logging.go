package dispatch

import "github.com/op/go-logging"

var log = logging.MustGetLogger("pldm/dispatch")
