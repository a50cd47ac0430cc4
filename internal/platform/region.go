package platform

import (
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const regionProbeAddr = "8.8.8.8:53"
const regionProbeTimeout = 2 * time.Second

// RestrictedNetwork probes a well-known public DNS endpoint. When it is
// unreachable the host is assumed to sit behind a restricted network and
// GitHub downloads should go through the mirror.
func RestrictedNetwork() bool {
	conn, err := net.DialTimeout("tcp", regionProbeAddr, regionProbeTimeout)
	if err != nil {
		log.Debug().Str("op", "platform/region").Err(err).Msg("Region probe failed, assuming restricted network")
		return true
	}
	conn.Close()
	return false
}
