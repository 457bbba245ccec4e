package signal

import "github.com/miali88/flowonai/internal/adapters/signal/wire"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, wire.Simple(wire.TypePong))
}
