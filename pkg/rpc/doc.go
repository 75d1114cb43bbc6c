// Package rpc implements the real-time channel between the provider and the
// remote wallet.
//
// The channel is a single websocket. After the socket opens, the client sends
//
//	{"action":"getConnectionID"}
//
// and the server answers with
//
//	{"type":"connectionID","data":{"value":"<id>"}}
//
// The connection id identifies this client to the signer window, which reports
// the outcome of every user interaction back over the same socket:
//
//	{"type":"signature","data":{"value":"0x..."}}
//
// A null value means the user cancelled the interaction.
//
// # Connection lifecycle
//
// Conn moves through three states:
//
//	Disconnected --Connect--> Connecting --connectionID--> Connected
//
// A transport failure while connecting fails the Connect call. A transport
// failure while connected clears the session and invokes the DisconnectHandler.
// The connection never reconnects on its own; the next Connect starts over.
//
// Example:
//
//	conn := rpc.NewWebsocketConn("wss://ws-api.example", rpc.DefaultWebsocketConnConfig, lg)
//	conn.OnMessage(func(msg rpc.Message) {
//	    lg.Info("message received", "type", msg.Type)
//	})
//	conn.OnDisconnect(func(err error) {
//	    lg.Warn("channel lost", "error", err)
//	})
//	if err := conn.Connect(ctx); err != nil {
//	    return err
//	}
//	fmt.Println(conn.Session().ConnectionID)
package rpc
