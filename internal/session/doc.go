// Package session owns a TCP connection to saned and runs the protocol
// commands over it in order.
//
// A Session is created with Dial (or New for an existing net.Conn) and must
// be initialized before any other command:
//
//	s, err := session.DialAndInit(ctx, "scanhost", session.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	devices, err := s.ListDevices()
//
// Each exchange runs under Options.IOTimeout. A transport or decode failure
// leaves the stream at an unknown position, so the session is marked broken
// and every later call returns ErrBroken; the caller must dial again. A
// status error breaks it as well: saned still sends the rest of the reply,
// which is never read.
//
// Connect failures are classified by ClassifyNetworkError, and
// ShortErrorMessage and TroubleshootingHint turn any session error into text
// for the command line.
package session
