// File: internal/iotransport/tls.go
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on other_examples/WhileEndless-go-rawhttp/pkg/tlsconfig's
// version-floor convention (TLS 1.2 minimum), adapted to a client dialer
// rather than a server listener.

package iotransport

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

func newTLSTransport(opts Options) *netConnTransport {
	t := &netConnTransport{opts: opts}
	t.dial = func(host string, port int) (net.Conn, error) {
		dialer := &net.Dialer{Timeout: 10 * time.Second}
		cfg := &tls.Config{
			ServerName:         host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.SkipCertificateValidation,
		}
		return tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:%d", host, port), cfg)
	}
	return t
}
