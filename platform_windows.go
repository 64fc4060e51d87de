package main

import (
	"net/http"

	ieproxy "github.com/mattn/go-ieproxy"
)

// platformHTTPClient returns the client for feed and artifact
// requests, using the proxy from Internet Options (PAC scripts
// included).
func platformHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = ieproxy.GetProxyFunc()
	return &http.Client{Transport: t}
}
