//go:build !windows

package main

import "net/http"

func platformHTTPClient() *http.Client {
	return http.DefaultClient
}
